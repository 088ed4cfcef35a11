package exec

// Func is an executable function body, or a substituted built-in when
// Intrinsic is set.
type Func struct {
	Name  string
	Index FuncIndex

	Regs     []Register
	Prologue []Stmt
	Blocks   []Block
	Epilogue []Stmt
	Entry    BlockID
	VarArgs  bool

	Intrinsic string `msgpack:",omitempty"`
	Arity     int    `msgpack:",omitempty"`
}

// IsIntrinsic reports whether f stands for a built-in implementation.
func (f *Func) IsIntrinsic() bool {
	return f != nil && f.Intrinsic != ""
}

// NewIntrinsic returns the entry of a substituted built-in taking arity
// arguments.
func NewIntrinsic(name string, arity int) *Func {
	return &Func{Name: name, Index: NoFuncIndex, Entry: NoBlockID, Intrinsic: name, Arity: arity}
}
