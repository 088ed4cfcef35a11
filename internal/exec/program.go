package exec

// Global describes the storage allocated for one global variable.
type Global struct {
	Handle   GlobalHandle
	Name     string
	Size     int
	Align    int
	Constant bool
}

// AliasBinding records the value an alias resolved to.
type AliasBinding struct {
	Name  string
	Value Literal
}

// Program is the executable form of one module.
type Program struct {
	Name       string
	Triple     string
	DataLayout string

	Funcs      []*Func
	Globals    []Global
	Aliases    []AliasBinding
	Unresolved []string `msgpack:",omitempty"`

	// Init runs the global initializers and constructors before Main.
	Init *Func
	Main FuncIndex
}

// Func returns the function registered under idx, if the program defines it.
func (p *Program) Func(idx FuncIndex) *Func {
	if p == nil {
		return nil
	}
	for _, f := range p.Funcs {
		if f != nil && f.Index == idx {
			return f
		}
	}
	return nil
}
