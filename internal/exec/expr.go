package exec

import "llvmexec/internal/layout"

// ExprKind enumerates expression kinds.
type ExprKind uint8

const (
	// ExprLiteral represents a constant value.
	ExprLiteral ExprKind = iota
	// ExprReg represents a register read.
	ExprReg
	// ExprArg represents a function argument read.
	ExprArg
	// ExprLoad represents a memory load.
	ExprLoad
	// ExprAlloc represents a stack allocation.
	ExprAlloc
	// ExprElementPtr represents address arithmetic.
	ExprElementPtr
	// ExprArith represents an arithmetic operation.
	ExprArith
	// ExprLogic represents a bitwise or shift operation.
	ExprLogic
	// ExprCompare represents a comparison.
	ExprCompare
	// ExprCast represents a conversion.
	ExprCast
	// ExprSelect represents a conditional value.
	ExprSelect
	// ExprCall represents a call through a function value.
	ExprCall
	// ExprIntrinsic represents a call to a built-in operation.
	ExprIntrinsic
	// ExprInlineAsm represents an inline assembly call.
	ExprInlineAsm
	// ExprArrayLit represents an array literal.
	ExprArrayLit
	// ExprStructLit represents a struct literal.
	ExprStructLit
	// ExprVectorLit represents a vector literal.
	ExprVectorLit
	// ExprZeroFill represents a zeroed memory region.
	ExprZeroFill
	// ExprZeroVector represents an all-zero vector.
	ExprZeroVector
	// ExprUndef represents an undefined value.
	ExprUndef
	// ExprExtractElement represents a vector element read.
	ExprExtractElement
	// ExprInsertElement represents a vector element update.
	ExprInsertElement
	// ExprExtractValue represents an aggregate member read.
	ExprExtractValue
	// ExprInsertValue represents an aggregate member update.
	ExprInsertValue
	// ExprShuffle represents a vector shuffle.
	ExprShuffle
)

// Expr is a node of the executable expression tree. Kind selects which
// payload field is meaningful.
type Expr struct {
	Kind ExprKind
	Type layout.Shape

	Literal   Literal        `msgpack:",omitempty"`
	Reg       RegID          `msgpack:",omitempty"`
	Arg       int            `msgpack:",omitempty"`
	Load      LoadExpr       `msgpack:",omitempty"`
	Alloc     AllocExpr      `msgpack:",omitempty"`
	ElemPtr   ElementPtrExpr `msgpack:",omitempty"`
	Arith     ArithExpr      `msgpack:",omitempty"`
	Logic     LogicExpr      `msgpack:",omitempty"`
	Compare   CompareExpr    `msgpack:",omitempty"`
	Cast      CastExpr       `msgpack:",omitempty"`
	Select    SelectExpr     `msgpack:",omitempty"`
	Call      CallExpr       `msgpack:",omitempty"`
	Intrinsic IntrinsicExpr  `msgpack:",omitempty"`
	InlineAsm InlineAsmExpr  `msgpack:",omitempty"`
	Aggregate AggregateExpr  `msgpack:",omitempty"`
	Zero      ZeroExpr       `msgpack:",omitempty"`
	Element   ElementExpr    `msgpack:",omitempty"`
	Member    MemberExpr     `msgpack:",omitempty"`
	Shuffle   ShuffleExpr    `msgpack:",omitempty"`
}

// LiteralKind distinguishes literal kinds.
type LiteralKind uint8

const (
	// LitInt represents an integer of at most 64 bits.
	LitInt LiteralKind = iota
	// LitWideInt represents a wider integer stored little-endian in Bytes.
	LitWideInt
	// LitFloat represents a floating-point value.
	LitFloat
	// LitAddress represents a raw address.
	LitAddress
	// LitFunction represents the address of a registered function.
	LitFunction
	// LitGlobal represents the address of a global's storage.
	LitGlobal
	// LitBlock represents a basic-block address.
	LitBlock
)

// SentinelAddress is the address of a zero-sized struct value.
const SentinelAddress int64 = -1

// Literal represents a constant value.
type Literal struct {
	Kind    LiteralKind
	Int     int64        `msgpack:",omitempty"`
	Bytes   []byte       `msgpack:",omitempty"`
	Float   float64      `msgpack:",omitempty"`
	Address int64        `msgpack:",omitempty"`
	Func    FuncIndex    `msgpack:",omitempty"`
	Global  GlobalHandle `msgpack:",omitempty"`
	Block   BlockID      `msgpack:",omitempty"`
}

type LoadExpr struct {
	Addr  *Expr
	Size  int
	Align int
}

// AllocLifetime distinguishes stack allocations from scratch space the
// engine keeps for the whole activation.
type AllocLifetime uint8

const (
	AllocStack AllocLifetime = iota
	AllocFunction
)

type AllocExpr struct {
	Lifetime AllocLifetime
	Size     int
	Align    int
	Count    *Expr // nil for a single element
}

// ElementPtrExpr computes Base + Index*Stride.
type ElementPtrExpr struct {
	Base   *Expr
	Index  *Expr
	Stride int64
}

// ArithExpr represents an arithmetic operation. Target holds scratch
// storage for vector results.
type ArithExpr struct {
	Op     ArithOp
	Left   *Expr
	Right  *Expr
	Target *Expr
}

type LogicExpr struct {
	Op     LogicOp
	Left   *Expr
	Right  *Expr
	Target *Expr
}

type CompareExpr struct {
	Pred    CmpPred
	Operand layout.Shape
	Left    *Expr
	Right   *Expr
	Target  *Expr
}

type CastExpr struct {
	Op     CastOp
	From   layout.Shape
	Value  *Expr
	Target *Expr
}

type SelectExpr struct {
	Cond  *Expr
	True  *Expr
	False *Expr
}

// CallExpr calls a function value. Args[0] is always the stack pointer.
type CallExpr struct {
	Callee   *Expr
	Args     []*Expr
	ArgTypes []layout.Shape
}

type IntrinsicExpr struct {
	Name     string
	Args     []*Expr
	ArgTypes []layout.Shape
}

type InlineAsmExpr struct {
	Asm         string
	Constraints string
	SideEffects bool
	Args        []*Expr
	ArgTypes    []layout.Shape
}

// AggregateExpr describes array, struct and vector literals. Offsets are
// byte offsets of each element inside Target.
type AggregateExpr struct {
	Target    *Expr
	Size      int
	Packed    bool
	Elems     []*Expr
	ElemTypes []layout.Shape
	Offsets   []int
}

// ZeroExpr describes zero-filled memory or an all-zero vector.
type ZeroExpr struct {
	Target *Expr
	Size   int
	Len    int
}

// ElementExpr reads or updates one vector lane.
type ElementExpr struct {
	Vector *Expr
	Index  *Expr
	Value  *Expr // insert only
	Target *Expr // insert only
}

// MemberExpr reads or updates one aggregate member at a fixed offset.
type MemberExpr struct {
	Aggregate *Expr
	Offset    int
	Size      int
	Value     *Expr // insert only
	Target    *Expr // insert only
}

type ShuffleExpr struct {
	Left   *Expr
	Right  *Expr
	Mask   *Expr
	Target *Expr
}
