package bitcode

import (
	"math/big"

	"github.com/llir/llvm/ir/types"
)

// ConstKind distinguishes decoded constant kinds.
type ConstKind uint8

const (
	ConstNull ConstKind = iota
	ConstUndef
	ConstZero
	ConstInteger
	ConstWideInteger
	ConstFloat
	ConstAggregate
	ConstString
	ConstCString
	ConstBinary
	ConstCast
	ConstCompare
	ConstGEP
	ConstBlockAddress
	ConstData
)

func (k ConstKind) String() string {
	switch k {
	case ConstNull:
		return "null"
	case ConstUndef:
		return "undef"
	case ConstZero:
		return "zeroinitializer"
	case ConstInteger:
		return "integer"
	case ConstWideInteger:
		return "wide-integer"
	case ConstFloat:
		return "float"
	case ConstAggregate:
		return "aggregate"
	case ConstString:
		return "string"
	case ConstCString:
		return "cstring"
	case ConstBinary:
		return "binop"
	case ConstCast:
		return "cast"
	case ConstCompare:
		return "cmp"
	case ConstGEP:
		return "gep"
	case ConstBlockAddress:
		return "blockaddress"
	case ConstData:
		return "data"
	default:
		return "const?"
	}
}

// Constant is one decoded constant. Operands refer to positions in the
// symbol sequence.
type Constant struct {
	Kind ConstKind
	Type types.Type

	Int   int64
	Wide  *big.Int
	Bits  []uint64 // raw float words, low word first
	Bytes []byte   // string payload without the terminator
	Data  []uint64 // raw element values

	Op       uint64 // opcode of binop and cast, predicate of cmp
	Operands []int
	ElemType types.Type // source element type of a GEP
	InBounds bool

	Func  int // block address: function symbol
	Block int // block address: block number inside the function
}
