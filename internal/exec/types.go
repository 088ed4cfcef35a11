package exec

import "llvmexec/internal/layout"

type RegID int32
type BlockID int32
type FuncIndex int32
type GlobalHandle int32

const (
	NoRegID        RegID        = -1
	NoBlockID      BlockID      = -1
	NoFuncIndex    FuncIndex    = -1
	NoGlobalHandle GlobalHandle = -1
)

// Reserved registers present in every function.
const (
	RegReturn RegID = 0
	RegStack  RegID = 1
)

const (
	ReturnSlotName = "<function return value>"
	StackSlotName  = "<stack pointer>"
)

// SlotKind tags the storage class of a register.
type SlotKind uint8

const (
	// SlotIllegal marks a register that has not been given a kind yet.
	SlotIllegal SlotKind = iota
	SlotBoolean
	SlotByte
	SlotInt
	SlotLong
	SlotFloat
	SlotDouble
	SlotObject
)

func (k SlotKind) String() string {
	switch k {
	case SlotIllegal:
		return "illegal"
	case SlotBoolean:
		return "boolean"
	case SlotByte:
		return "byte"
	case SlotInt:
		return "int"
	case SlotLong:
		return "long"
	case SlotFloat:
		return "float"
	case SlotDouble:
		return "double"
	case SlotObject:
		return "object"
	default:
		return "unknown"
	}
}

// SlotKindOf maps a canonical type kind onto the register kind that holds it.
func SlotKindOf(k layout.Kind) SlotKind {
	switch k {
	case layout.KindI1:
		return SlotBoolean
	case layout.KindI8:
		return SlotByte
	case layout.KindI16, layout.KindI32:
		return SlotInt
	case layout.KindI64:
		return SlotLong
	case layout.KindFloat:
		return SlotFloat
	case layout.KindDouble:
		return SlotDouble
	case layout.KindVoid, layout.KindLabel, layout.KindMetadata:
		return SlotIllegal
	default:
		return SlotObject
	}
}

type Register struct {
	Name string
	Kind SlotKind
}
