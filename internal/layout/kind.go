package layout

import "fmt"

// Kind classifies an IR type in the canonical type model.
type Kind uint8

const (
	KindVoid Kind = iota
	KindI1
	KindI8
	KindI16
	KindI32
	KindI64
	KindIntN // integers of any other width, see Shape.Bits
	KindHalf
	KindFloat
	KindDouble
	KindX86FP80
	KindFP128
	KindAddress
	KindFunction // function address
	KindStruct
	KindArray
	KindVector
	KindLabel
	KindMetadata
	KindToken
)

func (k Kind) String() string {
	switch k {
	case KindVoid:
		return "void"
	case KindI1:
		return "i1"
	case KindI8:
		return "i8"
	case KindI16:
		return "i16"
	case KindI32:
		return "i32"
	case KindI64:
		return "i64"
	case KindIntN:
		return "iN"
	case KindHalf:
		return "half"
	case KindFloat:
		return "float"
	case KindDouble:
		return "double"
	case KindX86FP80:
		return "x86_fp80"
	case KindFP128:
		return "fp128"
	case KindAddress:
		return "addr"
	case KindFunction:
		return "fnaddr"
	case KindStruct:
		return "struct"
	case KindArray:
		return "array"
	case KindVector:
		return "vector"
	case KindLabel:
		return "label"
	case KindMetadata:
		return "metadata"
	case KindToken:
		return "token"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// IsInteger reports whether k is an integer kind of any width.
func (k Kind) IsInteger() bool {
	switch k {
	case KindI1, KindI8, KindI16, KindI32, KindI64, KindIntN:
		return true
	default:
		return false
	}
}

// IsFloat reports whether k is a floating-point kind.
func (k Kind) IsFloat() bool {
	switch k {
	case KindHalf, KindFloat, KindDouble, KindX86FP80, KindFP128:
		return true
	default:
		return false
	}
}

// IsAggregate reports whether values of kind k live in memory and are
// handled by address.
func (k Kind) IsAggregate() bool {
	return k == KindStruct || k == KindArray
}

// Shape is the resolved form of an IR type.
type Shape struct {
	Kind Kind
	Bits int  // integer width; zero for non-integers
	Elem Kind // element kind for arrays and vectors
	Len  int  // element count for arrays and vectors
}

func (s Shape) String() string {
	switch s.Kind {
	case KindIntN:
		return fmt.Sprintf("i%d", s.Bits)
	case KindArray:
		return fmt.Sprintf("[%d x %s]", s.Len, s.Elem)
	case KindVector:
		return fmt.Sprintf("<%d x %s>", s.Len, s.Elem)
	default:
		return s.Kind.String()
	}
}

// IsVector reports whether the shape describes a vector.
func (s Shape) IsVector() bool { return s.Kind == KindVector }
