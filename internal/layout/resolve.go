package layout

import (
	"fortio.org/safecast"

	"github.com/llir/llvm/ir/types"
)

// Resolve maps an IR type onto the canonical type model.
func (e *Engine) Resolve(t types.Type) (Shape, error) {
	switch t := t.(type) {
	case *types.VoidType:
		return Shape{Kind: KindVoid}, nil
	case *types.IntType:
		bits, err := safecast.Conv[int](t.BitSize)
		if err != nil {
			return Shape{}, &LayoutError{Kind: LayoutErrLengthConversion, Type: t.String(), Err: err}
		}
		return Shape{Kind: intKind(bits), Bits: bits}, nil
	case *types.FloatType:
		switch t.Kind {
		case types.FloatKindHalf:
			return Shape{Kind: KindHalf}, nil
		case types.FloatKindFloat:
			return Shape{Kind: KindFloat}, nil
		case types.FloatKindDouble:
			return Shape{Kind: KindDouble}, nil
		case types.FloatKindX86_FP80:
			return Shape{Kind: KindX86FP80}, nil
		case types.FloatKindFP128, types.FloatKindPPC_FP128:
			return Shape{Kind: KindFP128}, nil
		default:
			return Shape{}, &LayoutError{Kind: LayoutErrUnsupported, Type: t.String()}
		}
	case *types.PointerType:
		if _, ok := t.ElemType.(*types.FuncType); ok {
			return Shape{Kind: KindFunction}, nil
		}
		return Shape{Kind: KindAddress}, nil
	case *types.FuncType:
		return Shape{Kind: KindFunction}, nil
	case *types.StructType:
		return Shape{Kind: KindStruct}, nil
	case *types.ArrayType:
		return e.sequenceShape(KindArray, t, t.ElemType, t.Len)
	case *types.VectorType:
		return e.sequenceShape(KindVector, t, t.ElemType, t.Len)
	case *types.LabelType:
		return Shape{Kind: KindLabel}, nil
	case *types.MetadataType:
		return Shape{Kind: KindMetadata}, nil
	case *types.TokenType:
		return Shape{Kind: KindToken}, nil
	default:
		return Shape{}, &LayoutError{Kind: LayoutErrUnsupported, Type: t.String()}
	}
}

// ResolveKind is Resolve without the shape details.
func (e *Engine) ResolveKind(t types.Type) (Kind, error) {
	s, err := e.Resolve(t)
	return s.Kind, err
}

func (e *Engine) sequenceShape(kind Kind, t, elem types.Type, length uint64) (Shape, error) {
	es, err := e.Resolve(elem)
	if err != nil {
		return Shape{}, err
	}
	n, convErr := safecast.Conv[int](length)
	if convErr != nil {
		return Shape{}, &LayoutError{Kind: LayoutErrLengthConversion, Type: t.String(), Err: convErr}
	}
	return Shape{Kind: kind, Elem: es.Kind, Len: n, Bits: es.Bits}, nil
}

func intKind(bits int) Kind {
	switch bits {
	case 1:
		return KindI1
	case 8:
		return KindI8
	case 16:
		return KindI16
	case 32:
		return KindI32
	case 64:
		return KindI64
	default:
		return KindIntN
	}
}
