package layout

import (
	"fortio.org/safecast"

	"github.com/llir/llvm/ir/types"
)

func (e *Engine) computeLayout(t types.Type, state *layoutState) (TypeLayout, *LayoutError) {
	switch t := t.(type) {
	case *types.VoidType, *types.LabelType, *types.MetadataType, *types.TokenType:
		return TypeLayout{Size: 0, Align: 1}, nil

	case *types.IntType:
		bits, err := safecast.Conv[int](t.BitSize)
		if err != nil {
			return TypeLayout{Size: 0, Align: 1}, &LayoutError{Kind: LayoutErrLengthConversion, Type: t.String(), Err: err}
		}
		align := e.Layout.IntAlign(bits)
		return TypeLayout{Size: roundUp((bits+7)/8, align), Align: align}, nil

	case *types.FloatType:
		bits := floatBits(t.Kind)
		if bits == 0 {
			return TypeLayout{Size: 0, Align: 1}, &LayoutError{Kind: LayoutErrUnsupported, Type: t.String()}
		}
		align := e.Layout.FloatAlign(bits)
		return TypeLayout{Size: roundUp(bits/8, align), Align: align}, nil

	case *types.PointerType, *types.FuncType:
		p := e.Layout.Pointer()
		return TypeLayout{Size: p.Size, Align: p.Align}, nil

	case *types.ArrayType:
		return e.sequenceLayout(t, t.ElemType, t.Len, state)

	case *types.VectorType:
		el, err := e.layoutOf(t.ElemType, state)
		if err != nil {
			return TypeLayout{Size: 0, Align: 1}, err
		}
		n, convErr := safecast.Conv[int](t.Len)
		if convErr != nil {
			return TypeLayout{Size: 0, Align: 1}, &LayoutError{Kind: LayoutErrLengthConversion, Type: t.String(), Err: convErr}
		}
		bits := el.Size * 8 * n
		if it, ok := t.ElemType.(*types.IntType); ok && it.BitSize == 1 {
			bits = n
		}
		align := e.Layout.VectorAlign(bits)
		return TypeLayout{Size: roundUp((bits+7)/8, align), Align: align}, nil

	case *types.StructType:
		if t.Opaque {
			return TypeLayout{Size: 0, Align: 1}, &LayoutError{Kind: LayoutErrOpaque, Type: t.String()}
		}
		return e.structLayout(t, state)

	default:
		return TypeLayout{Size: 0, Align: 1}, &LayoutError{Kind: LayoutErrUnsupported, Type: t.String()}
	}
}

func floatBits(k types.FloatKind) int {
	switch k {
	case types.FloatKindHalf:
		return 16
	case types.FloatKindFloat:
		return 32
	case types.FloatKindDouble:
		return 64
	case types.FloatKindX86_FP80:
		return 80
	case types.FloatKindFP128, types.FloatKindPPC_FP128:
		return 128
	default:
		return 0
	}
}

func roundUp(n, align int) int {
	if align <= 1 {
		return n
	}
	r := n % align
	if r == 0 {
		return n
	}
	return n + (align - r)
}

func (e *Engine) sequenceLayout(t, elem types.Type, length uint64, state *layoutState) (TypeLayout, *LayoutError) {
	el, err := e.layoutOf(elem, state)
	if err != nil {
		return TypeLayout{Size: 0, Align: 1}, err
	}
	n, convErr := safecast.Conv[int](length)
	if convErr != nil {
		return TypeLayout{Size: 0, Align: 1}, &LayoutError{Kind: LayoutErrLengthConversion, Type: t.String(), Err: convErr}
	}
	align := max(el.Align, 1)
	return TypeLayout{
		Size:  roundUp(el.Size, align) * n,
		Align: align,
	}, nil
}

func (e *Engine) structLayout(t *types.StructType, state *layoutState) (TypeLayout, *LayoutError) {
	offsets := make([]int, len(t.Fields))
	aligns := make([]int, len(t.Fields))

	if t.Packed {
		size := 0
		for i, f := range t.Fields {
			fl, err := e.layoutOf(f, state)
			if err != nil {
				return TypeLayout{Size: 0, Align: 1}, err
			}
			offsets[i] = size
			aligns[i] = 1
			size += fl.Size
		}
		return TypeLayout{
			Size:         size,
			Align:        1,
			FieldOffsets: offsets,
			FieldAligns:  aligns,
		}, nil
	}

	size := 0
	align := max(e.Layout.AggregateAlign, 1)
	for i, f := range t.Fields {
		fl, err := e.layoutOf(f, state)
		if err != nil {
			return TypeLayout{Size: 0, Align: 1}, err
		}
		fAlign := max(fl.Align, 1)
		size = roundUp(size, fAlign)
		offsets[i] = size
		aligns[i] = fAlign
		size += fl.Size
		align = max(align, fAlign)
	}
	size = roundUp(size, align)
	return TypeLayout{
		Size:         size,
		Align:        align,
		FieldOffsets: offsets,
		FieldAligns:  aligns,
	}, nil
}
