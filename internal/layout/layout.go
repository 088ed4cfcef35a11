package layout

import (
	"github.com/llir/llvm/ir/types"
)

// TypeLayout is the memory layout of an IR type under a DataLayout.
// Size is the allocation size, already rounded up to Align.
type TypeLayout struct {
	Size  int
	Align int

	// Struct-only:
	FieldOffsets []int
	FieldAligns  []int
}

// Engine computes memory layout for IR types. An Engine is owned by one
// translation and is not safe for concurrent use.
type Engine struct {
	Layout DataLayout

	cache *cache
}

// New creates a new Engine for the specified data layout.
func New(dl DataLayout) *Engine {
	return &Engine{
		Layout: dl,
		cache:  newCache(),
	}
}

// HasLayout reports whether the engine works from an explicit datalayout
// rather than the built-in defaults.
func (e *Engine) HasLayout() bool {
	return e != nil && e.Layout.Explicit
}

type layoutState struct {
	stack []types.Type
	index map[types.Type]int
}

func newLayoutState() *layoutState {
	return &layoutState{
		stack: nil,
		index: make(map[types.Type]int, 8),
	}
}

// LayoutOf computes and caches the layout of a type.
func (e *Engine) LayoutOf(t types.Type) (TypeLayout, error) {
	if e.cache == nil {
		e.cache = newCache()
	}
	l, err := e.layoutOf(t, newLayoutState())
	if err != nil {
		return l, err
	}
	return l, nil
}

func (e *Engine) layoutOf(t types.Type, state *layoutState) (TypeLayout, *LayoutError) {
	if cached, ok := e.cache.get(t); ok {
		return cached.Layout, cached.Err
	}

	if idx, ok := state.index[t]; ok {
		cycle := make([]string, 0, len(state.stack)-idx+1)
		for _, c := range state.stack[idx:] {
			cycle = append(cycle, c.String())
		}
		cycle = append(cycle, t.String())
		err := &LayoutError{
			Kind:  LayoutErrRecursiveUnsized,
			Type:  t.String(),
			Cycle: cycle,
		}
		e.cache.put(t, &cacheEntry{Layout: TypeLayout{Size: 0, Align: 1}, Err: err})
		return TypeLayout{Size: 0, Align: 1}, err
	}

	state.index[t] = len(state.stack)
	state.stack = append(state.stack, t)
	l, err := e.computeLayout(t, state)
	state.stack = state.stack[:len(state.stack)-1]
	delete(state.index, t)

	e.cache.put(t, &cacheEntry{Layout: l, Err: err})
	return l, err
}

// SizeOf returns the allocation size of a type in bytes.
func (e *Engine) SizeOf(t types.Type) (int, error) {
	l, err := e.LayoutOf(t)
	return l.Size, err
}

// AlignOf returns the alignment requirement of a type in bytes.
func (e *Engine) AlignOf(t types.Type) (int, error) {
	l, err := e.LayoutOf(t)
	return l.Align, err
}

// FieldOffset returns the byte offset of a struct field.
func (e *Engine) FieldOffset(t types.Type, fieldIdx int) (int, error) {
	if _, ok := t.(*types.StructType); !ok {
		return 0, &LayoutError{Kind: LayoutErrUnsupported, Type: t.String()}
	}
	l, err := e.LayoutOf(t)
	if err != nil {
		return 0, err
	}
	if fieldIdx < 0 || fieldIdx >= len(l.FieldOffsets) {
		return 0, &LayoutError{Kind: LayoutErrFieldIndex, Type: t.String(), Index: int64(fieldIdx)}
	}
	return l.FieldOffsets[fieldIdx], nil
}

// IndexOffset returns how many bytes indexing into t by index costs and
// the type reached by doing so. Pointers, arrays and vectors step by whole
// elements; structs select a field, including any padding before it.
func (e *Engine) IndexOffset(t types.Type, index int64) (int64, types.Type, error) {
	switch t := t.(type) {
	case *types.PointerType:
		return e.strideOffset(t.ElemType, index)
	case *types.ArrayType:
		return e.strideOffset(t.ElemType, index)
	case *types.VectorType:
		return e.strideOffset(t.ElemType, index)
	case *types.StructType:
		if index < 0 || index >= int64(len(t.Fields)) {
			return 0, nil, &LayoutError{Kind: LayoutErrFieldIndex, Type: t.String(), Index: index}
		}
		off, err := e.FieldOffset(t, int(index))
		if err != nil {
			return 0, nil, err
		}
		return int64(off), t.Fields[index], nil
	default:
		return 0, nil, &LayoutError{Kind: LayoutErrUnsupported, Type: t.String()}
	}
}

func (e *Engine) strideOffset(elem types.Type, index int64) (int64, types.Type, error) {
	size, err := e.SizeOf(elem)
	if err != nil {
		return 0, nil, err
	}
	return int64(size) * index, elem, nil
}
