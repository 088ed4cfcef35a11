// Package registry assigns stable indices to functions and maps indices to
// executable entries. Index 0 is the zero function so that a null function
// pointer never names a real function.
package registry

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"llvmexec/internal/exec"
	"llvmexec/internal/intrinsics"
	"llvmexec/internal/layout"
)

// ZeroFunctionName names the descriptor at index 0.
const ZeroFunctionName = "<zero function>"

// ErrDuplicateIntrinsic is returned when two substitutions share a name.
var ErrDuplicateIntrinsic = errors.New("duplicate intrinsic registration")

// Descriptor identifies one function by name. There is exactly one
// descriptor per name for the lifetime of a Registry.
type Descriptor struct {
	Name    string
	Return  layout.Shape
	Params  []layout.Shape
	VarArgs bool
	Index   exec.FuncIndex
}

func (d *Descriptor) String() string {
	if d == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s#%d", d.Name, d.Index)
}

// Registry is safe for concurrent use. Descriptor creation is serialised
// by a mutex; the index table is replaced wholesale on every registration
// so lookups never observe a partially grown table.
type Registry struct {
	mu      sync.Mutex
	byName  map[string]*Descriptor
	byIndex []*Descriptor

	table atomic.Pointer[[]*exec.Func]

	intrinsics int
}

// New creates a registry with subs registered before any other function.
func New(subs []intrinsics.Substitution) (*Registry, error) {
	r := &Registry{byName: make(map[string]*Descriptor, 64)}
	zero := &Descriptor{Name: ZeroFunctionName, Index: 0}
	r.byIndex = append(r.byIndex, zero)
	empty := make([]*exec.Func, 1)
	r.table.Store(&empty)

	entries := make(map[*Descriptor]*exec.Func, len(subs))
	for _, s := range subs {
		if _, dup := r.byName[s.Name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateIntrinsic, s.Name)
		}
		d := r.CreateFunctionDescriptor(s.Name, layout.Shape{Kind: layout.KindVoid}, nil, false)
		entries[d] = exec.NewIntrinsic(s.Name, s.Arity)
	}
	r.Register(entries)
	r.intrinsics = len(subs)
	return r, nil
}

// CreateFunctionDescriptor returns the descriptor for name, creating it
// with the next free index on first use. Later calls ignore the signature.
func (r *Registry) CreateFunctionDescriptor(name string, ret layout.Shape, params []layout.Shape, varArgs bool) *Descriptor {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.byName[name]; ok {
		return d
	}
	d := &Descriptor{
		Name:    name,
		Return:  ret,
		Params:  append([]layout.Shape(nil), params...),
		VarArgs: varArgs,
		Index:   exec.FuncIndex(len(r.byIndex)),
	}
	r.byIndex = append(r.byIndex, d)
	r.byName[name] = d
	return d
}

// CreateFromIndex returns the descriptor previously issued for idx, or nil
// when idx was never issued. An execution engine uses it to turn the indices
// stored in a program image back into callable descriptors.
func (r *Registry) CreateFromIndex(idx exec.FuncIndex) *Descriptor {
	r.mu.Lock()
	defer r.mu.Unlock()
	if idx < 0 || int(idx) >= len(r.byIndex) {
		return nil
	}
	return r.byIndex[idx]
}

// ByName returns the descriptor for name without creating one.
func (r *Registry) ByName(name string) (*Descriptor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.byName[name]
	return d, ok
}

// Register installs entries for a batch of descriptors, overwriting any
// earlier entry at the same index. Each entry's Index is set to its
// descriptor's.
func (r *Registry) Register(entries map[*Descriptor]*exec.Func) {
	if len(entries) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cur := *r.table.Load()
	size := len(cur)
	for d := range entries {
		size = max(size, int(d.Index)+1)
	}
	next := make([]*exec.Func, size)
	copy(next, cur)
	for d, fn := range entries {
		if d == nil || d.Index <= 0 {
			continue
		}
		if fn != nil {
			fn.Index = d.Index
		}
		next[d.Index] = fn
	}
	r.table.Store(&next)
}

// Lookup returns the entry installed for d. A false result means the
// function has no entry here and must be resolved natively.
func (r *Registry) Lookup(d *Descriptor) (*exec.Func, bool) {
	if d == nil {
		return nil, false
	}
	table := *r.table.Load()
	if d.Index <= 0 || int(d.Index) >= len(table) {
		return nil, false
	}
	fn := table[d.Index]
	return fn, fn != nil
}

// Len returns the number of issued indices, including the zero function.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byIndex)
}

// Intrinsics returns how many substitutions were registered by New.
func (r *Registry) Intrinsics() int { return r.intrinsics }

// Capacity returns the current length of the index table.
func (r *Registry) Capacity() int { return len(*r.table.Load()) }
