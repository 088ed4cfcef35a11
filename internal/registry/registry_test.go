package registry

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llvmexec/internal/exec"
	"llvmexec/internal/intrinsics"
	"llvmexec/internal/layout"
)

var i32 = layout.Shape{Kind: layout.KindI32, Bits: 32}

func newRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := New(intrinsics.Substitutions())
	require.NoError(t, err)
	return r
}

func TestDescriptorPerName(t *testing.T) {
	r := newRegistry(t)
	a := r.CreateFunctionDescriptor("@a", i32, nil, false)
	again := r.CreateFunctionDescriptor("@a", layout.Shape{Kind: layout.KindDouble}, []layout.Shape{i32}, true)
	assert.Same(t, a, again)
	assert.Equal(t, i32, again.Return, "first declaration wins")

	b := r.CreateFunctionDescriptor("@b", i32, nil, false)
	assert.Greater(t, b.Index, a.Index)
	assert.NotZero(t, a.Index)
}

func TestIndicesStartAfterIntrinsics(t *testing.T) {
	r := newRegistry(t)
	n := len(intrinsics.Substitutions())
	assert.Equal(t, n, r.Intrinsics())
	assert.Equal(t, n+1, r.Len())

	d := r.CreateFunctionDescriptor("@user", i32, nil, false)
	assert.Equal(t, exec.FuncIndex(n+1), d.Index)

	malloc, ok := r.ByName("@malloc")
	require.True(t, ok)
	assert.Less(t, malloc.Index, d.Index)
	entry, ok := r.Lookup(malloc)
	require.True(t, ok)
	assert.True(t, entry.IsIntrinsic())
	assert.Equal(t, 2, entry.Arity)
	assert.Empty(t, malloc.Params)
}

func TestZeroIndexIsNeverIssued(t *testing.T) {
	r, err := New(nil)
	require.NoError(t, err)
	zero := r.CreateFromIndex(0)
	require.NotNil(t, zero)
	assert.Equal(t, ZeroFunctionName, zero.Name)
	_, ok := r.Lookup(zero)
	assert.False(t, ok)

	d := r.CreateFunctionDescriptor("@f", i32, nil, false)
	assert.Equal(t, exec.FuncIndex(1), d.Index)
	assert.Same(t, d, r.CreateFromIndex(1))
	assert.Nil(t, r.CreateFromIndex(42))
}

func TestRegisterGrowsAndOverwrites(t *testing.T) {
	r, err := New(nil)
	require.NoError(t, err)
	var ds []*Descriptor
	for i := 0; i < 10; i++ {
		ds = append(ds, r.CreateFunctionDescriptor(fmt.Sprintf("@f%d", i), i32, nil, false))
	}
	_, ok := r.Lookup(ds[9])
	assert.False(t, ok, "declared but not registered is absent")

	first := &exec.Func{Name: "@f9"}
	r.Register(map[*Descriptor]*exec.Func{ds[9]: first})
	assert.Equal(t, 11, r.Capacity())
	got, ok := r.Lookup(ds[9])
	require.True(t, ok)
	assert.Same(t, first, got)
	assert.Equal(t, ds[9].Index, got.Index)

	second := &exec.Func{Name: "@f9"}
	r.Register(map[*Descriptor]*exec.Func{ds[9]: second, ds[0]: {Name: "@f0"}})
	got, _ = r.Lookup(ds[9])
	assert.Same(t, second, got)
	assert.Equal(t, 11, r.Capacity())
}

func TestDuplicateSubstitutionRejected(t *testing.T) {
	_, err := New([]intrinsics.Substitution{{Name: "@x", Arity: 1}, {Name: "@x", Arity: 2}})
	assert.True(t, errors.Is(err, ErrDuplicateIntrinsic))
}

func TestConcurrentRegistration(t *testing.T) {
	r := newRegistry(t)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				d := r.CreateFunctionDescriptor(fmt.Sprintf("@w%d_%d", w, i), i32, nil, false)
				r.Register(map[*Descriptor]*exec.Func{d: {Name: d.Name}})
				got, ok := r.Lookup(d)
				if assert.True(t, ok) {
					assert.Equal(t, d.Name, got.Name)
				}
			}
		}(w)
	}
	wg.Wait()
	assert.Equal(t, 1+r.Intrinsics()+8*50, r.Len())
}
