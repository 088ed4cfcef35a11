// Package globals binds module globals to engine storage and resolves aliases.
package globals

import (
	"errors"
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"

	"llvmexec/internal/exec"
	"llvmexec/internal/layout"
	"llvmexec/internal/native"
)

// ErrUnsupportedAliasee is returned for an alias of a function when the
// resolver has no function registry. Other aliasees it cannot bind are left
// unresolved.
var ErrUnsupportedAliasee = errors.New("unsupported aliasee")

// StorageBuilder allocates engine storage for one global.
type StorageBuilder interface {
	AllocateGlobal(g *ir.Global) (exec.GlobalHandle, error)
}

// FunctionIndexer returns the registry index of a function.
type FunctionIndexer func(f *ir.Func) (exec.FuncIndex, error)

// TableStorage is the StorageBuilder backed by an exec.GlobalTable. Globals
// are sized by the layout engine.
type TableStorage struct {
	layout *layout.Engine
	table  *exec.GlobalTable
}

func NewTableStorage(engine *layout.Engine, table *exec.GlobalTable) *TableStorage {
	return &TableStorage{layout: engine, table: table}
}

func (s *TableStorage) AllocateGlobal(g *ir.Global) (exec.GlobalHandle, error) {
	size, err := s.layout.SizeOf(g.ContentType)
	if err != nil {
		return exec.NoGlobalHandle, err
	}
	align := int(g.Align)
	if align == 0 {
		if align, err = s.layout.AlignOf(g.ContentType); err != nil {
			return exec.NoGlobalHandle, err
		}
	}
	return s.table.Allocate(g.Ident(), size, align, g.Immutable)
}

// Table returns the underlying table.
func (s *TableStorage) Table() *exec.GlobalTable { return s.table }

// Resolver memoizes storage handles per global and alias bindings per alias.
// It belongs to one module translation and is not safe for concurrent use.
type Resolver struct {
	storage StorageBuilder
	natives native.Resolver
	funcs   FunctionIndexer

	handles   map[*ir.Global]exec.GlobalHandle
	addresses map[*ir.Global]exec.Literal
	aliases   map[*ir.Alias]exec.Literal
}

func NewResolver(storage StorageBuilder, natives native.Resolver, funcs FunctionIndexer) *Resolver {
	if natives == nil {
		natives = native.None{}
	}
	return &Resolver{
		storage:   storage,
		natives:   natives,
		funcs:     funcs,
		handles:   make(map[*ir.Global]exec.GlobalHandle),
		addresses: make(map[*ir.Global]exec.Literal),
		aliases:   make(map[*ir.Alias]exec.Literal),
	}
}

// FindOrAllocate returns the storage handle of g, allocating it on first use.
func (r *Resolver) FindOrAllocate(g *ir.Global) (exec.GlobalHandle, error) {
	if h, ok := r.handles[g]; ok {
		return h, nil
	}
	h, err := r.storage.AllocateGlobal(g)
	if err != nil {
		return exec.NoGlobalHandle, fmt.Errorf("allocating global %s: %w", g.Ident(), err)
	}
	r.handles[g] = h
	return h, nil
}

// IsExternal reports whether g is defined outside the module.
func IsExternal(g *ir.Global) bool {
	if g.Init != nil {
		return false
	}
	return g.Linkage == enum.LinkageExternal || g.Linkage == enum.LinkageExternWeak || g.Linkage == enum.LinkageNone
}

// Address returns the value of a reference to g: a native address for
// external globals, the storage handle otherwise.
func (r *Resolver) Address(g *ir.Global) (exec.Literal, error) {
	if lit, ok := r.addresses[g]; ok {
		return lit, nil
	}
	var lit exec.Literal
	if IsExternal(g) {
		addr, err := r.natives.Resolve(g.Ident())
		if err != nil {
			return exec.Literal{}, fmt.Errorf("external global %s: %w", g.Ident(), err)
		}
		lit = exec.Literal{Kind: exec.LitAddress, Address: int64(addr)}
	} else {
		h, err := r.FindOrAllocate(g)
		if err != nil {
			return exec.Literal{}, err
		}
		lit = exec.Literal{Kind: exec.LitGlobal, Global: h}
	}
	r.addresses[g] = lit
	return lit, nil
}

// Alias returns the resolved binding of a.
func (r *Resolver) Alias(a *ir.Alias) (exec.Literal, bool) {
	lit, ok := r.aliases[a]
	return lit, ok
}

// ResolveAliases binds every alias it can. Each pass retries the aliases
// still pending; the loop stops when all are bound or a pass binds nothing.
// The aliases left over are returned in declaration order.
func (r *Resolver) ResolveAliases(aliases []*ir.Alias) ([]*ir.Alias, error) {
	pending := make([]*ir.Alias, 0, len(aliases))
	for _, a := range aliases {
		if _, done := r.aliases[a]; !done {
			pending = append(pending, a)
		}
	}
	for len(pending) > 0 {
		var next []*ir.Alias
		for _, a := range pending {
			lit, ok, err := r.aliasee(a.Aliasee)
			if err != nil {
				return nil, fmt.Errorf("alias %s: %w", a.Ident(), err)
			}
			if !ok {
				next = append(next, a)
				continue
			}
			r.aliases[a] = lit
		}
		if len(next) == len(pending) {
			break
		}
		pending = next
	}
	return pending, nil
}

func (r *Resolver) aliasee(c constant.Constant) (exec.Literal, bool, error) {
	switch c := c.(type) {
	case *ir.Global:
		lit, err := r.Address(c)
		return lit, err == nil, err
	case *ir.Func:
		if r.funcs == nil {
			return exec.Literal{}, false, fmt.Errorf("%w: function %s without a registry", ErrUnsupportedAliasee, c.Ident())
		}
		idx, err := r.funcs(c)
		if err != nil {
			return exec.Literal{}, false, err
		}
		return exec.Literal{Kind: exec.LitFunction, Func: idx}, true, nil
	case *ir.Alias:
		lit, ok := r.aliases[c]
		return lit, ok, nil
	case *constant.ExprBitCast:
		return r.aliasee(c.From)
	case *constant.ExprAddrSpaceCast:
		return r.aliasee(c.From)
	default:
		// getelementptr and other constant expressions stay pending
		return exec.Literal{}, false, nil
	}
}

// Len returns the number of globals that received storage.
func (r *Resolver) Len() int { return len(r.handles) }
