package translate

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"

	"llvmexec/internal/diag"
	"llvmexec/internal/exec"
	"llvmexec/internal/globals"
	"llvmexec/internal/intrinsics"
	"llvmexec/internal/layout"
	"llvmexec/internal/lifetime"
	"llvmexec/internal/registry"
	"llvmexec/internal/trace"
)

const (
	InitFuncName = "<static initializers>"

	ctorsName = "llvm.global_ctors"
	dtorsName = "llvm.global_dtors"
)

type moduleTranslator struct {
	ctx     *Context
	m       *ir.Module
	b       Factory
	layout  *layout.Engine
	table   *exec.GlobalTable
	globals *globals.Resolver
	descs   map[*ir.Func]*registry.Descriptor
	labels  map[*ir.Func]map[*ir.Block]exec.BlockID
	tracer  trace.Tracer
	span    uint64
}

// Translate converts m into a program. Functions defined by m are
// registered in c.Registry as they are translated.
func (c *Context) Translate(ctx context.Context, m *ir.Module) (*exec.Program, error) {
	if m == nil {
		return nil, fmt.Errorf("translate: nil module")
	}
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeModule, "module:"+moduleName(m), trace.CurrentSpan(ctx))

	mt, err := c.newModuleTranslator(m, tracer, span.ID())
	if err != nil {
		span.End("error")
		return nil, err
	}
	p, err := mt.run(ctx)
	if err != nil {
		span.End("error")
		return nil, err
	}
	span.WithExtra("funcs", strconv.Itoa(len(p.Funcs))).
		WithExtra("globals", strconv.Itoa(len(p.Globals))).
		End("ok")
	return p, nil
}

func moduleName(m *ir.Module) string {
	if m.SourceFilename != "" {
		return m.SourceFilename
	}
	return "<module>"
}

func (c *Context) newModuleTranslator(m *ir.Module, tracer trace.Tracer, span uint64) (*moduleTranslator, error) {
	if c.Registry == nil {
		return nil, fmt.Errorf("translate: context has no registry")
	}
	raw := m.DataLayout
	if c.Options.DataLayout != "" {
		raw = c.Options.DataLayout
	}
	dl, err := layout.ParseDataLayout(raw)
	if err != nil {
		return nil, err
	}
	newFactory := c.NewFactory
	if newFactory == nil {
		newFactory = func() Factory { return exec.NewBuilder() }
	}
	engine := layout.New(dl)
	table := exec.NewGlobalTable(c.Options.GlobalLimit)
	mt := &moduleTranslator{
		ctx:    c,
		m:      m,
		b:      newFactory(),
		layout: engine,
		table:  table,
		descs:  make(map[*ir.Func]*registry.Descriptor, len(m.Funcs)),
		labels: make(map[*ir.Func]map[*ir.Block]exec.BlockID, len(m.Funcs)),
		tracer: tracer,
		span:   span,
	}
	mt.globals = globals.NewResolver(globals.NewTableStorage(engine, table), c.Natives, mt.funcIndex)
	return mt, nil
}

func (mt *moduleTranslator) report(sev diag.Severity, code diag.Code, subject, msg string) {
	if mt.ctx.Diags != nil {
		mt.ctx.Diags.Report(diag.New(sev, code, subject, msg))
	}
}

func (mt *moduleTranslator) run(ctx context.Context) (*exec.Program, error) {
	m := mt.m
	log := mt.ctx.Log

	if !mt.layout.HasLayout() {
		mt.report(diag.SevWarning, diag.WarnNoDataLayout, moduleName(m), "using x86-64 defaults; unspecified alignments are left at 0")
	}
	for range m.ModuleAsms {
		mt.report(diag.SevInfo, diag.NoteModuleAsm, "module asm", "")
		if log != nil {
			log.Notice("ignoring module-level inline assembly", "module", moduleName(m))
		}
	}
	for _, name := range slices.Sorted(maps.Keys(m.NamedMetadataDefs)) {
		mt.report(diag.SevInfo, diag.NoteNamedMetadata, "!"+name, "")
	}

	for _, f := range m.Funcs {
		labels := make(map[*ir.Block]exec.BlockID, len(f.Blocks))
		for i, blk := range f.Blocks {
			labels[blk] = exec.BlockID(i)
		}
		mt.labels[f] = labels
	}
	for _, f := range m.Funcs {
		if intrinsics.IsLLVM(f.Name()) {
			continue
		}
		if _, err := mt.descriptor(f); err != nil {
			return nil, fmt.Errorf("declaring function %s: %w", f.Ident(), err)
		}
	}

	if err := mt.seedInitializers(); err != nil {
		return nil, err
	}
	for _, g := range m.Globals {
		if skipGlobal(g) {
			continue
		}
		if _, err := mt.globals.FindOrAllocate(g); err != nil {
			return nil, invariant(err, "storage for %s", g.Ident())
		}
	}

	unresolved, err := mt.globals.ResolveAliases(m.Aliases)
	if err != nil {
		return nil, err
	}
	for _, a := range unresolved {
		if mt.ctx.Options.AliasPolicy == AliasError {
			return nil, fmt.Errorf("%w: %s", ErrUnresolvedAlias, a.Ident())
		}
		mt.report(diag.SevWarning, diag.WarnUnresolvedAlias, a.Ident(), "alias target never resolved")
		trace.Point(mt.tracer, trace.ScopeModule, "unresolved alias", a.Ident(), mt.span)
		if log != nil {
			log.Warningf("alias %s did not resolve", a.Ident())
		}
	}

	p := &exec.Program{
		Name:       moduleName(m),
		Triple:     m.TargetTriple,
		DataLayout: mt.layout.Layout.Raw,
		Main:       exec.NoFuncIndex,
	}
	entries := make(map[*registry.Descriptor]*exec.Func)
	for _, f := range m.Funcs {
		if len(f.Blocks) == 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fn, err := mt.translateFunc(f)
		if err != nil {
			return nil, fmt.Errorf("translating function %s: %w", f.Ident(), err)
		}
		entries[mt.descs[f]] = fn
		p.Funcs = append(p.Funcs, fn)
	}
	mt.ctx.Registry.Register(entries)

	if p.Init, err = mt.initFunc(); err != nil {
		return nil, err
	}
	if d, ok := mt.ctx.Registry.ByName("@main"); ok {
		if _, defined := mt.ctx.Registry.Lookup(d); defined {
			p.Main = d.Index
		}
	}

	for _, a := range m.Aliases {
		if lit, ok := mt.globals.Alias(a); ok {
			p.Aliases = append(p.Aliases, exec.AliasBinding{Name: a.Ident(), Value: lit})
		}
	}
	for _, a := range unresolved {
		p.Unresolved = append(p.Unresolved, a.Ident())
	}
	p.Globals = mt.table.Globals()

	if err := exec.Validate(p); err != nil {
		return nil, invariant(err, "translated module %s", p.Name)
	}
	return p, nil
}

// skipGlobal reports globals that get no storage: the llvm.* tables and
// globals defined elsewhere.
func skipGlobal(g *ir.Global) bool {
	return intrinsics.IsLLVM(g.Name()) || globals.IsExternal(g)
}

func (mt *moduleTranslator) descriptor(f *ir.Func) (*registry.Descriptor, error) {
	if d, ok := mt.descs[f]; ok {
		return d, nil
	}
	ret, err := mt.layout.Resolve(f.Sig.RetType)
	if err != nil {
		return nil, err
	}
	params := make([]layout.Shape, len(f.Sig.Params))
	for i, pt := range f.Sig.Params {
		if params[i], err = mt.layout.Resolve(pt); err != nil {
			return nil, err
		}
	}
	d := mt.ctx.Registry.CreateFunctionDescriptor(f.Ident(), ret, params, f.Sig.Variadic)
	mt.descs[f] = d
	return d, nil
}

func (mt *moduleTranslator) funcIndex(f *ir.Func) (exec.FuncIndex, error) {
	d, err := mt.descriptor(f)
	if err != nil {
		return exec.NoFuncIndex, err
	}
	return d.Index, nil
}

func (mt *moduleTranslator) translateFunc(f *ir.Func) (*exec.Func, error) {
	span := trace.Begin(mt.tracer, trace.ScopeFunction, f.Ident(), mt.span)
	ft := newFuncTranslator(mt, f)
	fn, err := ft.translate()
	if err != nil {
		span.End("error")
		return nil, err
	}
	if mt.ctx.Options.LifetimeAnalysis {
		pass := trace.Begin(mt.tracer, trace.ScopePass, "lifetime", span.ID())
		lifetime.Annotate(fn)
		pass.End("")
	}
	if log := mt.ctx.Log; log != nil {
		log.Debugf("translated %s: %d blocks, %d registers", f.Ident(), len(fn.Blocks), len(fn.Regs))
	}
	span.WithExtra("blocks", strconv.Itoa(len(fn.Blocks))).End("")
	return fn, nil
}

// initFunc builds the function that stores every global initializer, in
// module order, and then calls the constructor table in array order.
func (mt *moduleTranslator) initFunc() (*exec.Func, error) {
	b := mt.b
	frame := exec.NewFrame()
	prologue := []exec.Stmt{b.WriteReg(exec.RegStack, exec.SlotObject, b.Arg(0, addrShape))}

	var stmts []exec.Stmt
	var ctors *ir.Global
	for _, g := range mt.m.Globals {
		switch g.Name() {
		case ctorsName:
			ctors = g
			continue
		case dtorsName:
			return nil, unsupported("global destructor table", "%s", g.Ident())
		}
		if skipGlobal(g) {
			if intrinsics.IsLLVM(g.Name()) {
				mt.report(diag.SevInfo, diag.NoteSkippedGlobal, g.Ident(), "")
			}
			continue
		}
		if g.Init == nil {
			continue
		}
		st, ok, err := mt.initStore(g)
		if err != nil {
			return nil, fmt.Errorf("initializing global %s: %w", g.Ident(), err)
		}
		if ok {
			stmts = append(stmts, st)
		}
	}
	if ctors != nil {
		calls, err := mt.ctorCalls(ctors)
		if err != nil {
			return nil, fmt.Errorf("initializing global %s: %w", ctors.Ident(), err)
		}
		stmts = append(stmts, calls...)
	}
	body := b.Block(0, "init", stmts, b.Return(nil, exec.SlotIllegal))
	return b.Function(InitFuncName, frame, prologue, []exec.Block{body}, nil, false), nil
}

func (mt *moduleTranslator) initStore(g *ir.Global) (exec.Stmt, bool, error) {
	v, err := mt.constant(g.Init)
	if err != nil || v == nil {
		return exec.Stmt{}, false, err
	}
	h, err := mt.globals.FindOrAllocate(g)
	if err != nil {
		return exec.Stmt{}, false, err
	}
	s, err := mt.layout.Resolve(g.ContentType)
	if err != nil {
		return exec.Stmt{}, false, err
	}
	size, align, err := mt.sizeAlign(g.ContentType)
	if err != nil {
		return exec.Stmt{}, false, err
	}
	if g.Align != 0 {
		align = int(g.Align)
	}
	return mt.b.Store(s, mt.b.GlobalLiteral(h), v, size, align), true, nil
}

// ctorCalls calls the function in the second field of every table entry
// with only the stack pointer.
func (mt *moduleTranslator) ctorCalls(g *ir.Global) ([]exec.Stmt, error) {
	arr, ok := g.Init.(*constant.Array)
	if !ok {
		// zeroinitializer: an empty table
		return nil, nil
	}
	var out []exec.Stmt
	for i, elem := range arr.Elems {
		entry, ok := elem.(*constant.Struct)
		if !ok || len(entry.Fields) < 2 {
			return nil, unsupported("constructor table entry", "element %d is %s", i, elem.Ident())
		}
		switch entry.Fields[1].(type) {
		case *constant.Null, *constant.ZeroInitializer:
			continue
		}
		callee, err := mt.constant(entry.Fields[1])
		if err != nil {
			return nil, err
		}
		sp := mt.b.ReadReg(exec.RegStack, addrShape)
		call := mt.b.Call(layout.Shape{Kind: layout.KindVoid}, callee, []*exec.Expr{sp}, []layout.Shape{addrShape})
		out = append(out, mt.b.Eval(call))
	}
	return out, nil
}

func (mt *moduleTranslator) sizeAlign(t types.Type) (int, int, error) {
	l, err := mt.layout.LayoutOf(t)
	if err != nil {
		return 0, 0, err
	}
	return l.Size, l.Align, nil
}

func blockName(blk *ir.Block) string {
	return strings.TrimPrefix(blk.Ident(), "%")
}
