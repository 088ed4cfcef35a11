package translate

import (
	"context"
	"testing"

	"github.com/llir/llvm/asm"
	"github.com/llir/llvm/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llvmexec/internal/diag"
	"llvmexec/internal/exec"
	"llvmexec/internal/intrinsics"
	"llvmexec/internal/registry"
)

const dataLayout = `target datalayout = "e-m:e-p270:32:32-p271:32:32-p272:64:64-i64:64-f80:128-n8:16:32:64-S128"
`

func newTestContext(t *testing.T, opts Options) (*Context, *diag.Bag) {
	t.Helper()
	reg, err := registry.New(intrinsics.Substitutions())
	require.NoError(t, err)
	c := NewContext(reg, opts)
	bag := diag.NewBag(0)
	c.Diags = diag.BagReporter{Bag: bag}
	return c, bag
}

func translateSrc(t *testing.T, c *Context, src string) (*exec.Program, error) {
	t.Helper()
	m, err := asm.ParseString("test.ll", src)
	require.NoError(t, err)
	return c.Translate(context.Background(), m)
}

func mustTranslate(t *testing.T, src string) (*exec.Program, *Context) {
	t.Helper()
	c, _ := newTestContext(t, Options{})
	p, err := translateSrc(t, c, dataLayout+src)
	require.NoError(t, err)
	return p, c
}

func funcNamed(t *testing.T, p *exec.Program, name string) *exec.Func {
	t.Helper()
	for _, f := range p.Funcs {
		if f.Name == name {
			return f
		}
	}
	require.Failf(t, "missing function", "%s not in program", name)
	return nil
}

func TestMainReturningConstant(t *testing.T) {
	p, c := mustTranslate(t, `
define i32 @main() {
entry:
	ret i32 42
}
`)
	d, ok := c.Registry.ByName("@main")
	require.True(t, ok)
	assert.Equal(t, d.Index, p.Main)
	assert.Equal(t, 1+c.Registry.Intrinsics()+1, c.Registry.Len())

	f := p.Func(p.Main)
	require.NotNil(t, f)
	require.Len(t, f.Blocks, 1)
	assert.Empty(t, f.Blocks[0].Stmts)
	ret := f.Blocks[0].Term
	require.Equal(t, exec.TermReturn, ret.Kind)
	require.True(t, ret.Return.HasValue)
	assert.Equal(t, exec.ExprLiteral, ret.Return.Value.Kind)
	assert.Equal(t, int64(42), ret.Return.Value.Literal.Int)
	assert.Equal(t, exec.SlotInt, ret.Return.Kind)

	require.NotNil(t, p.Init)
	assert.Equal(t, InitFuncName, p.Init.Name)
}

func TestPhisAreWrittenOnIncomingEdges(t *testing.T) {
	p, _ := mustTranslate(t, `
define i32 @f(i1 %c) {
entry:
	br i1 %c, label %a, label %b
a:
	br label %join
b:
	br label %join
join:
	%x = phi i32 [ 1, %a ], [ 2, %b ]
	%y = phi i32 [ 3, %a ], [ 4, %b ]
	%s = add i32 %x, %y
	ret i32 %s
}
`)
	f := funcNamed(t, p, "@f")
	require.Len(t, f.Blocks, 4)
	for _, bb := range f.Blocks[1:3] {
		require.Equal(t, exec.TermBr, bb.Term.Kind, bb.Name)
		edge := bb.Term.Br.Edge
		assert.Equal(t, exec.BlockID(3), edge.Target)
		assert.Len(t, edge.Phis, 2, bb.Name)
	}
	first := f.Blocks[1].Term.Br.Edge.Phis[0]
	assert.Equal(t, int64(1), first.Write.Value.Literal.Int)
	second := f.Blocks[2].Term.Br.Edge.Phis[1]
	assert.Equal(t, int64(4), second.Write.Value.Literal.Int)

	assert.Len(t, f.Blocks[3].Stmts, 1, "phis themselves produce no statements")
	assert.Empty(t, f.Blocks[0].Term.CondBr.Then.Phis)
}

func TestConditionalBranchCarriesPhisPerEdge(t *testing.T) {
	p, _ := mustTranslate(t, `
define i32 @pick(i1 %c) {
entry:
	br i1 %c, label %a, label %b
a:
	%x = phi i32 [ 1, %entry ]
	%y = phi i32 [ 2, %entry ]
	%s = add i32 %x, %y
	ret i32 %s
b:
	%u = phi i32 [ 3, %entry ]
	%v = phi i32 [ 4, %entry ]
	%d = sub i32 %u, %v
	ret i32 %d
}
`)
	f := funcNamed(t, p, "@pick")
	require.Len(t, f.Blocks, 3)
	term := f.Blocks[0].Term
	require.Equal(t, exec.TermCondBr, term.Kind)

	then, els := term.CondBr.Then, term.CondBr.Else
	assert.Equal(t, exec.BlockID(1), then.Target)
	assert.Equal(t, exec.BlockID(2), els.Target)
	require.Len(t, then.Phis, 2)
	require.Len(t, els.Phis, 2)

	var thenVals, elseVals []int64
	for k := range 2 {
		thenVals = append(thenVals, then.Phis[k].Write.Value.Literal.Int)
		elseVals = append(elseVals, els.Phis[k].Write.Value.Literal.Int)
	}
	assert.Equal(t, []int64{1, 2}, thenVals)
	assert.Equal(t, []int64{3, 4}, elseVals)
	assert.NotEqual(t, then.Phis[0].Write.Dst, els.Phis[0].Write.Dst)
}

func TestValueInstructionsWriteTheirRegister(t *testing.T) {
	p, _ := mustTranslate(t, `
define i32 @pick(i1 %c, i32 %a) {
	%neg = sub i32 0, %a
	%v = select i1 %c, i32 %a, i32 %neg
	ret i32 %v
}
`)
	stmts := funcNamed(t, p, "@pick").Blocks[0].Stmts
	require.Len(t, stmts, 2)
	assert.Equal(t, exec.ExprArith, stmts[0].Write.Value.Kind)

	sel := stmts[1].Write.Value
	require.Equal(t, exec.ExprSelect, sel.Kind)
	assert.Equal(t, exec.ExprReg, sel.Select.Cond.Kind)
	assert.Equal(t, exec.ExprReg, sel.Select.True.Kind)
	assert.Equal(t, stmts[0].Write.Dst, sel.Select.False.Reg)
}

const swapLoop = `
define i32 @swap(i32 %n) {
entry:
	br label %loop
loop:
	%a = phi i32 [ 1, %entry ], [ %b, %loop ]
	%b = phi i32 [ 2, %entry ], [ %a, %loop ]
	%i = phi i32 [ 0, %entry ], [ %i1, %loop ]
	%i1 = add i32 %i, 1
	%done = icmp eq i32 %i1, %n
	br i1 %done, label %exit, label %loop
exit:
	ret i32 %a
}
`

func TestSwappingPhisGoThroughTemporaries(t *testing.T) {
	p, _ := mustTranslate(t, swapLoop)
	f := funcNamed(t, p, "@swap")

	entry := f.Blocks[0].Term.Br.Edge
	assert.Len(t, entry.Phis, 3)

	back := f.Blocks[1].Term.CondBr.Else
	require.Equal(t, exec.BlockID(1), back.Target)
	require.Len(t, back.Phis, 6)

	temps := map[exec.RegID]bool{}
	for _, s := range back.Phis[:3] {
		temps[s.Write.Dst] = true
	}
	for _, s := range back.Phis[3:] {
		assert.Equal(t, exec.ExprReg, s.Write.Value.Kind)
		assert.True(t, temps[s.Write.Value.Reg], "destination reads a temporary")
		assert.False(t, temps[s.Write.Dst])
	}
	assert.Empty(t, f.Blocks[1].Term.CondBr.Then.Phis)
}

func TestLifetimeAnalysisAnnotatesBlocks(t *testing.T) {
	c, _ := newTestContext(t, Options{LifetimeAnalysis: true})
	p, err := translateSrc(t, c, dataLayout+swapLoop)
	require.NoError(t, err)
	f := funcNamed(t, p, "@swap")
	assert.NotEmpty(t, f.Blocks[2].DeadAfter)

	p, _ = mustTranslate(t, swapLoop)
	for _, bb := range funcNamed(t, p, "@swap").Blocks {
		assert.Empty(t, bb.DeadAfter)
	}
}

func TestGEPOffsetsFollowPacking(t *testing.T) {
	p, _ := mustTranslate(t, `
%P = type <{ i8, i32 }>
%S = type { i8, i32 }

define i32* @packed(%P* %p) {
	%q = getelementptr %P, %P* %p, i32 0, i32 1
	ret i32* %q
}

define i32* @padded(%S* %p) {
	%q = getelementptr %S, %S* %p, i32 0, i32 1
	ret i32* %q
}

define i32* @dynamic(i32* %p, i64 %i) {
	%q = getelementptr i32, i32* %p, i64 %i
	ret i32* %q
}
`)
	offset := func(name string) int64 {
		f := funcNamed(t, p, name)
		w := f.Blocks[0].Stmts[0].Write.Value
		require.Equal(t, exec.ExprElementPtr, w.Kind)
		assert.Equal(t, int64(1), w.ElemPtr.Stride)
		return w.ElemPtr.Index.Literal.Int
	}
	assert.Equal(t, int64(1), offset("@packed"))
	assert.Equal(t, int64(4), offset("@padded"))

	dyn := funcNamed(t, p, "@dynamic").Blocks[0].Stmts[0].Write.Value
	require.Equal(t, exec.ExprElementPtr, dyn.Kind)
	assert.Equal(t, int64(4), dyn.ElemPtr.Stride)
	assert.Equal(t, exec.ExprReg, dyn.ElemPtr.Index.Kind)
}

func initStores(t *testing.T, p *exec.Program) []exec.Stmt {
	t.Helper()
	require.NotNil(t, p.Init)
	require.Len(t, p.Init.Blocks, 1)
	return p.Init.Blocks[0].Stmts
}

func TestZeroSizedAggregates(t *testing.T) {
	p, _ := mustTranslate(t, `
@e = global {} zeroinitializer
@z = global [0 x i32] zeroinitializer
`)
	stores := initStores(t, p)
	require.Len(t, stores, 1, "a zero-length array has no value to store")
	v := stores[0].Store.Value
	assert.Equal(t, exec.ExprLiteral, v.Kind)
	assert.Equal(t, exec.SentinelAddress, v.Literal.Address)
	assert.Len(t, p.Globals, 2)
}

func TestCStringInitializer(t *testing.T) {
	p, _ := mustTranslate(t, `
@s = constant [3 x i8] c"hi\00"
`)
	stores := initStores(t, p)
	require.Len(t, stores, 1)
	st := stores[0].Store
	assert.Equal(t, 3, st.Size)
	require.Equal(t, exec.ExprArrayLit, st.Value.Kind)
	elems := st.Value.Aggregate.Elems
	require.Len(t, elems, 3)
	assert.Equal(t, int64('h'), elems[0].Literal.Int)
	assert.Equal(t, int64('i'), elems[1].Literal.Int)
	assert.Equal(t, int64(0), elems[2].Literal.Int)
	assert.True(t, p.Globals[0].Constant)
}

func TestGlobalsAreAllocatedOnce(t *testing.T) {
	p, _ := mustTranslate(t, `
@g = global i32 5

define i32 @get() {
	%v = load i32, i32* @g
	ret i32 %v
}

define void @set(i32 %v) {
	store i32 %v, i32* @g
	ret void
}
`)
	require.Len(t, p.Globals, 1)
	h := p.Globals[0].Handle

	load := funcNamed(t, p, "@get").Blocks[0].Stmts[0].Write.Value
	require.Equal(t, exec.ExprLoad, load.Kind)
	assert.Equal(t, exec.LitGlobal, load.Load.Addr.Literal.Kind)
	assert.Equal(t, h, load.Load.Addr.Literal.Global)
	assert.Equal(t, 4, load.Load.Align)

	store := funcNamed(t, p, "@set").Blocks[0].Stmts[0]
	require.Equal(t, exec.StmtStore, store.Kind)
	assert.Equal(t, h, store.Store.Addr.Literal.Global)

	init := initStores(t, p)
	require.Len(t, init, 1)
	assert.Equal(t, h, init[0].Store.Addr.Literal.Global)
}

func TestConstructorsRunAfterGlobalStores(t *testing.T) {
	p, c := mustTranslate(t, `
@g = global i32 5
@llvm.global_ctors = appending global [3 x { i32, void ()*, i8* }] [
	{ i32, void ()*, i8* } { i32 65535, void ()* @c1, i8* null },
	{ i32, void ()*, i8* } { i32 65535, void ()* null, i8* null },
	{ i32, void ()*, i8* } { i32 65535, void ()* @c2, i8* null }
]

define void @c1() {
	ret void
}

define void @c2() {
	ret void
}
`)
	stmts := initStores(t, p)
	require.Len(t, stmts, 3)
	assert.Equal(t, exec.StmtStore, stmts[0].Kind)
	for i, name := range []string{"@c1", "@c2"} {
		s := stmts[i+1]
		require.Equal(t, exec.StmtEval, s.Kind)
		call := s.Eval.Value
		require.Equal(t, exec.ExprCall, call.Kind)
		d, ok := c.Registry.ByName(name)
		require.True(t, ok)
		assert.Equal(t, d.Index, call.Call.Callee.Literal.Func)
		assert.Len(t, call.Call.Args, 1, "constructors receive only the stack pointer")
	}
	assert.Len(t, p.Globals, 1, "the constructor table gets no storage")
}

func TestDestructorTableIsUnsupported(t *testing.T) {
	c, _ := newTestContext(t, Options{})
	_, err := translateSrc(t, c, dataLayout+`
@llvm.global_dtors = appending global [0 x { i32, void ()*, i8* }] zeroinitializer
`)
	require.ErrorIs(t, err, ErrUnsupported)
}

func TestAtomicsAreUnsupported(t *testing.T) {
	c, _ := newTestContext(t, Options{})
	_, err := translateSrc(t, c, dataLayout+`
define void @f() {
	fence seq_cst
	ret void
}
`)
	require.ErrorIs(t, err, ErrUnsupported)
	assert.Contains(t, err.Error(), "@f")

	var ue *UnsupportedError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "atomic operation", ue.Feature)
}

func TestAliasChainResolves(t *testing.T) {
	p, _ := mustTranslate(t, `
@a = alias i32, i32* @b
@b = alias i32, i32* @g
@g = global i32 1

define i32* @addr() {
	ret i32* @a
}
`)
	require.Len(t, p.Aliases, 2)
	h := p.Globals[0].Handle
	for _, a := range p.Aliases {
		assert.Equal(t, exec.Literal{Kind: exec.LitGlobal, Global: h}, a.Value, a.Name)
	}
	ret := funcNamed(t, p, "@addr").Blocks[0].Term.Return.Value
	assert.Equal(t, h, ret.Literal.Global)
	assert.Empty(t, p.Unresolved)
}

func cyclicModule() *ir.Module {
	m := ir.NewModule()
	m.DataLayout = "e-m:e-i64:64-f80:128-n8:16:32:64-S128"
	x := &ir.Alias{GlobalIdent: ir.GlobalIdent{GlobalName: "x"}}
	y := &ir.Alias{GlobalIdent: ir.GlobalIdent{GlobalName: "y"}}
	x.Aliasee = y
	y.Aliasee = x
	m.Aliases = append(m.Aliases, x, y)
	return m
}

func TestAliasCycleFollowsPolicy(t *testing.T) {
	c, bag := newTestContext(t, Options{AliasPolicy: AliasWarn})
	p, err := c.Translate(context.Background(), cyclicModule())
	require.NoError(t, err)
	assert.Equal(t, []string{"@x", "@y"}, p.Unresolved)
	assert.Empty(t, p.Aliases)
	require.True(t, bag.HasWarnings())
	var codes []diag.Code
	for _, d := range bag.Items() {
		codes = append(codes, d.Code)
	}
	assert.Equal(t, []diag.Code{diag.WarnUnresolvedAlias, diag.WarnUnresolvedAlias}, codes)

	c, _ = newTestContext(t, Options{AliasPolicy: AliasError})
	_, err = c.Translate(context.Background(), cyclicModule())
	require.ErrorIs(t, err, ErrUnresolvedAlias)
	assert.Contains(t, err.Error(), "@x")
}

func TestAliasOfGEPIsLeftToPolicy(t *testing.T) {
	src := dataLayout + `
@arr = global [4 x i32] zeroinitializer
@second = alias i32, getelementptr ([4 x i32], [4 x i32]* @arr, i64 0, i64 1)
`
	c, bag := newTestContext(t, Options{AliasPolicy: AliasWarn})
	p, err := translateSrc(t, c, src)
	require.NoError(t, err)
	assert.Equal(t, []string{"@second"}, p.Unresolved)
	require.True(t, bag.HasWarnings())
	var codes []diag.Code
	for _, d := range bag.Items() {
		codes = append(codes, d.Code)
	}
	assert.Contains(t, codes, diag.WarnUnresolvedAlias)

	c, _ = newTestContext(t, Options{AliasPolicy: AliasError})
	_, err = translateSrc(t, c, src)
	require.ErrorIs(t, err, ErrUnresolvedAlias)
}

func TestAggregateReturnUsesResultAddress(t *testing.T) {
	p, _ := mustTranslate(t, `
%pair = type { i64, i64 }

declare %pair @mk()

define i64 @use() {
	%r = call %pair @mk()
	%x = extractvalue %pair %r, 1
	ret i64 %x
}
`)
	stmts := funcNamed(t, p, "@use").Blocks[0].Stmts
	require.Len(t, stmts, 3)

	alloc := stmts[0]
	require.Equal(t, exec.StmtWrite, alloc.Kind)
	assert.Equal(t, exec.ExprAlloc, alloc.Write.Value.Kind)
	assert.Equal(t, exec.AllocFunction, alloc.Write.Value.Alloc.Lifetime)
	assert.Equal(t, 16, alloc.Write.Value.Alloc.Size)

	call := stmts[1]
	require.Equal(t, exec.StmtEval, call.Kind)
	args := call.Eval.Value.Call.Args
	require.Len(t, args, 2)
	assert.Equal(t, exec.RegStack, args[0].Reg)
	assert.Equal(t, alloc.Write.Dst, args[1].Reg)

	member := stmts[2].Write.Value
	require.Equal(t, exec.ExprExtractValue, member.Kind)
	assert.Equal(t, 8, member.Member.Offset)
	assert.Equal(t, 8, member.Member.Size)
}

func TestIntrinsicCalls(t *testing.T) {
	p, _ := mustTranslate(t, `
declare void @llvm.donothing()
declare i32 @llvm.ctpop.i32(i32)

define i32 @f(i32 %x) {
	call void @llvm.donothing()
	%n = call i32 @llvm.ctpop.i32(i32 %x)
	ret i32 %n
}
`)
	stmts := funcNamed(t, p, "@f").Blocks[0].Stmts
	require.Len(t, stmts, 1, "no-op intrinsics are dropped")
	e := stmts[0].Write.Value
	require.Equal(t, exec.ExprIntrinsic, e.Kind)
	assert.Equal(t, "llvm.ctpop.i32", e.Intrinsic.Name)
	assert.Len(t, e.Intrinsic.Args, 1, "intrinsics take no stack pointer")
}

func TestUnknownIntrinsicIsUnsupported(t *testing.T) {
	c, _ := newTestContext(t, Options{})
	_, err := translateSrc(t, c, dataLayout+`
declare i32 @llvm.quux.i32(i32)

define i32 @f(i32 %x) {
	%n = call i32 @llvm.quux.i32(i32 %x)
	ret i32 %n
}
`)
	require.ErrorIs(t, err, ErrUnsupported)
}

func TestModuleLevelNotes(t *testing.T) {
	c, bag := newTestContext(t, Options{})
	_, err := translateSrc(t, c, `
!llvm.ident = !{!0}
!0 = !{!"clang"}
`)
	require.NoError(t, err)
	bag.Sort()
	var codes []diag.Code
	for _, d := range bag.Items() {
		codes = append(codes, d.Code)
	}
	assert.Contains(t, codes, diag.WarnNoDataLayout)
	assert.Contains(t, codes, diag.NoteNamedMetadata)
	assert.False(t, bag.HasErrors())
}

func TestCancelledContextStopsTranslation(t *testing.T) {
	c, _ := newTestContext(t, Options{})
	m, err := asm.ParseString("test.ll", dataLayout+swapLoop)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Translate(ctx, m)
	require.ErrorIs(t, err, context.Canceled)
}

func TestDataLayoutOverride(t *testing.T) {
	c, _ := newTestContext(t, Options{DataLayout: "e-p:32:32-i64:32"})
	p, err := translateSrc(t, c, dataLayout+`@g = global i64 0`)
	require.NoError(t, err)
	assert.Equal(t, "e-p:32:32-i64:32", p.DataLayout)
	assert.Equal(t, 4, p.Globals[0].Align)
}
