package exec

import (
	"fmt"

	"llvmexec/internal/layout"
)

// Builder constructs executable nodes. It is the default implementation of
// the translator's factory and keeps no state beyond a node counter.
type Builder struct {
	nodes int
}

func NewBuilder() *Builder { return &Builder{} }

// Nodes returns how many expression nodes the builder has produced.
func (b *Builder) Nodes() int { return b.nodes }

func (b *Builder) node(e Expr) *Expr {
	b.nodes++
	return &e
}

func (b *Builder) Literal(t layout.Shape, lit Literal) *Expr {
	return b.node(Expr{Kind: ExprLiteral, Type: t, Literal: lit})
}

func (b *Builder) IntLiteral(t layout.Shape, v int64) *Expr {
	return b.Literal(t, Literal{Kind: LitInt, Int: v})
}

func (b *Builder) WideIntLiteral(t layout.Shape, le []byte) *Expr {
	return b.Literal(t, Literal{Kind: LitWideInt, Bytes: append([]byte(nil), le...)})
}

func (b *Builder) FloatLiteral(t layout.Shape, v float64) *Expr {
	return b.Literal(t, Literal{Kind: LitFloat, Float: v})
}

func (b *Builder) AddressLiteral(addr int64) *Expr {
	return b.Literal(layout.Shape{Kind: layout.KindAddress}, Literal{Kind: LitAddress, Address: addr})
}

func (b *Builder) FunctionLiteral(idx FuncIndex) *Expr {
	return b.Literal(layout.Shape{Kind: layout.KindFunction}, Literal{Kind: LitFunction, Func: idx})
}

func (b *Builder) GlobalLiteral(h GlobalHandle) *Expr {
	return b.Literal(layout.Shape{Kind: layout.KindAddress}, Literal{Kind: LitGlobal, Global: h})
}

func (b *Builder) BlockAddress(id BlockID) *Expr {
	return b.Literal(layout.Shape{Kind: layout.KindAddress}, Literal{Kind: LitBlock, Block: id})
}

func (b *Builder) ReadReg(id RegID, t layout.Shape) *Expr {
	return b.node(Expr{Kind: ExprReg, Type: t, Reg: id})
}

func (b *Builder) WriteReg(id RegID, kind SlotKind, v *Expr) Stmt {
	return Stmt{Kind: StmtWrite, Write: WriteStmt{Dst: id, Kind: kind, Value: v}}
}

func (b *Builder) Arg(i int, t layout.Shape) *Expr {
	return b.node(Expr{Kind: ExprArg, Type: t, Arg: i})
}

func (b *Builder) Load(t layout.Shape, addr *Expr, size, align int) *Expr {
	return b.node(Expr{Kind: ExprLoad, Type: t, Load: LoadExpr{Addr: addr, Size: size, Align: align}})
}

func (b *Builder) Store(t layout.Shape, addr, v *Expr, size, align int) Stmt {
	return Stmt{Kind: StmtStore, Store: StoreStmt{Addr: addr, Value: v, Type: t, Size: size, Align: align}}
}

// Alloc reserves stack memory; count is nil for a single element.
func (b *Builder) Alloc(size, align int, count *Expr) *Expr {
	return b.node(Expr{
		Kind:  ExprAlloc,
		Type:  layout.Shape{Kind: layout.KindAddress},
		Alloc: AllocExpr{Lifetime: AllocStack, Size: size, Align: align, Count: count},
	})
}

// FunctionAlloc reserves scratch memory that lives as long as the activation.
func (b *Builder) FunctionAlloc(size, align int) *Expr {
	return b.node(Expr{
		Kind:  ExprAlloc,
		Type:  layout.Shape{Kind: layout.KindAddress},
		Alloc: AllocExpr{Lifetime: AllocFunction, Size: size, Align: align},
	})
}

func (b *Builder) ElementPtr(base, index *Expr, stride int64) *Expr {
	return b.node(Expr{
		Kind:    ExprElementPtr,
		Type:    layout.Shape{Kind: layout.KindAddress},
		ElemPtr: ElementPtrExpr{Base: base, Index: index, Stride: stride},
	})
}

func (b *Builder) Arith(op ArithOp, t layout.Shape, l, r, target *Expr) *Expr {
	return b.node(Expr{Kind: ExprArith, Type: t, Arith: ArithExpr{Op: op, Left: l, Right: r, Target: target}})
}

func (b *Builder) Logic(op LogicOp, t layout.Shape, l, r, target *Expr) *Expr {
	return b.node(Expr{Kind: ExprLogic, Type: t, Logic: LogicExpr{Op: op, Left: l, Right: r, Target: target}})
}

func (b *Builder) Compare(p CmpPred, t, operand layout.Shape, l, r, target *Expr) *Expr {
	return b.node(Expr{
		Kind:    ExprCompare,
		Type:    t,
		Compare: CompareExpr{Pred: p, Operand: operand, Left: l, Right: r, Target: target},
	})
}

func (b *Builder) Cast(op CastOp, from, to layout.Shape, v, target *Expr) *Expr {
	return b.node(Expr{Kind: ExprCast, Type: to, Cast: CastExpr{Op: op, From: from, Value: v, Target: target}})
}

func (b *Builder) Select(t layout.Shape, cond, x, y *Expr) *Expr {
	return b.node(Expr{Kind: ExprSelect, Type: t, Select: SelectExpr{Cond: cond, True: x, False: y}})
}

func (b *Builder) Call(ret layout.Shape, callee *Expr, args []*Expr, argTypes []layout.Shape) *Expr {
	return b.node(Expr{Kind: ExprCall, Type: ret, Call: CallExpr{Callee: callee, Args: args, ArgTypes: argTypes}})
}

func (b *Builder) Intrinsic(name string, ret layout.Shape, args []*Expr, argTypes []layout.Shape) *Expr {
	return b.node(Expr{Kind: ExprIntrinsic, Type: ret, Intrinsic: IntrinsicExpr{Name: name, Args: args, ArgTypes: argTypes}})
}

func (b *Builder) InlineAsm(asm, constraints string, sideEffects bool, ret layout.Shape, args []*Expr, argTypes []layout.Shape) *Expr {
	return b.node(Expr{
		Kind: ExprInlineAsm,
		Type: ret,
		InlineAsm: InlineAsmExpr{
			Asm:         asm,
			Constraints: constraints,
			SideEffects: sideEffects,
			Args:        args,
			ArgTypes:    argTypes,
		},
	})
}

// ArrayLiteral stores elems at consecutive multiples of stride inside target.
func (b *Builder) ArrayLiteral(t layout.Shape, target *Expr, elems []*Expr, elemType layout.Shape, stride int) *Expr {
	types := make([]layout.Shape, len(elems))
	offsets := make([]int, len(elems))
	for i := range elems {
		types[i] = elemType
		offsets[i] = i * stride
	}
	return b.node(Expr{
		Kind: ExprArrayLit,
		Type: t,
		Aggregate: AggregateExpr{
			Target:    target,
			Size:      stride * len(elems),
			Elems:     elems,
			ElemTypes: types,
			Offsets:   offsets,
		},
	})
}

func (b *Builder) StructLiteral(t layout.Shape, target *Expr, size int, packed bool, elems []*Expr, types []layout.Shape, offsets []int) *Expr {
	if len(elems) != len(types) || len(elems) != len(offsets) {
		panic(fmt.Sprintf("struct literal: %d elems, %d types, %d offsets", len(elems), len(types), len(offsets)))
	}
	return b.node(Expr{
		Kind: ExprStructLit,
		Type: t,
		Aggregate: AggregateExpr{
			Target:    target,
			Size:      size,
			Packed:    packed,
			Elems:     elems,
			ElemTypes: types,
			Offsets:   offsets,
		},
	})
}

func (b *Builder) VectorLiteral(t layout.Shape, target *Expr, elems []*Expr) *Expr {
	return b.node(Expr{Kind: ExprVectorLit, Type: t, Aggregate: AggregateExpr{Target: target, Elems: elems}})
}

func (b *Builder) ZeroFill(t layout.Shape, target *Expr, size int) *Expr {
	return b.node(Expr{Kind: ExprZeroFill, Type: t, Zero: ZeroExpr{Target: target, Size: size}})
}

func (b *Builder) ZeroVector(t layout.Shape, target *Expr, n int) *Expr {
	return b.node(Expr{Kind: ExprZeroVector, Type: t, Zero: ZeroExpr{Target: target, Len: n}})
}

func (b *Builder) Undef(t layout.Shape) *Expr {
	return b.node(Expr{Kind: ExprUndef, Type: t})
}

func (b *Builder) ExtractElement(t layout.Shape, vec, idx *Expr) *Expr {
	return b.node(Expr{Kind: ExprExtractElement, Type: t, Element: ElementExpr{Vector: vec, Index: idx}})
}

func (b *Builder) InsertElement(t layout.Shape, target, vec, idx, v *Expr) *Expr {
	return b.node(Expr{
		Kind:    ExprInsertElement,
		Type:    t,
		Element: ElementExpr{Vector: vec, Index: idx, Value: v, Target: target},
	})
}

func (b *Builder) ExtractValue(t layout.Shape, agg *Expr, offset, size int) *Expr {
	return b.node(Expr{Kind: ExprExtractValue, Type: t, Member: MemberExpr{Aggregate: agg, Offset: offset, Size: size}})
}

func (b *Builder) InsertValue(t layout.Shape, target, agg *Expr, offset, size int, v *Expr) *Expr {
	return b.node(Expr{
		Kind:   ExprInsertValue,
		Type:   t,
		Member: MemberExpr{Aggregate: agg, Offset: offset, Size: size, Value: v, Target: target},
	})
}

func (b *Builder) Shuffle(t layout.Shape, target, x, y, mask *Expr) *Expr {
	return b.node(Expr{Kind: ExprShuffle, Type: t, Shuffle: ShuffleExpr{Left: x, Right: y, Mask: mask, Target: target}})
}

func (b *Builder) Eval(e *Expr) Stmt {
	return Stmt{Kind: StmtEval, Eval: EvalStmt{Value: e}}
}

func (b *Builder) Edge(target BlockID, phis []Stmt) Edge {
	return Edge{Target: target, Phis: phis}
}

// Return builds a return terminator; v is nil for a void return.
func (b *Builder) Return(v *Expr, kind SlotKind) Terminator {
	return Terminator{Kind: TermReturn, Return: ReturnTerm{HasValue: v != nil, Value: v, Kind: kind}}
}

func (b *Builder) Br(e Edge) Terminator {
	return Terminator{Kind: TermBr, Br: BrTerm{Edge: e}}
}

func (b *Builder) CondBr(cond *Expr, then, els Edge) Terminator {
	return Terminator{Kind: TermCondBr, CondBr: CondBrTerm{Cond: cond, Then: then, Else: els}}
}

// Switch pairs values[i] with targets[i].
func (b *Builder) Switch(v *Expr, values []Literal, targets []Edge, def Edge) Terminator {
	if len(values) != len(targets) {
		panic(fmt.Sprintf("switch: %d values for %d targets", len(values), len(targets)))
	}
	cases := make([]SwitchCase, len(values))
	for i := range values {
		cases[i] = SwitchCase{Value: values[i], Edge: targets[i]}
	}
	return Terminator{Kind: TermSwitch, Switch: SwitchTerm{Value: v, Cases: cases, Default: def}}
}

func (b *Builder) IndirectBr(addr *Expr, targets []Edge) Terminator {
	return Terminator{Kind: TermIndirectBr, IndirectBr: IndirectBrTerm{Addr: addr, Targets: targets}}
}

func (b *Builder) Unreachable() Terminator {
	return Terminator{Kind: TermUnreachable}
}

func (b *Builder) Block(id BlockID, name string, stmts []Stmt, term Terminator) Block {
	return Block{ID: id, Name: name, Stmts: stmts, Term: term}
}

// Function assembles a function body with the register layout of frame.
func (b *Builder) Function(name string, frame *Frame, prologue []Stmt, blocks []Block, epilogue []Stmt, varArgs bool) *Func {
	return &Func{
		Name:     name,
		Index:    NoFuncIndex,
		Regs:     frame.Registers(),
		Prologue: prologue,
		Blocks:   blocks,
		Epilogue: epilogue,
		Entry:    0,
		VarArgs:  varArgs,
	}
}
