package translate

import (
	"llvmexec/internal/exec"
	"llvmexec/internal/layout"
)

// Factory builds the executable nodes. The translator never inspects what
// it returns; exec.Builder is the default implementation.
type Factory interface {
	Literal(t layout.Shape, lit exec.Literal) *exec.Expr
	IntLiteral(t layout.Shape, v int64) *exec.Expr
	WideIntLiteral(t layout.Shape, le []byte) *exec.Expr
	FloatLiteral(t layout.Shape, v float64) *exec.Expr
	AddressLiteral(addr int64) *exec.Expr
	FunctionLiteral(idx exec.FuncIndex) *exec.Expr
	GlobalLiteral(h exec.GlobalHandle) *exec.Expr
	BlockAddress(id exec.BlockID) *exec.Expr

	ReadReg(id exec.RegID, t layout.Shape) *exec.Expr
	WriteReg(id exec.RegID, kind exec.SlotKind, v *exec.Expr) exec.Stmt
	Arg(i int, t layout.Shape) *exec.Expr

	Load(t layout.Shape, addr *exec.Expr, size, align int) *exec.Expr
	Store(t layout.Shape, addr, v *exec.Expr, size, align int) exec.Stmt
	Alloc(size, align int, count *exec.Expr) *exec.Expr
	FunctionAlloc(size, align int) *exec.Expr
	ElementPtr(base, index *exec.Expr, stride int64) *exec.Expr

	Arith(op exec.ArithOp, t layout.Shape, l, r, target *exec.Expr) *exec.Expr
	Logic(op exec.LogicOp, t layout.Shape, l, r, target *exec.Expr) *exec.Expr
	Compare(p exec.CmpPred, t, operand layout.Shape, l, r, target *exec.Expr) *exec.Expr
	Cast(op exec.CastOp, from, to layout.Shape, v, target *exec.Expr) *exec.Expr
	Select(t layout.Shape, cond, x, y *exec.Expr) *exec.Expr

	Call(ret layout.Shape, callee *exec.Expr, args []*exec.Expr, argTypes []layout.Shape) *exec.Expr
	Intrinsic(name string, ret layout.Shape, args []*exec.Expr, argTypes []layout.Shape) *exec.Expr
	InlineAsm(asm, constraints string, sideEffects bool, ret layout.Shape, args []*exec.Expr, argTypes []layout.Shape) *exec.Expr

	ArrayLiteral(t layout.Shape, target *exec.Expr, elems []*exec.Expr, elemType layout.Shape, stride int) *exec.Expr
	StructLiteral(t layout.Shape, target *exec.Expr, size int, packed bool, elems []*exec.Expr, types []layout.Shape, offsets []int) *exec.Expr
	VectorLiteral(t layout.Shape, target *exec.Expr, elems []*exec.Expr) *exec.Expr
	ZeroFill(t layout.Shape, target *exec.Expr, size int) *exec.Expr
	ZeroVector(t layout.Shape, target *exec.Expr, n int) *exec.Expr
	Undef(t layout.Shape) *exec.Expr
	ExtractElement(t layout.Shape, vec, idx *exec.Expr) *exec.Expr
	InsertElement(t layout.Shape, target, vec, idx, v *exec.Expr) *exec.Expr
	ExtractValue(t layout.Shape, agg *exec.Expr, offset, size int) *exec.Expr
	InsertValue(t layout.Shape, target, agg *exec.Expr, offset, size int, v *exec.Expr) *exec.Expr
	Shuffle(t layout.Shape, target, x, y, mask *exec.Expr) *exec.Expr

	Eval(e *exec.Expr) exec.Stmt
	Edge(target exec.BlockID, phis []exec.Stmt) exec.Edge
	Return(v *exec.Expr, kind exec.SlotKind) exec.Terminator
	Br(e exec.Edge) exec.Terminator
	CondBr(cond *exec.Expr, then, els exec.Edge) exec.Terminator
	Switch(v *exec.Expr, values []exec.Literal, targets []exec.Edge, def exec.Edge) exec.Terminator
	IndirectBr(addr *exec.Expr, targets []exec.Edge) exec.Terminator
	Unreachable() exec.Terminator
	Block(id exec.BlockID, name string, stmts []exec.Stmt, term exec.Terminator) exec.Block
	Function(name string, frame *exec.Frame, prologue []exec.Stmt, blocks []exec.Block, epilogue []exec.Stmt, varArgs bool) *exec.Func
}

var _ Factory = (*exec.Builder)(nil)
