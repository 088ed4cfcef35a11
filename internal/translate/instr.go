package translate

import (
	"math"

	"fortio.org/safecast"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"llvmexec/internal/exec"
	"llvmexec/internal/intrinsics"
	"llvmexec/internal/layout"
)

func (ft *funcTranslator) inst(inst ir.Instruction) ([]exec.Stmt, error) {
	switch i := inst.(type) {
	case *ir.InstPhi:
		// written on the incoming edges
		return nil, nil
	case *ir.InstStore:
		return ft.store(i)
	case *ir.InstFence, *ir.InstCmpXchg, *ir.InstAtomicRMW:
		return nil, unsupported("atomic operation", "%T", i)
	case *ir.InstCall:
		return ft.call(i)
	case *ir.InstVAArg:
		return nil, unsupported("va_arg", "%s", i.Ident())
	case *ir.InstLandingPad, *ir.InstCatchPad, *ir.InstCleanupPad:
		return nil, unsupported("exception handling", "%T", i)
	}
	e, err := ft.expr(inst)
	if err != nil {
		return nil, err
	}
	return ft.result(inst, e)
}

// expr lowers an instruction that produces a register value.
func (ft *funcTranslator) expr(inst ir.Instruction) (*exec.Expr, error) {
	mt := ft.mt
	if op, x, y, ok := instBinary(inst); ok {
		return mt.binary(op, x.Type(), x, y, ft.value)
	}
	if op, from, to, ok := instCast(inst); ok {
		return mt.cast(op, from, to, ft.value)
	}
	switch i := inst.(type) {
	case *ir.InstFNeg:
		return ft.fneg(i)
	case *ir.InstICmp:
		return mt.compare(i.Pred.String(), false, i.X, i.Y, ft.value)
	case *ir.InstFCmp:
		return mt.compare(i.Pred.String(), true, i.X, i.Y, ft.value)
	case *ir.InstSelect:
		return ft.selectValue(i)
	case *ir.InstAlloca:
		return ft.alloca(i)
	case *ir.InstLoad:
		return ft.load(i)
	case *ir.InstGetElementPtr:
		return mt.gep(i.ElemType, i.Src, i.Indices, ft.value)
	case *ir.InstExtractElement:
		return ft.extractElement(i)
	case *ir.InstInsertElement:
		return ft.insertElement(i)
	case *ir.InstShuffleVector:
		return ft.shuffle(i)
	case *ir.InstExtractValue:
		return ft.extractValue(i)
	case *ir.InstInsertValue:
		return ft.insertValue(i)
	default:
		return nil, unsupported("instruction", "%T", i)
	}
}

// result writes e into the register of inst.
func (ft *funcTranslator) result(inst ir.Instruction, e *exec.Expr) ([]exec.Stmt, error) {
	v, ok := inst.(value.Value)
	if !ok {
		return nil, invariant(nil, "%T produces no value", inst)
	}
	if _, has := ft.regs[v]; !has {
		return nil, invariant(nil, "%s has no register", v.Ident())
	}
	return []exec.Stmt{ft.write(v, e)}, nil
}

// fneg is lowered to a subtraction from negative zero.
func (ft *funcTranslator) fneg(i *ir.InstFNeg) (*exec.Expr, error) {
	b := ft.b
	t := i.X.Type()
	s, err := ft.shape(t)
	if err != nil {
		return nil, err
	}
	x, err := ft.value(i.X)
	if err != nil {
		return nil, err
	}
	negZero := math.Copysign(0, -1)
	var zero *exec.Expr
	if vt, ok := t.(*types.VectorType); ok {
		es, err := ft.shape(vt.ElemType)
		if err != nil {
			return nil, err
		}
		elems := make([]*exec.Expr, s.Len)
		for k := range elems {
			elems[k] = b.FloatLiteral(es, negZero)
		}
		target, err := ft.mt.scratch(t)
		if err != nil {
			return nil, err
		}
		zero = b.VectorLiteral(s, target, elems)
	} else {
		zero = b.FloatLiteral(s, negZero)
	}
	target, err := ft.mt.vectorTarget(t)
	if err != nil {
		return nil, err
	}
	return b.Arith(exec.ArithFSub, s, zero, x, target), nil
}

func (ft *funcTranslator) selectValue(i *ir.InstSelect) (*exec.Expr, error) {
	s, err := ft.shape(i.Type())
	if err != nil {
		return nil, err
	}
	vals := make([]*exec.Expr, 3)
	for k, op := range []value.Value{i.Cond, i.ValueTrue, i.ValueFalse} {
		if vals[k], err = ft.value(op); err != nil {
			return nil, err
		}
	}
	return ft.b.Select(s, vals[0], vals[1], vals[2]), nil
}

// memAlign is the explicit alignment when given, the type's alignment when
// the module has a layout, and otherwise 0 (no requirement).
func (ft *funcTranslator) memAlign(t types.Type, explicit int) (int, error) {
	if explicit != 0 {
		return explicit, nil
	}
	if !ft.mt.layout.HasLayout() {
		return 0, nil
	}
	return ft.mt.layout.AlignOf(t)
}

func (ft *funcTranslator) alloca(i *ir.InstAlloca) (*exec.Expr, error) {
	size, align, err := ft.mt.sizeAlign(i.ElemType)
	if err != nil {
		return nil, err
	}
	if i.Align != 0 {
		align = int(i.Align)
	}
	var count *exec.Expr
	if i.NElems != nil {
		if n, ok := constIndex(i.NElems); ok {
			k, err := safecast.Conv[int](n)
			if err != nil {
				return nil, err
			}
			size *= k
		} else if count, err = ft.value(i.NElems); err != nil {
			return nil, err
		}
	}
	return ft.b.Alloc(size, align, count), nil
}

func (ft *funcTranslator) load(i *ir.InstLoad) (*exec.Expr, error) {
	if i.Atomic {
		return nil, unsupported("atomic operation", "atomic load %s", i.Ident())
	}
	s, err := ft.shape(i.ElemType)
	if err != nil {
		return nil, err
	}
	size, err := ft.mt.layout.SizeOf(i.ElemType)
	if err != nil {
		return nil, err
	}
	align, err := ft.memAlign(i.ElemType, int(i.Align))
	if err != nil {
		return nil, err
	}
	addr, err := ft.value(i.Src)
	if err != nil {
		return nil, err
	}
	return ft.b.Load(s, addr, size, align), nil
}

func (ft *funcTranslator) store(i *ir.InstStore) ([]exec.Stmt, error) {
	if i.Atomic {
		return nil, unsupported("atomic operation", "atomic store")
	}
	t := i.Src.Type()
	s, err := ft.shape(t)
	if err != nil {
		return nil, err
	}
	size, err := ft.mt.layout.SizeOf(t)
	if err != nil {
		return nil, err
	}
	if size == 0 {
		return nil, nil
	}
	align, err := ft.memAlign(t, int(i.Align))
	if err != nil {
		return nil, err
	}
	v, err := ft.value(i.Src)
	if err != nil {
		return nil, err
	}
	addr, err := ft.value(i.Dst)
	if err != nil {
		return nil, err
	}
	return []exec.Stmt{ft.b.Store(s, addr, v, size, align)}, nil
}

func (ft *funcTranslator) extractElement(i *ir.InstExtractElement) (*exec.Expr, error) {
	s, err := ft.shape(i.Type())
	if err != nil {
		return nil, err
	}
	vec, err := ft.value(i.X)
	if err != nil {
		return nil, err
	}
	idx, err := ft.value(i.Index)
	if err != nil {
		return nil, err
	}
	return ft.b.ExtractElement(s, vec, idx), nil
}

func (ft *funcTranslator) insertElement(i *ir.InstInsertElement) (*exec.Expr, error) {
	s, err := ft.shape(i.Type())
	if err != nil {
		return nil, err
	}
	target, err := ft.mt.scratch(i.Type())
	if err != nil {
		return nil, err
	}
	vec, err := ft.value(i.X)
	if err != nil {
		return nil, err
	}
	idx, err := ft.value(i.Index)
	if err != nil {
		return nil, err
	}
	elem, err := ft.value(i.Elem)
	if err != nil {
		return nil, err
	}
	return ft.b.InsertElement(s, target, vec, idx, elem), nil
}

func (ft *funcTranslator) shuffle(i *ir.InstShuffleVector) (*exec.Expr, error) {
	s, err := ft.shape(i.Type())
	if err != nil {
		return nil, err
	}
	target, err := ft.mt.scratch(i.Type())
	if err != nil {
		return nil, err
	}
	x, err := ft.value(i.X)
	if err != nil {
		return nil, err
	}
	y, err := ft.value(i.Y)
	if err != nil {
		return nil, err
	}
	mask, err := ft.value(i.Mask)
	if err != nil {
		return nil, err
	}
	return ft.b.Shuffle(s, target, x, y, mask), nil
}

// member locates a single-level aggregate index.
func (ft *funcTranslator) member(agg types.Type, indices []uint64) (int, types.Type, error) {
	if len(indices) != 1 {
		return 0, nil, unsupported("aggregate access", "%d indices (only one level is supported)", len(indices))
	}
	idx, err := safecast.Conv[int64](indices[0])
	if err != nil {
		return 0, nil, err
	}
	off, member, err := ft.mt.layout.IndexOffset(agg, idx)
	if err != nil {
		return 0, nil, err
	}
	o, err := safecast.Conv[int](off)
	return o, member, err
}

func (ft *funcTranslator) extractValue(i *ir.InstExtractValue) (*exec.Expr, error) {
	off, member, err := ft.member(i.X.Type(), i.Indices)
	if err != nil {
		return nil, err
	}
	s, err := ft.shape(member)
	if err != nil {
		return nil, err
	}
	size, err := ft.mt.layout.SizeOf(member)
	if err != nil {
		return nil, err
	}
	agg, err := ft.value(i.X)
	if err != nil {
		return nil, err
	}
	return ft.b.ExtractValue(s, agg, off, size), nil
}

func (ft *funcTranslator) insertValue(i *ir.InstInsertValue) (*exec.Expr, error) {
	t := i.X.Type()
	off, member, err := ft.member(t, i.Indices)
	if err != nil {
		return nil, err
	}
	s, err := ft.shape(t)
	if err != nil {
		return nil, err
	}
	size, err := ft.mt.layout.SizeOf(member)
	if err != nil {
		return nil, err
	}
	target, err := ft.mt.scratch(t)
	if err != nil {
		return nil, err
	}
	agg, err := ft.value(i.X)
	if err != nil {
		return nil, err
	}
	elem, err := ft.value(i.Elem)
	if err != nil {
		return nil, err
	}
	return ft.b.InsertValue(s, target, agg, off, size, elem), nil
}

// call passes the stack pointer first, then the result address for
// aggregate returns, then the declared arguments. llvm.* callees and
// inline assembly take their own paths.
func (ft *funcTranslator) call(i *ir.InstCall) ([]exec.Stmt, error) {
	switch callee := i.Callee.(type) {
	case *ir.InlineAsm:
		return ft.inlineAsm(i, callee)
	case *ir.Func:
		if intrinsics.IsLLVM(callee.Name()) {
			return ft.intrinsic(i, callee)
		}
	}
	b := ft.b
	retType := i.Type()
	rs, err := ft.shape(retType)
	if err != nil {
		return nil, err
	}
	callee, err := ft.value(i.Callee)
	if err != nil {
		return nil, err
	}
	args := []*exec.Expr{b.ReadReg(exec.RegStack, addrShape)}
	argTypes := []layout.Shape{addrShape}
	var out []exec.Stmt
	sret := isAggregate(retType)
	if sret {
		scratch, err := ft.mt.scratch(retType)
		if err != nil {
			return nil, err
		}
		out = append(out, ft.write(i, scratch))
		args = append(args, b.ReadReg(ft.regs[i], addrShape))
		argTypes = append(argTypes, addrShape)
	}
	explicit, explicitTypes, err := ft.args(i.Args)
	if err != nil {
		return nil, err
	}
	call := b.Call(rs, callee, append(args, explicit...), append(argTypes, explicitTypes...))
	switch {
	case sret || isVoid(retType):
		return append(out, b.Eval(call)), nil
	default:
		return []exec.Stmt{ft.write(i, call)}, nil
	}
}

func (ft *funcTranslator) args(vals []value.Value) ([]*exec.Expr, []layout.Shape, error) {
	args := make([]*exec.Expr, len(vals))
	shapes := make([]layout.Shape, len(vals))
	for k, v := range vals {
		var err error
		if shapes[k], err = ft.shape(v.Type()); err != nil {
			return nil, nil, err
		}
		if args[k], err = ft.value(v); err != nil {
			return nil, nil, err
		}
	}
	return args, shapes, nil
}

func (ft *funcTranslator) intrinsic(i *ir.InstCall, f *ir.Func) ([]exec.Stmt, error) {
	fam, ok := intrinsics.Lookup(f.Name())
	if !ok {
		return nil, unsupported("intrinsic", "%s", f.Ident())
	}
	if fam.NoOp {
		return nil, nil
	}
	rs, err := ft.shape(i.Type())
	if err != nil {
		return nil, err
	}
	args, shapes, err := ft.args(i.Args)
	if err != nil {
		return nil, err
	}
	e := ft.b.Intrinsic(f.Name(), rs, args, shapes)
	if isVoid(i.Type()) {
		return []exec.Stmt{ft.b.Eval(e)}, nil
	}
	return []exec.Stmt{ft.write(i, e)}, nil
}

func (ft *funcTranslator) inlineAsm(i *ir.InstCall, asm *ir.InlineAsm) ([]exec.Stmt, error) {
	rs, err := ft.shape(i.Type())
	if err != nil {
		return nil, err
	}
	args, shapes, err := ft.args(i.Args)
	if err != nil {
		return nil, err
	}
	e := ft.b.InlineAsm(asm.Asm, asm.Constraint, asm.SideEffect, rs, args, shapes)
	if isVoid(i.Type()) {
		return []exec.Stmt{ft.b.Eval(e)}, nil
	}
	return []exec.Stmt{ft.write(i, e)}, nil
}
