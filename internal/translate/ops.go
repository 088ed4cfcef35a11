package translate

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"llvmexec/internal/exec"
	"llvmexec/internal/layout"
)

// binaryOp is either an arithmetic or a bitwise operation.
type binaryOp struct {
	logic bool
	arith exec.ArithOp
	bits  exec.LogicOp
}

func arith(op exec.ArithOp) binaryOp { return binaryOp{arith: op} }
func logic(op exec.LogicOp) binaryOp { return binaryOp{logic: true, bits: op} }

func instBinary(inst ir.Instruction) (binaryOp, value.Value, value.Value, bool) {
	switch i := inst.(type) {
	case *ir.InstAdd:
		return arith(exec.ArithAdd), i.X, i.Y, true
	case *ir.InstFAdd:
		return arith(exec.ArithFAdd), i.X, i.Y, true
	case *ir.InstSub:
		return arith(exec.ArithSub), i.X, i.Y, true
	case *ir.InstFSub:
		return arith(exec.ArithFSub), i.X, i.Y, true
	case *ir.InstMul:
		return arith(exec.ArithMul), i.X, i.Y, true
	case *ir.InstFMul:
		return arith(exec.ArithFMul), i.X, i.Y, true
	case *ir.InstUDiv:
		return arith(exec.ArithUDiv), i.X, i.Y, true
	case *ir.InstSDiv:
		return arith(exec.ArithSDiv), i.X, i.Y, true
	case *ir.InstFDiv:
		return arith(exec.ArithFDiv), i.X, i.Y, true
	case *ir.InstURem:
		return arith(exec.ArithURem), i.X, i.Y, true
	case *ir.InstSRem:
		return arith(exec.ArithSRem), i.X, i.Y, true
	case *ir.InstFRem:
		return arith(exec.ArithFRem), i.X, i.Y, true
	case *ir.InstShl:
		return logic(exec.LogicShl), i.X, i.Y, true
	case *ir.InstLShr:
		return logic(exec.LogicLShr), i.X, i.Y, true
	case *ir.InstAShr:
		return logic(exec.LogicAShr), i.X, i.Y, true
	case *ir.InstAnd:
		return logic(exec.LogicAnd), i.X, i.Y, true
	case *ir.InstOr:
		return logic(exec.LogicOr), i.X, i.Y, true
	case *ir.InstXor:
		return logic(exec.LogicXor), i.X, i.Y, true
	}
	return binaryOp{}, nil, nil, false
}

func constBinary(c constant.Constant) (binaryOp, value.Value, value.Value, bool) {
	switch e := c.(type) {
	case *constant.ExprAdd:
		return arith(exec.ArithAdd), e.X, e.Y, true
	case *constant.ExprFAdd:
		return arith(exec.ArithFAdd), e.X, e.Y, true
	case *constant.ExprSub:
		return arith(exec.ArithSub), e.X, e.Y, true
	case *constant.ExprFSub:
		return arith(exec.ArithFSub), e.X, e.Y, true
	case *constant.ExprMul:
		return arith(exec.ArithMul), e.X, e.Y, true
	case *constant.ExprFMul:
		return arith(exec.ArithFMul), e.X, e.Y, true
	case *constant.ExprUDiv:
		return arith(exec.ArithUDiv), e.X, e.Y, true
	case *constant.ExprSDiv:
		return arith(exec.ArithSDiv), e.X, e.Y, true
	case *constant.ExprFDiv:
		return arith(exec.ArithFDiv), e.X, e.Y, true
	case *constant.ExprURem:
		return arith(exec.ArithURem), e.X, e.Y, true
	case *constant.ExprSRem:
		return arith(exec.ArithSRem), e.X, e.Y, true
	case *constant.ExprFRem:
		return arith(exec.ArithFRem), e.X, e.Y, true
	case *constant.ExprShl:
		return logic(exec.LogicShl), e.X, e.Y, true
	case *constant.ExprLShr:
		return logic(exec.LogicLShr), e.X, e.Y, true
	case *constant.ExprAShr:
		return logic(exec.LogicAShr), e.X, e.Y, true
	case *constant.ExprAnd:
		return logic(exec.LogicAnd), e.X, e.Y, true
	case *constant.ExprOr:
		return logic(exec.LogicOr), e.X, e.Y, true
	case *constant.ExprXor:
		return logic(exec.LogicXor), e.X, e.Y, true
	}
	return binaryOp{}, nil, nil, false
}

func instCast(inst ir.Instruction) (exec.CastOp, value.Value, types.Type, bool) {
	switch i := inst.(type) {
	case *ir.InstTrunc:
		return exec.CastTrunc, i.From, i.To, true
	case *ir.InstZExt:
		return exec.CastZExt, i.From, i.To, true
	case *ir.InstSExt:
		return exec.CastSExt, i.From, i.To, true
	case *ir.InstFPTrunc:
		return exec.CastFPTrunc, i.From, i.To, true
	case *ir.InstFPExt:
		return exec.CastFPExt, i.From, i.To, true
	case *ir.InstFPToUI:
		return exec.CastFPToUI, i.From, i.To, true
	case *ir.InstFPToSI:
		return exec.CastFPToSI, i.From, i.To, true
	case *ir.InstUIToFP:
		return exec.CastUIToFP, i.From, i.To, true
	case *ir.InstSIToFP:
		return exec.CastSIToFP, i.From, i.To, true
	case *ir.InstPtrToInt:
		return exec.CastPtrToInt, i.From, i.To, true
	case *ir.InstIntToPtr:
		return exec.CastIntToPtr, i.From, i.To, true
	case *ir.InstBitCast:
		return exec.CastBitCast, i.From, i.To, true
	case *ir.InstAddrSpaceCast:
		return exec.CastAddrSpaceCast, i.From, i.To, true
	}
	return 0, nil, nil, false
}

func constCast(c constant.Constant) (exec.CastOp, value.Value, types.Type, bool) {
	switch e := c.(type) {
	case *constant.ExprTrunc:
		return exec.CastTrunc, e.From, e.To, true
	case *constant.ExprZExt:
		return exec.CastZExt, e.From, e.To, true
	case *constant.ExprSExt:
		return exec.CastSExt, e.From, e.To, true
	case *constant.ExprFPTrunc:
		return exec.CastFPTrunc, e.From, e.To, true
	case *constant.ExprFPExt:
		return exec.CastFPExt, e.From, e.To, true
	case *constant.ExprFPToUI:
		return exec.CastFPToUI, e.From, e.To, true
	case *constant.ExprFPToSI:
		return exec.CastFPToSI, e.From, e.To, true
	case *constant.ExprUIToFP:
		return exec.CastUIToFP, e.From, e.To, true
	case *constant.ExprSIToFP:
		return exec.CastSIToFP, e.From, e.To, true
	case *constant.ExprPtrToInt:
		return exec.CastPtrToInt, e.From, e.To, true
	case *constant.ExprIntToPtr:
		return exec.CastIntToPtr, e.From, e.To, true
	case *constant.ExprBitCast:
		return exec.CastBitCast, e.From, e.To, true
	case *constant.ExprAddrSpaceCast:
		return exec.CastAddrSpaceCast, e.From, e.To, true
	}
	return 0, nil, nil, false
}

func (mt *moduleTranslator) binary(op binaryOp, t types.Type, x, y value.Value, operand operandFunc) (*exec.Expr, error) {
	s, err := mt.layout.Resolve(t)
	if err != nil {
		return nil, err
	}
	l, err := operand(x)
	if err != nil {
		return nil, err
	}
	r, err := operand(y)
	if err != nil {
		return nil, err
	}
	target, err := mt.vectorTarget(t)
	if err != nil {
		return nil, err
	}
	if op.logic {
		return mt.b.Logic(op.bits, s, l, r, target), nil
	}
	return mt.b.Arith(op.arith, s, l, r, target), nil
}

// compare resolves the predicate from its textual condition. The result
// is i1, or a vector of i1 for vector operands.
func (mt *moduleTranslator) compare(cond string, float bool, x, y value.Value, operand operandFunc) (*exec.Expr, error) {
	pred, ok := exec.ParseIntPred(cond)
	if float {
		pred, ok = exec.ParseFloatPred(cond)
	}
	if !ok {
		return nil, unsupported("comparison", "condition %q", cond)
	}
	var rt types.Type = types.I1
	if vt, isVec := x.Type().(*types.VectorType); isVec {
		rt = types.NewVector(vt.Len, types.I1)
	}
	rs, err := mt.layout.Resolve(rt)
	if err != nil {
		return nil, err
	}
	os, err := mt.layout.Resolve(x.Type())
	if err != nil {
		return nil, err
	}
	l, err := operand(x)
	if err != nil {
		return nil, err
	}
	r, err := operand(y)
	if err != nil {
		return nil, err
	}
	target, err := mt.vectorTarget(rt)
	if err != nil {
		return nil, err
	}
	return mt.b.Compare(pred, rs, os, l, r, target), nil
}

func (mt *moduleTranslator) cast(op exec.CastOp, from value.Value, to types.Type, operand operandFunc) (*exec.Expr, error) {
	fs, err := mt.layout.Resolve(from.Type())
	if err != nil {
		return nil, err
	}
	ts, err := mt.layout.Resolve(to)
	if err != nil {
		return nil, err
	}
	v, err := operand(from)
	if err != nil {
		return nil, err
	}
	target, err := mt.vectorTarget(to)
	if err != nil {
		return nil, err
	}
	return mt.b.Cast(op, fs, ts, v, target), nil
}

// gep walks the indices from a pointer to elemType. Constant indices fold
// into one byte offset; a dynamic index flushes the offset folded so far
// and steps by the size of the element at its level.
func (mt *moduleTranslator) gep(elemType types.Type, src value.Value, indices []value.Value, operand operandFunc) (*exec.Expr, error) {
	if _, vec := src.Type().(*types.VectorType); vec {
		return nil, unsupported("getelementptr", "over a vector of pointers")
	}
	base, err := operand(src)
	if err != nil {
		return nil, err
	}
	b := mt.b
	var cur types.Type = types.NewPointer(elemType)
	var folded int64
	flush := func() {
		if folded != 0 {
			base = b.ElementPtr(base, b.IntLiteral(i64Shape, folded), 1)
			folded = 0
		}
	}
	for _, idx := range indices {
		if n, ok := constIndex(idx); ok {
			off, next, err := mt.layout.IndexOffset(cur, n)
			if err != nil {
				return nil, err
			}
			folded += off
			cur = next
			continue
		}
		if _, isStruct := cur.(*types.StructType); isStruct {
			return nil, unsupported("getelementptr", "non-constant struct index into %s", cur)
		}
		if _, vec := idx.Type().(*types.VectorType); vec {
			return nil, unsupported("getelementptr", "vector index")
		}
		stride, next, err := mt.layout.IndexOffset(cur, 1)
		if err != nil {
			return nil, err
		}
		ix, err := operand(idx)
		if err != nil {
			return nil, err
		}
		flush()
		base = b.ElementPtr(base, ix, stride)
		cur = next
	}
	flush()
	return base, nil
}

func constIndex(v value.Value) (int64, bool) {
	switch c := v.(type) {
	case *constant.Index:
		return constIndex(c.Constant)
	case *constant.Int:
		if c.X.IsInt64() {
			return c.X.Int64(), true
		}
	case *constant.ZeroInitializer:
		if _, ok := c.Typ.(*types.IntType); ok {
			return 0, true
		}
	}
	return 0, false
}

func isAggregate(t types.Type) bool {
	switch t.(type) {
	case *types.StructType, *types.ArrayType:
		return true
	}
	return false
}

func isVoid(t types.Type) bool {
	_, ok := t.(*types.VoidType)
	return ok
}

func (mt *moduleTranslator) slotKind(t types.Type) (exec.SlotKind, layout.Shape, error) {
	s, err := mt.layout.Resolve(t)
	if err != nil {
		return exec.SlotIllegal, s, err
	}
	return exec.SlotKindOf(s.Kind), s, nil
}
