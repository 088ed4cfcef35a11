package bitcode

import (
	"math"
	"math/big"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
)

// Materialize builds the IR constant for symbol i, resolving the symbols it
// refers to. Results are memoized per symbol.
func (s *Symbols) Materialize(i int) (constant.Constant, error) {
	return s.materialize(i, make(map[int]bool))
}

func (s *Symbols) materialize(i int, active map[int]bool) (constant.Constant, error) {
	if c, ok := s.materialized[i]; ok {
		return c, nil
	}
	sym, ok := s.At(i)
	if !ok {
		return nil, symbolErr(i, "no such symbol (have %d)", s.Len())
	}
	if sym.Value != nil {
		return sym.Value, nil
	}
	if sym.Placeholder || sym.Const == nil {
		return nil, symbolErr(i, "placeholder for an unrecognised record has no value")
	}
	if active[i] {
		return nil, symbolErr(i, "constant refers to itself")
	}
	active[i] = true
	defer delete(active, i)

	c, err := s.build(i, sym.Const, active)
	if err != nil {
		return nil, err
	}
	s.materialized[i] = c
	return c, nil
}

func (s *Symbols) operands(c *Constant, active map[int]bool) ([]constant.Constant, error) {
	out := make([]constant.Constant, len(c.Operands))
	for k, ref := range c.Operands {
		v, err := s.materialize(ref, active)
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

func (s *Symbols) build(i int, c *Constant, active map[int]bool) (constant.Constant, error) {
	switch c.Kind {
	case ConstNull:
		pt, ok := c.Type.(*types.PointerType)
		if !ok {
			return constant.NewZeroInitializer(c.Type), nil
		}
		return constant.NewNull(pt), nil

	case ConstUndef:
		return constant.NewUndef(c.Type), nil

	case ConstZero:
		return constant.NewZeroInitializer(c.Type), nil

	case ConstInteger:
		it, ok := c.Type.(*types.IntType)
		if !ok {
			return nil, symbolErr(i, "integer record for non-integer type %s", c.Type)
		}
		return constant.NewInt(it, c.Int), nil

	case ConstWideInteger:
		it, ok := c.Type.(*types.IntType)
		if !ok {
			return nil, symbolErr(i, "integer record for non-integer type %s", c.Type)
		}
		return &constant.Int{Typ: it, X: new(big.Int).Set(c.Wide)}, nil

	case ConstFloat:
		ft, ok := c.Type.(*types.FloatType)
		if !ok {
			return nil, symbolErr(i, "float record for non-float type %s", c.Type)
		}
		switch ft.Kind {
		case types.FloatKindFloat:
			return constant.NewFloat(ft, float64(math.Float32frombits(uint32(c.Bits[0])))), nil
		case types.FloatKindDouble:
			return constant.NewFloat(ft, math.Float64frombits(c.Bits[0])), nil
		default:
			return nil, symbolErr(i, "float record for %s is not supported", ft)
		}

	case ConstAggregate:
		elems, err := s.operands(c, active)
		if err != nil {
			return nil, err
		}
		return aggregate(i, c.Type, elems)

	case ConstString, ConstCString:
		b := append([]byte(nil), c.Bytes...)
		if c.Kind == ConstCString {
			b = append(b, 0)
		}
		return constant.NewCharArray(b), nil

	case ConstData:
		elems := make([]constant.Constant, len(c.Data))
		elemType := sequenceElem(c.Type)
		for k, raw := range c.Data {
			switch et := elemType.(type) {
			case *types.IntType:
				elems[k] = constant.NewInt(et, int64(raw))
			case *types.FloatType:
				if et.Kind == types.FloatKindFloat {
					elems[k] = constant.NewFloat(et, float64(math.Float32frombits(uint32(raw))))
				} else {
					elems[k] = constant.NewFloat(et, math.Float64frombits(raw))
				}
			default:
				return nil, symbolErr(i, "data record for %s", c.Type)
			}
		}
		return aggregate(i, c.Type, elems)

	case ConstBinary:
		ops, err := s.operands(c, active)
		if err != nil {
			return nil, err
		}
		return binary(i, c.Op, ops[0], ops[1])

	case ConstCast:
		ops, err := s.operands(c, active)
		if err != nil {
			return nil, err
		}
		return cast(i, c.Op, ops[0], c.Type)

	case ConstCompare:
		ops, err := s.operands(c, active)
		if err != nil {
			return nil, err
		}
		return compare(i, c.Op, ops[0], ops[1])

	case ConstGEP:
		ops, err := s.operands(c, active)
		if err != nil {
			return nil, err
		}
		gep := constant.NewGetElementPtr(c.ElemType, ops[0], ops[1:]...)
		gep.InBounds = c.InBounds
		return gep, nil

	case ConstBlockAddress:
		fv, err := s.materialize(c.Func, active)
		if err != nil {
			return nil, err
		}
		f, ok := fv.(*ir.Func)
		if !ok {
			return nil, symbolErr(i, "block address of non-function %s", fv.Ident())
		}
		if c.Block < 0 || c.Block >= len(f.Blocks) {
			return nil, symbolErr(i, "function %s has no block %d", f.Ident(), c.Block)
		}
		return constant.NewBlockAddress(f, f.Blocks[c.Block]), nil

	default:
		return nil, symbolErr(i, "cannot materialise %s", c.Kind)
	}
}

func sequenceElem(t types.Type) types.Type {
	switch t := t.(type) {
	case *types.ArrayType:
		return t.ElemType
	case *types.VectorType:
		return t.ElemType
	default:
		return nil
	}
}

func aggregate(i int, t types.Type, elems []constant.Constant) (constant.Constant, error) {
	switch t := t.(type) {
	case *types.ArrayType:
		return constant.NewArray(t, elems...), nil
	case *types.VectorType:
		return constant.NewVector(t, elems...), nil
	case *types.StructType:
		return constant.NewStruct(t, elems...), nil
	default:
		return nil, symbolErr(i, "aggregate record for non-aggregate type %s", t)
	}
}

func isFloatOperand(x constant.Constant) bool {
	t := x.Type()
	if vt, ok := t.(*types.VectorType); ok {
		t = vt.ElemType
	}
	_, ok := t.(*types.FloatType)
	return ok
}

// binary maps the bitcode binary opcode numbering onto IR expressions.
func binary(i int, op uint64, x, y constant.Constant) (constant.Constant, error) {
	if isFloatOperand(x) {
		switch op {
		case 0:
			return constant.NewFAdd(x, y), nil
		case 1:
			return constant.NewFSub(x, y), nil
		case 2:
			return constant.NewFMul(x, y), nil
		case 4:
			return constant.NewFDiv(x, y), nil
		case 6:
			return constant.NewFRem(x, y), nil
		}
		return nil, symbolErr(i, "binary opcode %d is not a floating-point operation", op)
	}
	switch op {
	case 0:
		return constant.NewAdd(x, y), nil
	case 1:
		return constant.NewSub(x, y), nil
	case 2:
		return constant.NewMul(x, y), nil
	case 3:
		return constant.NewUDiv(x, y), nil
	case 4:
		return constant.NewSDiv(x, y), nil
	case 5:
		return constant.NewURem(x, y), nil
	case 6:
		return constant.NewSRem(x, y), nil
	case 7:
		return constant.NewShl(x, y), nil
	case 8:
		return constant.NewLShr(x, y), nil
	case 9:
		return constant.NewAShr(x, y), nil
	case 10:
		return constant.NewAnd(x, y), nil
	case 11:
		return constant.NewOr(x, y), nil
	case 12:
		return constant.NewXor(x, y), nil
	}
	return nil, symbolErr(i, "unknown binary opcode %d", op)
}

func cast(i int, op uint64, x constant.Constant, to types.Type) (constant.Constant, error) {
	switch op {
	case 0:
		return constant.NewTrunc(x, to), nil
	case 1:
		return constant.NewZExt(x, to), nil
	case 2:
		return constant.NewSExt(x, to), nil
	case 3:
		return constant.NewFPToUI(x, to), nil
	case 4:
		return constant.NewFPToSI(x, to), nil
	case 5:
		return constant.NewUIToFP(x, to), nil
	case 6:
		return constant.NewSIToFP(x, to), nil
	case 7:
		return constant.NewFPTrunc(x, to), nil
	case 8:
		return constant.NewFPExt(x, to), nil
	case 9:
		return constant.NewPtrToInt(x, to), nil
	case 10:
		return constant.NewIntToPtr(x, to), nil
	case 11:
		return constant.NewBitCast(x, to), nil
	case 12:
		return constant.NewAddrSpaceCast(x, to), nil
	}
	return nil, symbolErr(i, "unknown cast opcode %d", op)
}

var floatPreds = [...]enum.FPred{
	enum.FPredFalse, enum.FPredOEQ, enum.FPredOGT, enum.FPredOGE,
	enum.FPredOLT, enum.FPredOLE, enum.FPredONE, enum.FPredORD,
	enum.FPredUNO, enum.FPredUEQ, enum.FPredUGT, enum.FPredUGE,
	enum.FPredULT, enum.FPredULE, enum.FPredUNE, enum.FPredTrue,
}

var intPreds = [...]enum.IPred{
	enum.IPredEQ, enum.IPredNE, enum.IPredUGT, enum.IPredUGE, enum.IPredULT,
	enum.IPredULE, enum.IPredSGT, enum.IPredSGE, enum.IPredSLT, enum.IPredSLE,
}

// compare maps bitcode predicates: 0-15 are floating point, 32-41 integer.
func compare(i int, pred uint64, x, y constant.Constant) (constant.Constant, error) {
	switch {
	case pred < uint64(len(floatPreds)):
		return constant.NewFCmp(floatPreds[pred], x, y), nil
	case pred >= 32 && pred-32 < uint64(len(intPreds)):
		return constant.NewICmp(intPreds[pred-32], x, y), nil
	}
	return nil, symbolErr(i, "unknown comparison predicate %d", pred)
}
