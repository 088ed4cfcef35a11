package translate

import (
	"fmt"
	"math/big"
	"slices"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"llvmexec/internal/exec"
	"llvmexec/internal/layout"
)

var (
	addrShape = layout.Shape{Kind: layout.KindAddress}
	i64Shape  = layout.Shape{Kind: layout.KindI64, Bits: 64}
	i8Shape   = layout.Shape{Kind: layout.KindI8, Bits: 8}
)

// operandFunc translates an operand in the scope of a function or, for
// global initializers, the module.
type operandFunc func(v value.Value) (*exec.Expr, error)

func (mt *moduleTranslator) constOperand(v value.Value) (*exec.Expr, error) {
	c, ok := v.(constant.Constant)
	if !ok {
		return nil, unsupported("constant operand", "%s is not a constant", v.Ident())
	}
	return mt.constant(c)
}

// constant translates c. A nil expression without error stands for a value
// that occupies no storage (a zero-size array).
func (mt *moduleTranslator) constant(c constant.Constant) (*exec.Expr, error) {
	b := mt.b
	switch c := c.(type) {
	case *constant.Int:
		return mt.intLiteral(c)
	case *constant.Float:
		s, err := mt.layout.Resolve(c.Typ)
		if err != nil {
			return nil, err
		}
		f, _ := c.X.Float64()
		return b.FloatLiteral(s, f), nil
	case *constant.Null:
		return b.AddressLiteral(0), nil
	case *constant.Undef:
		s, err := mt.layout.Resolve(c.Typ)
		if err != nil {
			return nil, err
		}
		return b.Undef(s), nil
	case *constant.ZeroInitializer:
		return mt.zero(c.Typ)
	case *constant.CharArray:
		elems := make([]*exec.Expr, len(c.X))
		for i, ch := range c.X {
			elems[i] = b.IntLiteral(i8Shape, int64(ch))
		}
		return mt.arrayLiteral(c.Typ, elems)
	case *constant.Array:
		elems, err := mt.constants(c.Elems)
		if err != nil {
			return nil, err
		}
		return mt.arrayLiteral(c.Typ, elems)
	case *constant.Vector:
		elems, err := mt.constants(c.Elems)
		if err != nil {
			return nil, err
		}
		s, err := mt.layout.Resolve(c.Typ)
		if err != nil {
			return nil, err
		}
		target, err := mt.scratch(c.Typ)
		if err != nil {
			return nil, err
		}
		return b.VectorLiteral(s, target, elems), nil
	case *constant.Struct:
		return mt.structLiteral(c)
	case *constant.BlockAddress:
		return mt.blockAddress(c)
	case *ir.Global:
		lit, err := mt.globals.Address(c)
		if err != nil {
			return nil, err
		}
		return b.Literal(addrShape, lit), nil
	case *ir.Func:
		idx, err := mt.funcIndex(c)
		if err != nil {
			return nil, err
		}
		return b.FunctionLiteral(idx), nil
	case *ir.Alias:
		lit, ok := mt.globals.Alias(c)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnresolvedAlias, c.Ident())
		}
		return b.Literal(addrShape, lit), nil
	case *constant.Index:
		return mt.constant(c.Constant)
	case *constant.ExprGetElementPtr:
		return mt.gep(c.ElemType, c.Src, constIndices(c.Indices), mt.constOperand)
	case *constant.ExprICmp:
		return mt.compare(c.Pred.String(), false, c.X, c.Y, mt.constOperand)
	case *constant.ExprFCmp:
		return mt.compare(c.Pred.String(), true, c.X, c.Y, mt.constOperand)
	}
	if op, x, y, ok := constBinary(c); ok {
		return mt.binary(op, c.Type(), x, y, mt.constOperand)
	}
	if op, from, to, ok := constCast(c); ok {
		return mt.cast(op, from, to, mt.constOperand)
	}
	return nil, unsupported("constant", "%T (%s)", c, c.Ident())
}

func (mt *moduleTranslator) constants(cs []constant.Constant) ([]*exec.Expr, error) {
	out := make([]*exec.Expr, len(cs))
	for i, c := range cs {
		e, err := mt.constant(c)
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

func constIndices(cs []constant.Constant) []value.Value {
	out := make([]value.Value, len(cs))
	for i, c := range cs {
		out[i] = c
	}
	return out
}

// intLiteral emits integers up to 64 bits directly and wider ones as their
// little-endian two's complement bytes.
func (mt *moduleTranslator) intLiteral(c *constant.Int) (*exec.Expr, error) {
	s, err := mt.layout.Resolve(c.Typ)
	if err != nil {
		return nil, err
	}
	if c.Typ.BitSize <= 64 {
		switch {
		case c.X.IsInt64():
			return mt.b.IntLiteral(s, c.X.Int64()), nil
		case c.X.IsUint64():
			return mt.b.IntLiteral(s, int64(c.X.Uint64())), nil //nolint:gosec // bit pattern is preserved
		}
		return nil, fmt.Errorf("integer %s does not fit %s", c.X, c.Typ)
	}
	n := int((c.Typ.BitSize + 7) / 8)
	mask := new(big.Int).Lsh(big.NewInt(1), uint(n*8))
	mask.Sub(mask, big.NewInt(1))
	bits := new(big.Int).And(c.X, mask)
	le := bits.FillBytes(make([]byte, n))
	slices.Reverse(le)
	return mt.b.WideIntLiteral(s, le), nil
}

// scratch reserves activation-lifetime memory for a value of type t.
func (mt *moduleTranslator) scratch(t types.Type) (*exec.Expr, error) {
	size, align, err := mt.sizeAlign(t)
	if err != nil {
		return nil, err
	}
	return mt.b.FunctionAlloc(size, align), nil
}

// vectorTarget returns scratch storage when t is a vector and nil otherwise.
func (mt *moduleTranslator) vectorTarget(t types.Type) (*exec.Expr, error) {
	if _, ok := t.(*types.VectorType); !ok {
		return nil, nil
	}
	return mt.scratch(t)
}

func (mt *moduleTranslator) arrayLiteral(t types.Type, elems []*exec.Expr) (*exec.Expr, error) {
	at, ok := t.(*types.ArrayType)
	if !ok {
		return nil, fmt.Errorf("array constant of type %s", t)
	}
	s, err := mt.layout.Resolve(at)
	if err != nil {
		return nil, err
	}
	es, err := mt.layout.Resolve(at.ElemType)
	if err != nil {
		return nil, err
	}
	stride, err := mt.layout.SizeOf(at.ElemType)
	if err != nil {
		return nil, err
	}
	if stride == 0 || len(elems) == 0 {
		return nil, nil
	}
	target, err := mt.scratch(at)
	if err != nil {
		return nil, err
	}
	return mt.b.ArrayLiteral(s, target, elems, es, stride), nil
}

func (mt *moduleTranslator) structLiteral(c *constant.Struct) (*exec.Expr, error) {
	st := c.Typ
	s, err := mt.layout.Resolve(st)
	if err != nil {
		return nil, err
	}
	size, align, err := mt.sizeAlign(st)
	if err != nil {
		return nil, err
	}
	if size == 0 {
		return mt.b.AddressLiteral(exec.SentinelAddress), nil
	}
	var (
		elems   []*exec.Expr
		shapes  []layout.Shape
		offsets []int
	)
	for i, field := range c.Fields {
		e, err := mt.constant(field)
		if err != nil {
			return nil, err
		}
		if e == nil {
			continue
		}
		fs, err := mt.layout.Resolve(field.Type())
		if err != nil {
			return nil, err
		}
		off, err := mt.layout.FieldOffset(st, i)
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
		shapes = append(shapes, fs)
		offsets = append(offsets, off)
	}
	target := mt.b.FunctionAlloc(size, align)
	return mt.b.StructLiteral(s, target, size, st.Packed, elems, shapes, offsets), nil
}

// zero builds the all-zero value of t. Structs of size zero become the
// sentinel address; arrays of size zero have no value at all.
func (mt *moduleTranslator) zero(t types.Type) (*exec.Expr, error) {
	b := mt.b
	s, err := mt.layout.Resolve(t)
	if err != nil {
		return nil, err
	}
	switch t := t.(type) {
	case *types.VectorType:
		target, err := mt.scratch(t)
		if err != nil {
			return nil, err
		}
		return b.ZeroVector(s, target, s.Len), nil
	case *types.StructType, *types.ArrayType:
		size, align, err := mt.sizeAlign(t)
		if err != nil {
			return nil, err
		}
		if size == 0 {
			if _, isStruct := t.(*types.StructType); isStruct {
				return b.AddressLiteral(exec.SentinelAddress), nil
			}
			return nil, nil
		}
		return b.ZeroFill(s, b.FunctionAlloc(size, align), size), nil
	case *types.PointerType:
		return b.AddressLiteral(0), nil
	case *types.FloatType:
		return b.FloatLiteral(s, 0), nil
	case *types.IntType:
		if t.BitSize > 64 {
			return b.WideIntLiteral(s, make([]byte, (t.BitSize+7)/8)), nil
		}
		return b.IntLiteral(s, 0), nil
	default:
		return nil, unsupported("zero initializer", "of type %s", t)
	}
}

func (mt *moduleTranslator) blockAddress(c *constant.BlockAddress) (*exec.Expr, error) {
	f, ok := c.Func.(*ir.Func)
	if !ok {
		return nil, unsupported("block address", "of %s", c.Func.Ident())
	}
	id, err := mt.label(f, c.Block)
	if err != nil {
		return nil, err
	}
	return mt.b.BlockAddress(id), nil
}

// label resolves a block reference of f through the label map computed
// before any function was translated.
func (mt *moduleTranslator) label(f *ir.Func, v value.Value) (exec.BlockID, error) {
	blk, ok := v.(*ir.Block)
	if !ok {
		return exec.NoBlockID, &StructuralError{Function: f.Ident(), Block: v.Ident(), Detail: "reference is not a basic block"}
	}
	id, ok := mt.labels[f][blk]
	if !ok {
		return exec.NoBlockID, &StructuralError{Function: f.Ident(), Block: blk.Ident(), Detail: "block does not belong to the function"}
	}
	return id, nil
}
