package bitcode

import (
	"errors"
	"math"
	"math/big"
	"testing"

	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, src string) (*Symbols, *Decoder) {
	t.Helper()
	st, err := ParseRecords("test.rec", src)
	require.NoError(t, err)
	syms := NewSymbols()
	d, err := st.Decode(syms)
	require.NoError(t, err)
	return syms, d
}

func constAt(t *testing.T, syms *Symbols, i int) *Constant {
	t.Helper()
	sym, ok := syms.At(i)
	require.True(t, ok)
	require.NotNil(t, sym.Const)
	return sym.Const
}

func TestDecodeSigned(t *testing.T) {
	assert.Equal(t, int64(42), DecodeSigned(84))
	assert.Equal(t, int64(-42), DecodeSigned(85))
	assert.Equal(t, int64(math.MinInt64), DecodeSigned(1))
	assert.Equal(t, uint64(85), EncodeSigned(-42))
	assert.Equal(t, uint64(1), EncodeSigned(math.MinInt64))
}

func TestIntegerRecords(t *testing.T) {
	syms, _ := decode(t, `
type 0 = i32
SETTYPE 0
INTEGER 84
INTEGER 85   # negative
NULL
`)
	require.Equal(t, 3, syms.Len())
	assert.Equal(t, int64(42), constAt(t, syms, 0).Int)
	assert.Equal(t, int64(-42), constAt(t, syms, 1).Int)

	null := constAt(t, syms, 2)
	assert.Equal(t, ConstInteger, null.Kind, "null of an integer type is the integer zero")
	assert.Zero(t, null.Int)

	c, err := syms.Materialize(1)
	require.NoError(t, err)
	ci, ok := c.(*constant.Int)
	require.True(t, ok)
	assert.Equal(t, int64(-42), ci.X.Int64())
	assert.Equal(t, types.I32, ci.Typ)
}

func TestNullByType(t *testing.T) {
	syms, _ := decode(t, `
type 0 = i8*
type 1 = {i32, i8}
SETTYPE 0
NULL
SETTYPE 1
NULL
`)
	assert.Equal(t, ConstNull, constAt(t, syms, 0).Kind)
	assert.Equal(t, ConstZero, constAt(t, syms, 1).Kind)

	c, err := syms.Materialize(0)
	require.NoError(t, err)
	assert.IsType(t, &constant.Null{}, c)
	c, err = syms.Materialize(1)
	require.NoError(t, err)
	assert.IsType(t, &constant.ZeroInitializer{}, c)
}

func TestRecordBeforeSetType(t *testing.T) {
	st, err := ParseRecords("test.rec", "INTEGER 2\n")
	require.NoError(t, err)
	_, err = st.Decode(NewSymbols())
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, RecInteger, de.Record)
}

func TestUnknownRecordBecomesPlaceholder(t *testing.T) {
	syms, d := decode(t, `
type 0 = i32
SETTYPE 0
99 1 2
INTEGER 2
`)
	assert.Equal(t, []RecordID{99}, d.Placeholders())
	assert.Equal(t, []int{0}, syms.Placeholders())
	require.Equal(t, 2, syms.Len())

	sym, _ := syms.At(0)
	assert.Equal(t, types.I32, sym.Type, "placeholder keeps the current type")

	_, err := syms.Materialize(0)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, 0, de.Symbol)

	c, err := syms.Materialize(1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), c.(*constant.Int).X.Int64())
}

func TestStringRecords(t *testing.T) {
	syms, _ := decode(t, `
type 0 = [3 x i8]
type 1 = [3 x i8]
SETTYPE 0
STRING c"A\5Cn"
SETTYPE 1
CSTRING c"hi"
`)
	assert.Equal(t, []byte{'A', '\\', 'n'}, constAt(t, syms, 0).Bytes)

	c, err := syms.Materialize(1)
	require.NoError(t, err)
	arr, ok := c.(*constant.CharArray)
	require.True(t, ok)
	assert.Equal(t, []byte("hi\x00"), arr.X)
}

func TestGEPOperandLayout(t *testing.T) {
	syms, _ := decode(t, `
type 0 = i32
type 1 = [4 x i32]
type 2 = %1*
type 3 = i32*
SETTYPE 2
NULL
SETTYPE 0
INTEGER 0
INTEGER 4
SETTYPE 3
CE_INBOUNDS_GEP 1 2 0 0 1 0 2
`)
	gep := constAt(t, syms, 3)
	assert.Equal(t, ConstGEP, gep.Kind)
	assert.True(t, gep.InBounds)
	assert.Equal(t, []int{0, 1, 2}, gep.Operands)
	assert.True(t, gep.ElemType.Equal(types.NewArray(4, types.I32)))

	c, err := syms.Materialize(3)
	require.NoError(t, err)
	expr, ok := c.(*constant.ExprGetElementPtr)
	require.True(t, ok)
	assert.True(t, expr.InBounds)
	assert.Len(t, expr.Indices, 2)
}

func TestExpressionRecords(t *testing.T) {
	syms, _ := decode(t, `
type 0 = i32
type 1 = i1
type 2 = i64
SETTYPE 0
INTEGER 4
INTEGER 6
CE_BINOP 12 0 1
SETTYPE 1
CE_CMP 0 0 1 40
SETTYPE 2
CE_CAST 2 0 0
`)
	c, err := syms.Materialize(2)
	require.NoError(t, err)
	assert.IsType(t, &constant.ExprXor{}, c)

	c, err = syms.Materialize(3)
	require.NoError(t, err)
	cmp, ok := c.(*constant.ExprICmp)
	require.True(t, ok)
	assert.Equal(t, enum.IPredSLT, cmp.Pred)

	c, err = syms.Materialize(4)
	require.NoError(t, err)
	assert.IsType(t, &constant.ExprSExt{}, c)
}

func TestWideAndFloatRecords(t *testing.T) {
	syms, _ := decode(t, `
type 0 = i128
type 1 = double
SETTYPE 0
WIDE_INTEGER 2 3
SETTYPE 1
FLOAT 0x4000000000000000
`)
	want := new(big.Int).Lsh(big.NewInt(1), 64)
	want.Neg(want).Add(want, big.NewInt(1))
	assert.Equal(t, 0, want.Cmp(constAt(t, syms, 0).Wide))

	c, err := syms.Materialize(1)
	require.NoError(t, err)
	f, _ := c.(*constant.Float).X.Float64()
	assert.Equal(t, 2.0, f)
}

func TestSelfReferenceIsRejected(t *testing.T) {
	syms, _ := decode(t, `
type 0 = [1 x i32]
SETTYPE 0
AGGREGATE 0
`)
	_, err := syms.Materialize(0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refers to itself")
}

func TestMaterializeSeededValues(t *testing.T) {
	syms := NewSymbols()
	idx := syms.AddValue(constant.NewInt(types.I8, 7))
	st, err := ParseRecords("test.rec", "type 0 = [2 x i8]\nSETTYPE 0\nAGGREGATE 0 0\n")
	require.NoError(t, err)
	_, err = st.Decode(syms)
	require.NoError(t, err)

	c, err := syms.Materialize(idx + 1)
	require.NoError(t, err)
	arr, ok := c.(*constant.Array)
	require.True(t, ok)
	assert.Len(t, arr.Elems, 2)

	again, err := syms.Materialize(idx + 1)
	require.NoError(t, err)
	assert.Same(t, arr, again)
}

func TestParseRecordsErrors(t *testing.T) {
	_, err := ParseRecords("bad.rec", "type 1 = i32\n")
	assert.ErrorContains(t, err, "out of order")

	_, err = ParseRecords("bad.rec", "type 0 = quux\n")
	assert.ErrorContains(t, err, "unknown type")

	_, err = ParseRecords("bad.rec", "NOT_A_RECORD 1\n")
	assert.ErrorContains(t, err, "unknown record")

	_, err = ParseRecords("bad.rec", "type 0 = [2 x i8\n")
	assert.Error(t, err)
}

func TestUnescapeCString(t *testing.T) {
	b, err := UnescapeCString(`a\\b\0A`)
	require.NoError(t, err)
	assert.Equal(t, []byte("a\\b\n"), b)

	_, err = UnescapeCString(`\5`)
	assert.Error(t, err)
	_, err = UnescapeCString(`\zz`)
	assert.Error(t, err)
}

func TestDecodeErrorText(t *testing.T) {
	err := error(recordErr(RecCast, "expected at least %d operands, got %d", 3, 1))
	assert.Equal(t, "CE_CAST: expected at least 3 operands, got 1", err.Error())
	var de *DecodeError
	assert.True(t, errors.As(err, &de))
	assert.Equal(t, "RECORD_99", RecordID(99).String())
}
