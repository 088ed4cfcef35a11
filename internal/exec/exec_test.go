package exec

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llvmexec/internal/layout"
)

var i32 = layout.Shape{Kind: layout.KindI32, Bits: 32}

func TestFrameReservesSlots(t *testing.T) {
	f := NewFrame()
	require.Equal(t, 2, f.Len())
	id, ok := f.Lookup(ReturnSlotName)
	require.True(t, ok)
	assert.Equal(t, RegReturn, id)
	id, ok = f.Lookup(StackSlotName)
	require.True(t, ok)
	assert.Equal(t, RegStack, id)
	assert.Equal(t, SlotObject, f.Kind(RegStack))
	assert.Equal(t, SlotIllegal, f.Kind(RegReturn))
}

func TestFrameKindIsFixedOnFirstUse(t *testing.T) {
	f := NewFrame()
	x, err := f.Slot("%x", SlotInt)
	require.NoError(t, err)
	again, err := f.Slot("%x", SlotInt)
	require.NoError(t, err)
	assert.Equal(t, x, again)

	_, err = f.Slot("%x", SlotDouble)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrKindMismatch))

	// an untyped slot takes the first concrete kind
	y, err := f.Slot("%y", SlotIllegal)
	require.NoError(t, err)
	require.NoError(t, f.SetKind(y, SlotLong))
	assert.Equal(t, SlotLong, f.Kind(y))
}

func TestValidateReportsBadTargetsAndRegisters(t *testing.T) {
	b := NewBuilder()
	frame := NewFrame()
	blocks := []Block{
		b.Block(0, "entry", []Stmt{b.WriteReg(7, SlotInt, b.IntLiteral(i32, 1))}, b.Br(b.Edge(3, nil))),
		{ID: 1},
	}
	fn := b.Function("@broken", frame, nil, blocks, nil, false)
	fn.Index = 1
	err := Validate(&Program{Funcs: []*Func{fn}, Main: NoFuncIndex})
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "write to missing register r7")
	assert.Contains(t, msg, "target bb3 does not exist")
	assert.Contains(t, msg, "bb1: unterminated block")
}

func TestValidateRejectsReservedIndexAndDuplicateCases(t *testing.T) {
	b := NewBuilder()
	frame := NewFrame()
	sw := b.Switch(b.IntLiteral(i32, 0),
		[]Literal{{Kind: LitInt, Int: 1}, {Kind: LitInt, Int: 1}},
		[]Edge{b.Edge(0, nil), b.Edge(0, nil)},
		b.Edge(0, nil))
	fn := b.Function("@f", frame, nil, []Block{b.Block(0, "entry", nil, sw)}, nil, false)
	fn.Index = 0
	err := Validate(&Program{Funcs: []*Func{fn}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reserved index 0")
	assert.Contains(t, err.Error(), "duplicate case 1")
}

func TestDumpShowsEdgesWithPhis(t *testing.T) {
	b := NewBuilder()
	frame := NewFrame()
	x, err := frame.Slot("%x", SlotInt)
	require.NoError(t, err)
	phi := b.WriteReg(x, SlotInt, b.IntLiteral(i32, 5))
	term := b.CondBr(b.IntLiteral(layout.Shape{Kind: layout.KindI1, Bits: 1}, 1),
		b.Edge(1, []Stmt{phi}), b.Edge(1, nil))
	blocks := []Block{
		b.Block(0, "entry", nil, term),
		b.Block(1, "exit", nil, b.Return(b.ReadReg(x, i32), SlotInt)),
	}
	fn := b.Function("@f", frame, nil, blocks, nil, false)
	fn.Index = 3
	p := &Program{Name: "m", Funcs: []*Func{fn}, Main: 3}
	require.NoError(t, Validate(p))

	var buf bytes.Buffer
	require.NoError(t, Dump(&buf, p))
	out := buf.String()
	assert.Contains(t, out, "main=f3")
	assert.Contains(t, out, "br i1 1 then bb1 [r2 = i32 5] else bb1")
	assert.Contains(t, out, "return r2")
}

func TestGlobalTableLimit(t *testing.T) {
	g := NewGlobalTable(1)
	h, err := g.Allocate("@a", 4, 4, false)
	require.NoError(t, err)
	assert.Equal(t, GlobalHandle(0), h)
	_, err = g.Allocate("@b", 4, 4, false)
	assert.True(t, errors.Is(err, ErrGlobalLimit))
	assert.Equal(t, 1, g.Len())
}

func TestParseOps(t *testing.T) {
	op, ok := ParseArithOp("fdiv")
	require.True(t, ok)
	assert.Equal(t, ArithFDiv, op)
	lop, ok := ParseLogicOp("ashr")
	require.True(t, ok)
	assert.Equal(t, LogicAShr, lop)
	p, ok := ParseIntPred("ugt")
	require.True(t, ok)
	assert.False(t, p.Float())
	fp, ok := ParseFloatPred("ugt")
	require.True(t, ok)
	assert.True(t, fp.Float())
	assert.Equal(t, "ugt", fp.String())
	c, ok := ParseCastOp("inttoptr")
	require.True(t, ok)
	assert.Equal(t, CastIntToPtr, c)
	_, ok = ParseCastOp("nope")
	assert.False(t, ok)
}
