package lifetime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llvmexec/internal/exec"
	"llvmexec/internal/layout"
)

var (
	i1  = layout.Shape{Kind: layout.KindI1, Bits: 1}
	i32 = layout.Shape{Kind: layout.KindI32, Bits: 32}
)

// loopFunc builds
//
//	prologue: x = arg1
//	bb0: y = x + 1; br y == 0 then bb1 [p = x] else bb2 [p = y]
//	bb1: br bb2 [p = p + 1]
//	bb2: return p
func loopFunc(t *testing.T) *exec.Func {
	t.Helper()
	b := exec.NewBuilder()
	frame := exec.NewFrame()
	x, err := frame.Slot("%x", exec.SlotInt)
	require.NoError(t, err)
	y, err := frame.Slot("%y", exec.SlotInt)
	require.NoError(t, err)
	p, err := frame.Slot("%p", exec.SlotInt)
	require.NoError(t, err)

	prologue := []exec.Stmt{b.WriteReg(x, exec.SlotInt, b.Arg(1, i32))}
	sum := b.Arith(exec.ArithAdd, i32, b.ReadReg(x, i32), b.IntLiteral(i32, 1), nil)
	cond := b.Compare(exec.CmpEQ, i1, i32, b.ReadReg(y, i32), b.IntLiteral(i32, 0), nil)
	bb0 := b.Block(0, "entry", []exec.Stmt{b.WriteReg(y, exec.SlotInt, sum)},
		b.CondBr(cond,
			b.Edge(1, []exec.Stmt{b.WriteReg(p, exec.SlotInt, b.ReadReg(x, i32))}),
			b.Edge(2, []exec.Stmt{b.WriteReg(p, exec.SlotInt, b.ReadReg(y, i32))})))
	inc := b.Arith(exec.ArithAdd, i32, b.ReadReg(p, i32), b.IntLiteral(i32, 1), nil)
	bb1 := b.Block(1, "body", nil, b.Br(b.Edge(2, []exec.Stmt{b.WriteReg(p, exec.SlotInt, inc)})))
	bb2 := b.Block(2, "exit", nil, b.Return(b.ReadReg(p, i32), exec.SlotInt))

	f := b.Function("@loop", frame, prologue, []exec.Block{bb0, bb1, bb2}, nil, false)
	require.NoError(t, exec.ValidateFunc(f))
	return f
}

func TestAnalyzeDeadSets(t *testing.T) {
	f := loopFunc(t)
	info := Analyze(f)
	require.Len(t, info, 3)

	x, y, p := exec.RegID(2), exec.RegID(3), exec.RegID(4)

	assert.Empty(t, info[0].In, "prologue defines x before the entry block reads it")
	assert.Equal(t, []exec.RegID{x, y, p}, info[0].Def)
	assert.Equal(t, []exec.RegID{p}, info[0].Out)
	assert.Equal(t, []exec.RegID{x, y}, info[0].Dead)

	assert.Equal(t, []exec.RegID{p}, info[1].Use)
	assert.Empty(t, info[1].Dead, "p is still needed by the exit block")

	assert.Equal(t, []exec.RegID{p}, info[2].In)
	assert.Equal(t, []exec.RegID{p}, info[2].Dead)
}

func TestEdgeTemporariesAreLocalToTheEdge(t *testing.T) {
	b := exec.NewBuilder()
	frame := exec.NewFrame()
	a, _ := frame.Slot("%a", exec.SlotInt)
	c, _ := frame.Slot("%c", exec.SlotInt)
	tmp := frame.Temp(exec.SlotInt)

	swap := []exec.Stmt{
		b.WriteReg(tmp, exec.SlotInt, b.ReadReg(a, i32)),
		b.WriteReg(a, exec.SlotInt, b.ReadReg(c, i32)),
		b.WriteReg(c, exec.SlotInt, b.ReadReg(tmp, i32)),
	}
	bb0 := b.Block(0, "entry", []exec.Stmt{
		b.WriteReg(a, exec.SlotInt, b.IntLiteral(i32, 1)),
		b.WriteReg(c, exec.SlotInt, b.IntLiteral(i32, 2)),
	}, b.Br(b.Edge(1, nil)))
	bb1 := b.Block(1, "loop", nil, b.Br(b.Edge(1, swap)))
	f := b.Function("@swap", frame, nil, []exec.Block{bb0, bb1}, nil, false)

	info := Analyze(f)
	assert.NotContains(t, info[1].Use, tmp)
	assert.NotContains(t, info[1].In, tmp)
	assert.ElementsMatch(t, []exec.RegID{a, c}, info[1].In)
	assert.Equal(t, []exec.RegID{tmp}, info[1].Dead)
}

func TestAnnotateSkipsReservedRegisters(t *testing.T) {
	b := exec.NewBuilder()
	frame := exec.NewFrame()
	bb := b.Block(0, "entry", []exec.Stmt{
		b.WriteReg(exec.RegReturn, exec.SlotInt, b.IntLiteral(i32, 3)),
	}, b.Return(b.ReadReg(exec.RegReturn, i32), exec.SlotInt))
	f := b.Function("@r", frame, nil, []exec.Block{bb}, nil, false)

	Annotate(f)
	assert.Empty(t, f.Blocks[0].DeadAfter)
	assert.Nil(t, Analyze(nil))
}

// TestPhiWriteKillsOnlyItsEdge builds
//
//	entry: br head [x = 0]
//	head: n = x + 1; br latch
//	latch: c = n == 10; br c then head [x = n] else exit
//	exit: return x
func TestPhiWriteKillsOnlyItsEdge(t *testing.T) {
	b := exec.NewBuilder()
	frame := exec.NewFrame()
	x, err := frame.Slot("%x", exec.SlotInt)
	require.NoError(t, err)
	n, err := frame.Slot("%n", exec.SlotInt)
	require.NoError(t, err)
	c, err := frame.Slot("%c", exec.SlotInt)
	require.NoError(t, err)

	entry := b.Block(0, "entry", nil,
		b.Br(b.Edge(1, []exec.Stmt{b.WriteReg(x, exec.SlotInt, b.IntLiteral(i32, 0))})))
	inc := b.Arith(exec.ArithAdd, i32, b.ReadReg(x, i32), b.IntLiteral(i32, 1), nil)
	head := b.Block(1, "head", []exec.Stmt{b.WriteReg(n, exec.SlotInt, inc)}, b.Br(b.Edge(2, nil)))
	cmp := b.Compare(exec.CmpEQ, i1, i32, b.ReadReg(n, i32), b.IntLiteral(i32, 10), nil)
	latch := b.Block(2, "latch", []exec.Stmt{b.WriteReg(c, exec.SlotInt, cmp)},
		b.CondBr(b.ReadReg(c, i1),
			b.Edge(1, []exec.Stmt{b.WriteReg(x, exec.SlotInt, b.ReadReg(n, i32))}),
			b.Edge(3, nil)))
	exit := b.Block(3, "exit", nil, b.Return(b.ReadReg(x, i32), exec.SlotInt))

	f := b.Function("@count", frame, nil, []exec.Block{entry, head, latch, exit}, nil, false)
	require.NoError(t, exec.ValidateFunc(f))

	info := Analyze(f)
	require.Len(t, info, 4)
	assert.Empty(t, info[0].Dead, "x reaches the exit block through head and latch")
	assert.Equal(t, []exec.RegID{x}, info[0].Out)
	assert.ElementsMatch(t, []exec.RegID{x, n}, info[2].In)
	assert.Equal(t, []exec.RegID{x}, info[2].Out)
	assert.ElementsMatch(t, []exec.RegID{n, c}, info[2].Dead)
	assert.Equal(t, []exec.RegID{x}, info[3].Dead)
}
