package image

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"llvmexec/internal/exec"
	"llvmexec/internal/layout"
)

func sampleProgram(t *testing.T) *exec.Program {
	t.Helper()
	i32 := layout.Shape{Kind: layout.KindI32, Bits: 32}
	b := exec.NewBuilder()
	frame := exec.NewFrame()
	x, err := frame.Slot("%x", exec.SlotInt)
	require.NoError(t, err)
	sum := b.Arith(exec.ArithAdd, i32, b.ReadReg(x, i32), b.IntLiteral(i32, 2), nil)
	bb := b.Block(0, "entry", []exec.Stmt{b.WriteReg(x, exec.SlotInt, b.Arg(1, i32))},
		b.Return(sum, exec.SlotInt))
	f := b.Function("@inc", frame, nil, []exec.Block{bb}, nil, false)
	f.Index = 3
	return &exec.Program{
		Name:    "inc.ll",
		Funcs:   []*exec.Func{f},
		Globals: []exec.Global{{Handle: 0, Name: "@g", Size: 4, Align: 4}},
		Aliases: []exec.AliasBinding{{Name: "@a", Value: exec.Literal{Kind: exec.LitGlobal}}},
		Main:    exec.NoFuncIndex,
	}
}

func TestWriteRead(t *testing.T) {
	p := sampleProgram(t)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, p))

	got, h, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, h.Schema)
	assert.Equal(t, 1, h.Modules)

	require.Len(t, got.Funcs, 1)
	f := got.Funcs[0]
	assert.Equal(t, "@inc", f.Name)
	assert.Equal(t, exec.FuncIndex(3), f.Index)
	ret := f.Blocks[0].Term.Return.Value
	require.Equal(t, exec.ExprArith, ret.Kind)
	assert.Equal(t, int64(2), ret.Arith.Right.Literal.Int)
	assert.Equal(t, p.Globals, got.Globals)
	assert.Equal(t, p.Aliases, got.Aliases)
	assert.Equal(t, exec.NoFuncIndex, got.Main)
	assert.NoError(t, exec.Validate(got))
}

func TestReadRejectsForeignInput(t *testing.T) {
	_, _, err := Read(bytes.NewReader([]byte("not msgpack at all")))
	assert.ErrorIs(t, err, ErrNotImage)

	var buf bytes.Buffer
	require.NoError(t, msgpack.NewEncoder(&buf).Encode(&payload{Header: Header{Magic: magic, Schema: SchemaVersion + 1}}))
	_, h, err := Read(&buf)
	assert.ErrorIs(t, err, ErrSchema)
	assert.Equal(t, SchemaVersion+1, h.Schema)

	buf.Reset()
	require.NoError(t, msgpack.NewEncoder(&buf).Encode(&payload{Header: Header{Magic: "other"}}))
	_, _, err = Read(&buf)
	assert.ErrorIs(t, err, ErrNotImage)
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "inc.img")
	require.NoError(t, WriteFile(path, sampleProgram(t)))
	got, _, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "inc.ll", got.Name)

	matches, err := filepath.Glob(filepath.Join(filepath.Dir(path), ".image-*"))
	require.NoError(t, err)
	assert.Empty(t, matches, "temporary file is renamed away")

	assert.Error(t, Write(&bytes.Buffer{}, nil))
}
