package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	for _, s := range []string{"off", "error", "phase", "detail", "debug"} {
		l, err := ParseLevel(strings.ToUpper(s))
		require.NoError(t, err)
		assert.Equal(t, s, l.String())
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestShouldEmit(t *testing.T) {
	assert.True(t, LevelPhase.ShouldEmit(ScopeModule))
	assert.False(t, LevelPhase.ShouldEmit(ScopeFunction))
	assert.True(t, LevelDetail.ShouldEmit(ScopeFunction))
	assert.False(t, LevelDetail.ShouldEmit(ScopePass))
	assert.True(t, LevelDebug.ShouldEmit(ScopePass))
	assert.False(t, LevelOff.ShouldEmit(ScopeDriver))
}

func TestStreamTracerText(t *testing.T) {
	var buf bytes.Buffer
	tr, err := New(Config{Level: LevelDetail, Mode: ModeStream, Format: FormatText, Output: &buf})
	require.NoError(t, err)

	mod := Begin(tr, ScopeModule, "module:a.ll", 0)
	fn := Begin(tr, ScopeFunction, "@main", mod.ID())
	Begin(tr, ScopePass, "lifetime", fn.ID()).End("")
	fn.WithExtra("blocks", "3").End("")
	mod.End("ok")

	out := buf.String()
	assert.Contains(t, out, "→ module:a.ll")
	assert.Contains(t, out, "← @main {blocks=3}")
	assert.Contains(t, out, "(ok)")
	assert.NotContains(t, out, "lifetime", "pass spans are filtered at detail level")
}

func TestStreamTracerNDJSON(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDebug, FormatNDJSON)
	Point(tr, ScopePass, "phi", "2 edges", 7)

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "point", got["kind"])
	assert.Equal(t, "pass", got["scope"])
	assert.Equal(t, "phi", got["name"])
	assert.EqualValues(t, 7, got["parent_id"])
}

func TestRingTracerWraps(t *testing.T) {
	r := NewRingTracer(2, LevelDebug)
	for _, name := range []string{"a", "b", "c"} {
		Point(r, ScopeDriver, name, "", 0)
	}
	snap := r.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "b", snap[0].Name)
	assert.Equal(t, "c", snap[1].Name)

	var buf bytes.Buffer
	require.NoError(t, r.Dump(&buf, FormatText))
	assert.Equal(t, 2, strings.Count(buf.String(), "\n"))
}

func TestBothModeKeepsRing(t *testing.T) {
	var buf bytes.Buffer
	tr, err := New(Config{Level: LevelPhase, Mode: ModeBoth, Output: &buf, RingSize: 8})
	require.NoError(t, err)
	Point(tr, ScopeDriver, "start", "", 0)

	multi, ok := tr.(*MultiTracer)
	require.True(t, ok)
	require.NotNil(t, multi.Ring())
	assert.Len(t, multi.Ring().Snapshot(), 1)
	assert.NotEmpty(t, buf.String())
}

func TestOffIsNop(t *testing.T) {
	tr, err := New(Config{Level: LevelOff})
	require.NoError(t, err)
	assert.False(t, tr.Enabled())
	span := Begin(tr, ScopeDriver, "x", 0)
	assert.Zero(t, span.ID())
	assert.Zero(t, span.End(""))
}

func TestContextRoundTrip(t *testing.T) {
	assert.Equal(t, Nop, FromContext(context.Background()))
	r := NewRingTracer(4, LevelDebug)
	ctx := WithTracer(context.Background(), r)
	assert.Same(t, r, FromContext(ctx))

	span := Begin(r, ScopeModule, "m", 0)
	ctx = WithSpan(ctx, span)
	assert.Equal(t, span.ID(), CurrentSpan(ctx))
}
