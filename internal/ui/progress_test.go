package ui

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llvmexec/internal/pipeline"
)

func TestApplyEventTracksFiles(t *testing.T) {
	events := make(chan pipeline.Event)
	m, ok := NewProgressModel("translate", []string{"a.ll", "b.ll"}, events).(*progressModel)
	require.True(t, ok)

	m.applyEvent(pipeline.Event{File: "a.ll", Stage: pipeline.StageTranslate, Status: pipeline.StatusWorking})
	assert.Equal(t, "translating", m.items[0].label())
	assert.Equal(t, "queued", m.items[1].label())

	m.applyEvent(pipeline.Event{File: "b.ll", Stage: pipeline.StageParse, Status: pipeline.StatusError, Err: errors.New("bad token")})
	assert.Equal(t, "error", m.items[1].label())
	assert.Equal(t, "bad token", m.items[1].err)

	m.applyEvent(pipeline.Event{File: "a.ll", Stage: pipeline.StageEmit, Status: pipeline.StatusDone, Elapsed: 1500 * time.Millisecond})
	m.applyEvent(pipeline.Event{File: "other.ll", Stage: pipeline.StageParse, Status: pipeline.StatusWorking})

	finished, failed := m.counts()
	assert.Equal(t, 2, finished)
	assert.Equal(t, 1, failed)

	m.applyEvent(pipeline.Event{Stage: pipeline.StageEmit, Status: pipeline.StatusError})
	view := m.View()
	assert.Contains(t, view, "failed: translate 2/2, 1 failed")
	assert.Contains(t, view, "a.ll")
	assert.Contains(t, view, "1.5s")
	assert.Contains(t, view, "bad token")
}

func TestWeightFollowsStage(t *testing.T) {
	it := fileItem{}
	assert.Zero(t, it.weight())
	it.state, it.stage = fileWorking, pipeline.StageTranslate
	assert.InDelta(t, 0.5, it.weight(), 1e-9)
	it.state = fileFailed
	assert.InDelta(t, 1.0, it.weight(), 1e-9)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short.ll", truncate("short.ll", 20))
	assert.Equal(t, "a-very...", truncate("a-very-long-name.ll", 9))
	assert.Equal(t, "ab", truncate("abcdef", 2))
	assert.Equal(t, "abcdef", truncate("abcdef", 0))
}
