package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fractastical/icombinators/internal/graph"
)

func TestCycleDetector_RecordAndSeen(t *testing.T) {
	cd := NewCycleDetector()
	assert.Equal(t, 0, cd.Len())

	_, ok := cd.Seen("fp-a")
	assert.False(t, ok, "first occurrence is not a cycle")

	cd.Record("fp-a", 3)
	step, ok := cd.Seen("fp-a")
	require.True(t, ok)
	assert.Equal(t, int64(3), step)

	cd.Record("fp-a", 9)
	step, _ = cd.Seen("fp-a")
	assert.Equal(t, int64(3), step, "first sighting wins")
	assert.Equal(t, 1, cd.Len())
}

func TestCycleDetector_Reset(t *testing.T) {
	cd := NewCycleDetector()
	cd.Record("fp-a", 1)
	cd.Record("fp-b", 2)
	assert.Equal(t, 2, cd.Len())

	cd.Reset()
	assert.Equal(t, 0, cd.Len())
	_, ok := cd.Seen("fp-a")
	assert.False(t, ok)
}

func TestCycleDetector_FingerprintsIgnoreIDOffsets(t *testing.T) {
	cd := NewCycleDetector()

	before := graph.MustParse("FRIN a\nArrow a b\nFROUT b")
	cd.Record(before.Fingerprint(), 0)

	// Same molecule rebuilt with fresh ids.
	after := graph.New()
	after.RemoveNode(after.AddNode(graph.KindTerminator))
	in := after.AddNode(graph.KindFreeInput)
	arrow := after.AddNode(graph.KindArrow)
	out := after.AddNode(graph.KindFreeOutput)
	require.NoError(t, after.Connect(graph.P(in, graph.LabelMiddle), graph.P(arrow, graph.LabelMiddle)))
	require.NoError(t, after.Connect(graph.P(arrow, graph.LabelMiddleOut), graph.P(out, graph.LabelMiddle)))

	_, ok := cd.Seen(after.Fingerprint())
	assert.True(t, ok)
}

func TestNewCycleError(t *testing.T) {
	err := NewCycleError("run-1", "abc", 4, 10)

	assert.Equal(t, ErrCodeCycleDetected, err.Code)
	assert.Equal(t, "run-1", err.RunID)
	assert.Equal(t, "6", err.Details["period"])
	assert.Equal(t, "abc", err.Details["fingerprint"])
	assert.Contains(t, err.Error(), "CYCLE_DETECTED")
	assert.Contains(t, err.Error(), "run=run-1")
}

func TestIsCycleError(t *testing.T) {
	assert.True(t, IsCycleError(NewCycleError("run-1", "abc", 0, 1)))
	assert.True(t, IsCycleError(fmt.Errorf("wrapped: %w", NewCycleError("run-1", "abc", 0, 1))))
	assert.False(t, IsCycleError(NewBudgetError("run-1", 5, 5)))
	assert.False(t, IsCycleError(nil))
	assert.False(t, IsCycleError(assert.AnError))
}
