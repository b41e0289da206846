package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fractastical/icombinators/internal/engine"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWatchLoopFiltersEvents(t *testing.T) {
	target := filepath.Join(t.TempDir(), "k.mol")
	events := make(chan fsnotify.Event, 5)
	errs := make(chan error, 1)

	events <- fsnotify.Event{Name: target, Op: fsnotify.Write}
	events <- fsnotify.Event{Name: target + ".swp", Op: fsnotify.Write}
	events <- fsnotify.Event{Name: target, Op: fsnotify.Chmod}
	events <- fsnotify.Event{Name: target, Op: fsnotify.Create}
	events <- fsnotify.Event{Name: target, Op: fsnotify.Remove}
	close(events)
	errs <- errors.New("queue overflow")

	calls := 0
	err := watchLoop(context.Background(), target, events, errs, func() { calls++ }, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "only writes and creates of the target count")
}

func TestWatchLoopStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := watchLoop(ctx, "/x.mol", make(chan fsnotify.Event), nil, func() { t.Fatal("no events expected") }, discardLogger())
	assert.NoError(t, err)
}

func TestReduceWatched(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "erase.mol", "FRIN a\nA a b c\nT c\n")

	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: buf}
	opts := &ReduceOptions{
		RootOptions:  &RootOptions{Format: "text"},
		MaxSteps:     10,
		Policy:       "deterministic",
		CascadeLimit: engine.DefaultCascadeLimit,
	}

	reduceWatched(f, opts, path, 1, discardLogger())
	assert.Contains(t, buf.String(), "--- run 1: erase.mol")
	assert.Contains(t, buf.String(), "normal form after 1 steps")

	buf.Reset()
	writeFile(t, dir, "erase.mol", "A a b\n")
	reduceWatched(f, opts, path, 2, discardLogger())
	assert.Contains(t, buf.String(), "--- run 2: erase.mol")
	assert.Contains(t, buf.String(), "Error [E201]: failed to load molecule: mol:1")
}

func TestWatchMissingFile(t *testing.T) {
	_, _, err := execute(t, "watch", filepath.Join(t.TempDir(), "absent.mol"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "mol file not found")
}

func TestWatchCommandStopsWithContext(t *testing.T) {
	path := writeFile(t, t.TempDir(), "id.mol", "L x x r\nFROUT r\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"watch", path})

	require.NoError(t, cmd.ExecuteContext(ctx))
	assert.Contains(t, out.String(), "--- run 1: id.mol")
	assert.Contains(t, out.String(), "L n0 n0 n1")
}
