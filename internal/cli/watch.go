package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReduceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch <mol-file>",
		Short: "Reduce a mol file every time it changes",
		Long: `Reduce a mol file, then reduce it again on every save until interrupted.

Each reduction runs on a fresh engine. A file that does not parse is
reported and the watch continues.

Example:
  icomb watch ./molecules/k.mol --max-steps 50`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.SeedSet = cmd.Flags().Changed("seed")
			return runWatch(opts, args[0], cmd)
		},
	}

	addReduceFlags(cmd, opts)

	return cmd
}

func runWatch(opts *ReduceOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	logger := opts.Logger(cmd.ErrOrStderr())

	target, err := filepath.Abs(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid path", err)
	}
	if info, err := os.Stat(target); err != nil || info.IsDir() {
		return NewExitError(ExitCommandError, fmt.Sprintf("mol file not found: %s", path))
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to start watcher", err)
	}
	defer w.Close()
	// Editors often replace the file on save, so watch its directory.
	if err := w.Add(filepath.Dir(target)); err != nil {
		return WrapExitError(ExitCommandError, "failed to watch "+filepath.Dir(target), err)
	}

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	run := 0
	onChange := func() {
		run++
		reduceWatched(formatter, opts, target, run, logger)
	}

	onChange()
	logger.Info("watching", "path", target)
	return watchLoop(ctx, target, w.Events, w.Errors, onChange, logger)
}

// watchLoop calls onChange for every write or create of target until ctx
// is done or events is closed.
func watchLoop(ctx context.Context, target string, events <-chan fsnotify.Event, errs <-chan error, onChange func(), logger *slog.Logger) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				logger.Debug("mol file changed", "path", ev.Name, "op", ev.Op.String())
				onChange()
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.Warn("watcher error", "error", err)
		}
	}
}

// reduceWatched reduces the current content of target and prints the
// result. Errors are reported, not returned, so the watch goes on.
func reduceWatched(f *OutputFormatter, opts *ReduceOptions, target string, run int, logger *slog.Logger) {
	if opts.Format != "json" {
		fmt.Fprintf(f.Writer, "--- run %d: %s\n", run, filepath.Base(target))
	}

	in, code, err := loadInput(target, "", opts.Rules)
	if err != nil {
		_ = f.Error(code, "failed to load molecule: "+err.Error(), nil)
		return
	}

	result, err := reduce(in, opts, logger)
	if err != nil {
		_ = f.Error(ErrCodeRules, "failed to start engine: "+err.Error(), nil)
		return
	}

	if opts.Format == "json" {
		_ = f.Success(result)
		return
	}
	writeReduceText(f.Writer, result)
}
