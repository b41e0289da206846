package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fractastical/icombinators/internal/harness"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	Catalog  string
	MaxSteps int
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check catalogue expectations",
		Long: `Reduce every catalogue molecule that declares an expect block and
compare the deterministic run with it.

Exit codes:
  0 - Every expectation holds
  1 - One or more molecules ended differently
  2 - Command error (catalogue does not compile, etc.)

Examples:
  icomb check
  icomb check --catalog ./molecules --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Catalog, "catalog", "", "directory of extra CUE molecules")
	cmd.Flags().IntVar(&opts.MaxSteps, "max-steps", harness.DefaultCheckSteps, "step budget per molecule")

	return cmd
}

func runCheck(opts *CheckOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	cat, err := loadCatalog(opts.Catalog)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeCatalog, "failed to load catalogue", err)
	}

	result := harness.CheckCatalog(cat, opts.MaxSteps, harness.WithLogger(opts.Logger(cmd.ErrOrStderr())))

	if opts.Format == "json" {
		response := CLIResponse{Status: "ok", Data: result}
		if result.Failed > 0 {
			response.Status = "error"
			response.Error = &CLIError{
				Code:    ErrCodeCheckFailed,
				Message: fmt.Sprintf("%d molecule(s) failed", result.Failed),
			}
		}
		if err := formatter.encode(response); err != nil {
			return err
		}
	} else {
		w := cmd.OutOrStdout()
		for _, f := range result.Failures {
			fmt.Fprintf(w, "✗ %s\n", f.Molecule)
			fmt.Fprintf(w, "  %s\n", f.Error)
		}
		fmt.Fprintf(w, "Check Summary: %d passed, %d failed, %d skipped, %d total\n",
			result.Passed, result.Failed, result.Skipped, result.Total)
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d molecule(s) failed", result.Failed))
	}
	return nil
}
