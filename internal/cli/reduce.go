package cli

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/fractastical/icombinators/internal/engine"
	"github.com/fractastical/icombinators/internal/graph"
	"github.com/fractastical/icombinators/internal/metrics"
)

// DefaultMaxSteps is the step budget of reduce and watch.
const DefaultMaxSteps = 1000

// ReduceOptions holds flags for the reduce command.
type ReduceOptions struct {
	*RootOptions
	MaxSteps     int
	Policy       string
	Seed         uint64
	SeedSet      bool
	Rules        []string
	CascadeLimit int
	Cycles       bool
	Metrics      bool
	Strict       bool
	Trace        bool
	Verify       bool
	Catalog      string

	// RunIDGenerator allows overriding the run id source (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDGenerator engine.RunIDGenerator
}

// ReduceResult is the outcome of one reduction.
type ReduceResult struct {
	Molecule string            `json:"molecule"`
	Origin   string            `json:"origin"`
	RunID    string            `json:"run_id"`
	Policy   string            `json:"policy"`
	Rules    []string          `json:"rules"`
	Steps    int               `json:"steps"`
	Halt     string            `json:"halt"`
	Mol      string            `json:"mol"`
	Stats    engine.Stats      `json:"stats"`
	Trace    []engine.Reaction `json:"trace,omitempty"`
	Metrics  string            `json:"metrics,omitempty"`
	Replayed *bool             `json:"replayed,omitempty"` // set by --verify
}

// NewReduceCommand creates the reduce command.
func NewReduceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReduceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "reduce <mol-file|molecule>",
		Short: "Reduce a molecule",
		Long: `Reduce a molecule until no rule matches or the step budget runs out.

The argument is a mol file when such a file exists, otherwise the name of
a catalogue molecule. The final graph is printed in mol output format.

Exit codes:
  0 - Reduction finished
  1 - --strict was given and the run did not reach normal form, or
      --verify was given and the reaction log did not replay
  2 - Command error (unreadable mol, unknown molecule, bad flags, etc.)

Examples:
  icomb reduce omega --max-steps 20
  icomb reduce ./molecules/k.mol --policy random --seed 7
  icomb reduce simple_application --trace --format json
  icomb reduce arrow_loop --cycles --rules COMB`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.SeedSet = cmd.Flags().Changed("seed")
			return runReduce(opts, args[0], cmd)
		},
	}

	addReduceFlags(cmd, opts)
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "exit 1 unless the run reaches normal form")
	cmd.Flags().BoolVar(&opts.Trace, "trace", false, "include the reaction log")
	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "print Prometheus metrics after the run")
	cmd.Flags().BoolVar(&opts.Verify, "verify", false, "replay the reaction log on a fresh copy and compare the final graphs")

	return cmd
}

// addReduceFlags registers the flags shared by reduce and watch.
func addReduceFlags(cmd *cobra.Command, opts *ReduceOptions) {
	cmd.Flags().IntVar(&opts.MaxSteps, "max-steps", DefaultMaxSteps, "step budget")
	cmd.Flags().StringVar(&opts.Policy, "policy", "deterministic", "selection policy (deterministic|random)")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "seed for the random policy")
	cmd.Flags().StringSliceVar(&opts.Rules, "rules", nil, "rules in evaluation order (default: the molecule's rules)")
	cmd.Flags().IntVar(&opts.CascadeLimit, "cascade-limit", engine.DefaultCascadeLimit, "COMB rewrites after each step (0 disables the cascade)")
	cmd.Flags().BoolVar(&opts.Cycles, "cycles", false, "halt when the graph repeats a state")
	cmd.Flags().StringVar(&opts.Catalog, "catalog", "", "directory of extra CUE molecules")
}

func runReduce(opts *ReduceOptions, arg string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	if opts.MaxSteps < 0 {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, "--max-steps must be non-negative", nil)
	}
	if _, err := engine.ParsePolicy(opts.Policy); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, "invalid --policy", err)
	}

	in, code, err := loadInput(arg, opts.Catalog, opts.Rules)
	if err != nil {
		return formatter.Fail(ExitCommandError, code, "failed to load molecule", err)
	}
	formatter.VerboseLog("Loaded %s %s: %d nodes, %d edges", in.Origin, in.Name, in.Graph.NodeCount(), in.Graph.EdgeCount())

	result, err := reduce(in, opts, opts.Logger(cmd.ErrOrStderr()))
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeRules, "failed to start engine", err)
	}

	if opts.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		writeReduceText(cmd.OutOrStdout(), result)
	}

	if result.Replayed != nil && !*result.Replayed {
		return NewExitError(ExitFailure, fmt.Sprintf("%s: reaction log does not replay to the same graph", ErrCodeReplay))
	}
	if opts.Strict && result.Halt != engine.HaltNormalForm.String() {
		return NewExitError(ExitFailure, fmt.Sprintf("%s: halted with %s after %d steps", ErrCodeNotNormal, result.Halt, result.Steps))
	}
	return nil
}

// reduce runs one engine over in.Graph with the options' policy, budget
// and rules. The graph is consumed.
func reduce(in *Input, opts *ReduceOptions, logger *slog.Logger) (*ReduceResult, error) {
	policy, err := engine.ParsePolicy(opts.Policy)
	if err != nil {
		return nil, err
	}

	engOpts := []engine.EngineOption{
		engine.WithRules(in.Rules...),
		engine.WithLogger(logger),
		engine.WithCascadeLimit(opts.CascadeLimit),
		engine.WithoutHistory(),
	}
	if opts.SeedSet {
		engOpts = append(engOpts, engine.WithSeed(opts.Seed))
	}
	if opts.Cycles {
		engOpts = append(engOpts, engine.WithCycleDetection())
	}
	if opts.RunIDGenerator != nil {
		engOpts = append(engOpts, engine.WithRunIDGenerator(opts.RunIDGenerator))
	}

	var reg *prometheus.Registry
	if opts.Metrics {
		reg = prometheus.NewRegistry()
		engOpts = append(engOpts, engine.WithMetrics(metrics.New(reg)))
	}

	// The engine consumes in.Graph, so keep an untouched copy to replay on.
	var initial *graph.Graph
	if opts.Verify {
		initial = in.Graph.Clone()
	}

	eng, err := engine.New(in.Graph, engOpts...)
	if err != nil {
		return nil, err
	}

	steps := eng.Run(opts.MaxSteps, policy)

	result := &ReduceResult{
		Molecule: in.Name,
		Origin:   in.Origin,
		RunID:    eng.RunID(),
		Policy:   policy.String(),
		Rules:    eng.Rules(),
		Steps:    steps,
		Halt:     eng.LastHalt().String(),
		Mol:      eng.Graph().Serialize(),
		Stats:    eng.Stats(),
	}
	if opts.Trace {
		result.Trace = eng.Reactions()
	}
	if initial != nil {
		ok, err := eng.Replays(initial,
			engine.WithRules(in.Rules...),
			engine.WithLogger(logger),
			engine.WithCascadeLimit(opts.CascadeLimit),
			engine.WithoutHistory(),
		)
		if err != nil {
			logger.Warn("replay diverged", "run", eng.RunID(), "error", err)
		}
		result.Replayed = &ok
	}
	if reg != nil {
		var buf bytes.Buffer
		if err := metrics.WriteText(&buf, reg); err != nil {
			return nil, fmt.Errorf("failed to gather metrics: %w", err)
		}
		result.Metrics = buf.String()
	}
	return result, nil
}

// writeReduceText prints the final mol, then a summary, then optional
// trace and metrics sections.
func writeReduceText(w io.Writer, r *ReduceResult) {
	if r.Mol != "" {
		fmt.Fprintln(w, r.Mol)
	}
	fmt.Fprintf(w, "\n%s: %s after %d steps (%d nodes, %d edges)\n",
		r.Molecule, strings.ReplaceAll(r.Halt, "_", " "), r.Steps, r.Stats.Nodes, r.Stats.Edges)

	for _, name := range r.Rules {
		if n := r.Stats.RuleCounts[name]; n > 0 {
			fmt.Fprintf(w, "  %-8s %d\n", name, n)
		}
	}
	if r.Stats.CascadeSteps > 0 {
		fmt.Fprintf(w, "  cascade  %d\n", r.Stats.CascadeSteps)
	}
	if r.Replayed != nil {
		if *r.Replayed {
			fmt.Fprintln(w, "  replay   ok")
		} else {
			fmt.Fprintln(w, "  replay   diverged")
		}
	}

	if len(r.Trace) > 0 {
		fmt.Fprintln(w, "\nTrace:")
		for _, reaction := range r.Trace {
			fmt.Fprintf(w, "  %4d %s\n", reaction.Step, reaction.Match)
		}
	}
	if r.Metrics != "" {
		fmt.Fprintln(w, "\nMetrics:")
		fmt.Fprint(w, r.Metrics)
	}
}
