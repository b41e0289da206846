package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/fractastical/icombinators/internal/graph"
	"github.com/fractastical/icombinators/internal/rules"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Rules     []string
	Catalog   string
	Wires     bool
	Templates bool
}

// ShowResult describes a molecule without reducing it.
type ShowResult struct {
	Molecule    string       `json:"molecule"`
	Origin      string       `json:"origin"`
	Nodes       int          `json:"nodes"`
	Edges       int          `json:"edges"`
	NextID      graph.NodeID `json:"next_id"`
	Fingerprint string       `json:"fingerprint"`
	Mol         string       `json:"mol"`
	Wires       string       `json:"wires,omitempty"`
	Rules       []string     `json:"rules"`
	Templates   []string     `json:"templates,omitempty"`
	Redexes     []string     `json:"redexes"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <mol-file|molecule>",
		Short: "Describe a molecule and list its redexes",
		Long: `Parse a molecule and print it in mol output format, with its size,
its fingerprint and every match of the configured rules.

With --wires the molecule is also printed in the wire input format, which
keeps FRIN and FROUT nodes and can be fed back to reduce. With --templates
the rewrite templates of the configured rules are listed in move notation.

Examples:
  icomb show omega
  icomb show ./molecules/k.mol --rules BETA,DIST
  icomb show dist_identity --wires --format json
  icomb show omega --templates --rules PRUNING`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Rules, "rules", nil, "rules to match (default: the molecule's rules)")
	cmd.Flags().StringVar(&opts.Catalog, "catalog", "", "directory of extra CUE molecules")
	cmd.Flags().BoolVar(&opts.Wires, "wires", false, "also print the wire input format")
	cmd.Flags().BoolVar(&opts.Templates, "templates", false, "also list the rules' rewrite templates")

	return cmd
}

func runShow(opts *ShowOptions, arg string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	in, code, err := loadInput(arg, opts.Catalog, opts.Rules)
	if err != nil {
		return formatter.Fail(ExitCommandError, code, "failed to load molecule", err)
	}

	reg, err := rules.NewRegistry(in.Rules...)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeRules, "invalid rule set", err)
	}

	g := in.Graph
	result := ShowResult{
		Molecule:    in.Name,
		Origin:      in.Origin,
		Nodes:       g.NodeCount(),
		Edges:       g.EdgeCount(),
		NextID:      g.NextID(),
		Fingerprint: g.Fingerprint(),
		Mol:         g.Serialize(),
		Rules:       reg.Names(),
		Redexes:     []string{},
	}
	if opts.Wires {
		result.Wires = g.FormatWires()
	}
	if opts.Templates {
		result.Templates = describeTemplates(reg.Rules())
	}
	for _, m := range reg.FindMatches(g) {
		result.Redexes = append(result.Redexes, m.String())
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	writeShowText(cmd.OutOrStdout(), result)
	return nil
}

func writeShowText(w io.Writer, r ShowResult) {
	fmt.Fprintf(w, "%s (%s): %d nodes, %d edges\n", r.Molecule, r.Origin, r.Nodes, r.Edges)
	fmt.Fprintf(w, "fingerprint %s\n", r.Fingerprint)
	fmt.Fprintf(w, "next id %d\n", r.NextID)

	fmt.Fprintln(w, "\nMol:")
	if r.Mol != "" {
		fmt.Fprintln(w, r.Mol)
	}
	if r.Wires != "" {
		fmt.Fprintln(w, "\nWires:")
		fmt.Fprintln(w, r.Wires)
	}

	if len(r.Templates) > 0 {
		fmt.Fprintln(w, "\nTemplates:")
		for _, t := range r.Templates {
			fmt.Fprintf(w, "  %s\n", t)
		}
	}

	if len(r.Redexes) == 0 {
		fmt.Fprintf(w, "\nNormal form for %v\n", r.Rules)
		return
	}
	fmt.Fprintf(w, "\nRedexes for %v:\n", r.Rules)
	for _, m := range r.Redexes {
		fmt.Fprintf(w, "  %s\n", m)
	}
}

// describeTemplates lists the templates of template-defined rules as
// "RULE/Case (K1+K2): move". Other rules, such as COMB, have none.
func describeTemplates(rs []rules.Rule) []string {
	var out []string
	for _, r := range rs {
		tr, ok := r.(*rules.TemplateRule)
		if !ok {
			continue
		}
		for _, t := range tr.Templates() {
			first, second := t.Kinds()
			out = append(out, fmt.Sprintf("%s/%s (%s+%s): %s", r.Name(), t.Case, first, second, t.Text))
		}
	}
	return out
}
