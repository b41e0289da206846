package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fractastical/icombinators/internal/catalog"
)

// CatalogOptions holds flags for the catalog command.
type CatalogOptions struct {
	*RootOptions
	Catalog string
}

// NewCatalogCommand creates the catalog command.
func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CatalogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List catalogue molecules",
		Long: `List the built-in molecules, plus those declared in --catalog.

A catalogue directory is a CUE package whose files declare entries under
the top-level "molecule" struct:

  molecule: erase_twice: {
      description: "two terminators eat an application"
      rules: ["PRUNING"]
      mol: """
          FRIN a
          FRIN b
          A a b c
          T c
          """
      expect: {steps: 1, halt: "normal_form"}
  }`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalog(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Catalog, "catalog", "", "directory of extra CUE molecules")

	return cmd
}

func runCatalog(opts *CatalogOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	cat, err := loadCatalog(opts.Catalog)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeCatalog, "failed to load catalogue", err)
	}
	molecules := cat.Molecules()

	if opts.Format == "json" {
		return formatter.Success(molecules)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tRULES\tEXPECT\tDESCRIPTION")
	for _, m := range molecules {
		ruleNames := "default"
		if len(m.Rules) > 0 {
			ruleNames = strings.Join(m.Rules, ",")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", m.Name, ruleNames, expectSummary(m.Expect), m.Description)
	}
	return w.Flush()
}

// expectSummary renders an expectation as "normal_form@2", "budget",
// "@3" or "-".
func expectSummary(e catalog.Expectation) string {
	var s string
	if e.Halt != "" {
		s = e.Halt
	}
	if e.Steps != nil {
		s += fmt.Sprintf("@%d", *e.Steps)
	}
	if s == "" {
		return "-"
	}
	return s
}
