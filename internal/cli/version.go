package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Version is the icomb release, set with -ldflags "-X ...cli.Version=v1.2.3".
var Version = "dev"

// VersionInfo is the version command's JSON payload.
type VersionInfo struct {
	Version string `json:"version"`
	Go      string `json:"go"`
}

// NewVersionCommand creates the version command.
func NewVersionCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "version",
		Short:         "Print the icomb version",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := VersionInfo{Version: Version, Go: runtime.Version()}
			if rootOpts.Format == "json" {
				formatter := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
				return formatter.Success(info)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "icomb %s (%s)\n", info.Version, info.Go)
			return nil
		},
	}
}
