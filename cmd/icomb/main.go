// Command icomb reduces chemlambda molecules from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/fractastical/icombinators/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "icomb:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
