// Command stately builds, tests and watches stores declared in blueprints.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/stately/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
