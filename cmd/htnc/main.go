// Command htnc compiles HTN domains and plans root tasks.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/htn/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "htnc: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
