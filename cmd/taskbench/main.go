// Command taskbench serves and grades UI benchmark tasks.
package main

import (
	"os"

	"github.com/roach88/taskbench/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(cli.GetExitCode(err))
	}
}
