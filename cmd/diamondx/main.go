// Command diamondx is the baseball simulator CLI.
package main

import (
	"fmt"
	"os"

	"github.com/triple-play-labs/diamondx/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
