// Command sierra compiles, validates, runs and analyzes Sierra programs.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/sierra/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
