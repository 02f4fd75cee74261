// Command tripir evaluates, validates and checks trip constraint documents.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/tripir/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
