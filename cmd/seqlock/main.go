// Command seqlock drives and inspects clocked keypad sequence locks.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/seqlock/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
