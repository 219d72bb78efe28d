// Command neurasm lowers neuromorphic test cases into assembly configs and
// static data block payloads.
package main

import (
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/tebeka/atexit"

	"github.com/roach88/neurasm/internal/cli"
)

var (
	errorStyleBG = pterm.NewStyle(pterm.BgRed, pterm.FgWhite)
	errorColorFG = pterm.FgRed
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil {
		fmt.Fprint(os.Stderr, errorStyleBG.Sprint(" neurasm "), " ")
		fmt.Fprintln(os.Stderr, errorColorFG.Sprint(err.Error()))
	}
	atexit.Exit(cli.GetExitCode(err))
}
