// Command tmuxcore is the CLI entrypoint: a thin cobra wrapper over the
// core's IPC client and the daemon it auto-starts (spec §6).
package main

import (
	"fmt"
	"os"

	"github.com/dcosson/tmuxcore/internal/cmd"
)

func main() {
	os.Exit(run())
}

func run() int {
	root := cmd.NewRootCmd()
	if err := root.Execute(); err != nil {
		if code, ok := cmd.ExitCode(err); ok {
			if code != 1 {
				fmt.Fprintln(os.Stderr, err)
			}
			return code
		}
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	return 0
}
