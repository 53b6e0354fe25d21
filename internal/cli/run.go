package cli

import (
	"fmt"
	"io"
)

// Handler is the program entrypoint for CLI execution.
//
// The main package wires it in init so tests can call Run in-process while
// keeping the implementation out of this package.
var Handler func(args []string, stdout, stderr io.Writer) int

func Run(args []string, stdout, stderr io.Writer) int {
	if Handler == nil {
		fmt.Fprintln(stderr, "internal error: cli handler not configured")
		return 1
	}
	return Handler(args, stdout, stderr)
}
