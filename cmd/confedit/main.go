// Command confedit reads and edits configuration files from the shell.
package main

import (
	"context"
	"os"

	"github.com/fatih/color"
)

func main() {
	cmd := newRootCmd(os.Stdout, os.Stderr)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "confedit: %v\n", err)
		os.Exit(1)
	}
}
