package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	cmd, opts := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, formatError(err, opts.debug))
		}
		os.Exit(1)
	}
}
