package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"shuttle/internal/mount"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			printError(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func printError(w io.Writer, err error) {
	fmt.Fprintln(w, err)
	if hint := mount.HintFor(err); hint != "" {
		fmt.Fprintf(w, "hint: %s\n", hint)
	}
}
