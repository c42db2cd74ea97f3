// Package main is the entry point for folio.
package main

import (
	"context"
	"fmt"
	"os"

	"folio/cmd"
)

// main is the entry point.
func main() {
	if err := cmd.Execute(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
