// Package main is the entry point for the peopledesk service.
package main

import (
	"fmt"
	"os"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "peopledesk: %v\n", err)
		os.Exit(1)
	}
}
