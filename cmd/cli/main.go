// Package main is the entry point for the advisor CLI.
package main

import (
	"os"

	"invoice-advisor/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
