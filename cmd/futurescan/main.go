package main

import (
	"os"

	"github.com/wonny/futurescan/cmd/futurescan/commands"
)

// main is the entry point for the futurescan CLI
// ⭐ Unified CLI entry point: go run ./cmd/futurescan [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
