package main

import (
	"os"

	"github.com/wonny/contentpulse/cmd/strategy/commands"
)

// main is the entry point for the strategy engine CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/strategy [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
