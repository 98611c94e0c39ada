// Package main provides the CLI entry point for conduit, the session
// orchestrator between chat surfaces and a stateful coding agent.
//
// Basic usage:
//
//	conduit prompt --model claude-sonnet-4 "explain this repo"
//	conduit serve --listen :8080
//	conduit skills list
//
// Configuration comes from a YAML file (--config) plus the
// ANTHROPIC_API_KEY environment variable.
package main

import (
	"fmt"
	"os"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := buildRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
