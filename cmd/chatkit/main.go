// Package main is the entry point for the chatkit playground CLI.
//
// Usage:
//
//	chatkit <command> [flags]
//
// Commands:
//
//	chat       - Run a chat session against the built-in scripted model
//	stream     - Run one streaming completion and print the usage report
//	version    - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/lumivox/chatkit/cmd/chatkit/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
