// Package main provides the CLI entry point for markov-pilot.
package main

import (
	"fmt"
	"os"

	"github.com/fdoperezi/Markov-Pilot/cmd/markov-pilot/commands"
)

func main() {
	if err := commands.RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
