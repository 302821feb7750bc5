// Package commands provides CLI command implementations.
package commands

import (
	"github.com/spf13/cobra"
)

var version = "0.3.0"

// RootCmd is the markov-pilot root command.
var RootCmd = &cobra.Command{
	Use:   "markov-pilot",
	Short: "Markov Pilot - actor-critic flight-control training",
	Long: `Markov Pilot trains reinforcement-learning agents to track flight-control
setpoints such as glide-path and roll angle.

It provides:
  - Single-agent DDPG and multi-agent MADDPG training
  - Ornstein-Uhlenbeck exploration noise and replay memory
  - Target-network soft updates
  - Checkpointing with exact training resumption`,
	Version: version,
}

func init() {
	RootCmd.AddCommand(trainCmd)
	RootCmd.AddCommand(resumeCmd)
}
