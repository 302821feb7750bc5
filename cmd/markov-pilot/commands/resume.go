package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fdoperezi/Markov-Pilot/internal/application/trainer"
	domainrl "github.com/fdoperezi/Markov-Pilot/internal/domain/rl"
	"github.com/fdoperezi/Markov-Pilot/internal/infrastructure/env"
	rl "github.com/fdoperezi/Markov-Pilot/internal/infrastructure/rl"
)

// Flag variables for the resume command
var (
	resumeCheckpoint    string
	resumeEpisodes      int
	resumeCheckpointDir string
)

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume single-agent training from a checkpoint",
	Long: `Rebuild a DDPG agent from a checkpoint blob, including optimizer state,
and continue training on the glide-path channel environment.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		agent, err := rl.RestoreFile(resumeCheckpoint)
		if err != nil {
			return fmt.Errorf("restoring agent: %w", err)
		}
		if agent.Type() != domainrl.AgentDDPG {
			return fmt.Errorf("checkpoint holds a %s agent; resume drives the single-channel environment", agent.Type())
		}

		t, err := trainer.New(domainrl.AsMulti(env.NewGlideslope(nil)), []*rl.Agent{agent}, trainer.Config{
			Episodes:      resumeEpisodes,
			CheckpointDir: resumeCheckpointDir,
		})
		if err != nil {
			return fmt.Errorf("creating trainer: %w", err)
		}

		state, err := t.Run()
		if err != nil {
			return err
		}
		printRunSummary(state, []*rl.Agent{agent})
		return nil
	},
}

func init() {
	resumeCmd.Flags().StringVar(&resumeCheckpoint, "checkpoint", "", "checkpoint file to restore from")
	resumeCmd.Flags().IntVar(&resumeEpisodes, "episodes", 200, "number of additional episodes")
	resumeCmd.Flags().StringVar(&resumeCheckpointDir, "checkpoint-dir", "", "directory for new checkpoint files (empty disables)")
	_ = resumeCmd.MarkFlagRequired("checkpoint")
}
