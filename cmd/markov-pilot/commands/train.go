package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fdoperezi/Markov-Pilot/internal/application/trainer"
	domainrl "github.com/fdoperezi/Markov-Pilot/internal/domain/rl"
	"github.com/fdoperezi/Markov-Pilot/internal/infrastructure/env"
	rl "github.com/fdoperezi/Markov-Pilot/internal/infrastructure/rl"
)

// Flag variables for the train command
var (
	trainEpisodes      int
	trainMulti         bool
	trainActorLR       float64
	trainCriticLR      float64
	trainGamma         float64
	trainTau           float64
	trainBatchSize     int
	trainBufferSize    int
	trainLayer1        int
	trainLayer2        int
	trainNoiseSigma    float64
	trainSeed          int64
	trainCheckpointDir string
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train tracking agents on the built-in channel environment",
	Long: `Train a DDPG agent on the glide-path channel, or a pair of MADDPG agents
on the coupled pitch/roll channels with --multi.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		agents, jointEnv, err := buildRun()
		if err != nil {
			return err
		}

		t, err := trainer.New(jointEnv, agents, trainer.Config{
			Episodes:      trainEpisodes,
			CheckpointDir: trainCheckpointDir,
		})
		if err != nil {
			return fmt.Errorf("creating trainer: %w", err)
		}

		state, err := t.Run()
		if err != nil {
			return err
		}
		printRunSummary(state, agents)
		return nil
	},
}

func buildRun() ([]*rl.Agent, domainrl.MultiEnvironment, error) {
	base := domainrl.DefaultAgentConfig()
	base.ActorLR = trainActorLR
	base.CriticLR = trainCriticLR
	base.Gamma = trainGamma
	base.Tau = trainTau
	base.BatchSize = trainBatchSize
	base.BufferSize = trainBufferSize
	base.Layer1Size = trainLayer1
	base.Layer2Size = trainLayer2
	base.NoiseSigma = trainNoiseSigma
	base.Seed = trainSeed

	if !trainMulti {
		single := env.NewGlideslope(nil)
		cfg := base
		cfg.ObsDim = single.ObservationDim()
		cfg.ActionSpace = single.ActionSpace()
		agent, err := rl.NewAgent(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("creating agent: %w", err)
		}
		return []*rl.Agent{agent}, domainrl.AsMulti(single), nil
	}

	dual := env.NewDualChannel(nil)
	obsDims := dual.ObservationDims()
	spaces := dual.ActionSpaces()

	agents := make([]*rl.Agent, dual.NumAgents())
	for i := range agents {
		cfg := base
		cfg.ObsDim = obsDims[i]
		cfg.ActionSpace = spaces[i]
		for j := range obsDims {
			if j == i {
				continue
			}
			cfg.PeerObsDims = append(cfg.PeerObsDims, obsDims[j])
			cfg.PeerActionDims = append(cfg.PeerActionDims, spaces[j].Dim())
		}
		if cfg.Seed != 0 {
			cfg.Seed += int64(i)
		}
		agent, err := rl.NewAgent(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("creating agent %d: %w", i, err)
		}
		agents[i] = agent
	}
	return agents, dual, nil
}

func printRunSummary(state domainrl.TrainingState, agents []*rl.Agent) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "run\t%s\n", state.RunID)
	fmt.Fprintf(w, "episodes\t%d\n", state.Episode+1)
	fmt.Fprintf(w, "global steps\t%d\n", state.GlobalStep)
	fmt.Fprintf(w, "running reward\t%.3f\n", state.RunningReward)
	fmt.Fprintf(w, "best reward\t%.3f\n", state.BestReward)
	if state.LastCheckpoint != "" {
		fmt.Fprintf(w, "last checkpoint\t%s\n", state.LastCheckpoint)
	}
	for i, a := range agents {
		s := a.Stats()
		fmt.Fprintf(w, "agent %d\t%s updates=%d criticLoss=%.5f actorLoss=%.5f\n",
			i, s.Type, s.UpdateCount, s.LastCriticLoss, s.LastActorLoss)
	}
	w.Flush()
}

func init() {
	trainCmd.Flags().IntVar(&trainEpisodes, "episodes", 200, "number of training episodes")
	trainCmd.Flags().BoolVar(&trainMulti, "multi", false, "train two MADDPG agents on the dual-channel environment")
	trainCmd.Flags().Float64Var(&trainActorLR, "actor-lr", 0.000025, "actor learning rate")
	trainCmd.Flags().Float64Var(&trainCriticLR, "critic-lr", 0.00025, "critic learning rate")
	trainCmd.Flags().Float64Var(&trainGamma, "gamma", 0.99, "discount factor")
	trainCmd.Flags().Float64Var(&trainTau, "tau", 0.001, "target soft-update rate")
	trainCmd.Flags().IntVar(&trainBatchSize, "batch-size", 64, "learning minibatch size")
	trainCmd.Flags().IntVar(&trainBufferSize, "buffer-size", 100000, "replay buffer capacity")
	trainCmd.Flags().IntVar(&trainLayer1, "layer1", 400, "first hidden layer width")
	trainCmd.Flags().IntVar(&trainLayer2, "layer2", 300, "second hidden layer width")
	trainCmd.Flags().Float64Var(&trainNoiseSigma, "noise-sigma", 0.15, "exploration noise volatility")
	trainCmd.Flags().Int64Var(&trainSeed, "seed", 0, "random seed (0 selects a time-based seed)")
	trainCmd.Flags().StringVar(&trainCheckpointDir, "checkpoint-dir", "", "directory for checkpoint files (empty disables)")
}
