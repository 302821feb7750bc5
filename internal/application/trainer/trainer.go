// Package trainer runs the synchronous training loop coupling environments
// and agents.
package trainer

import (
	"fmt"
	"log"
	"path/filepath"
	"time"

	domainrl "github.com/fdoperezi/Markov-Pilot/internal/domain/rl"
	rl "github.com/fdoperezi/Markov-Pilot/internal/infrastructure/rl"

	"github.com/google/uuid"
)

// Config controls a training run.
type Config struct {
	// Episodes is the number of episodes to run. Training terminates only on
	// this count.
	Episodes int

	// CheckpointDir receives per-agent checkpoint files; empty disables
	// checkpointing.
	CheckpointDir string

	// CheckpointEvery saves checkpoints every N episodes. Zero defaults to 50.
	CheckpointEvery int

	// LogEvery logs progress every N episodes. Zero defaults to 10.
	LogEvery int
}

// Trainer couples a joint environment with its co-trained agents and drives
// the strictly sequential step/remember/learn loop. All agents' buffers are
// filled in lockstep at every environment step, so a joint update can sample
// the same indices from every buffer.
type Trainer struct {
	env    domainrl.MultiEnvironment
	agents []*rl.Agent
	cfg    Config
	runID  string
}

// New validates agent sizing against the environment's declared spaces and
// returns a trainer. A dimensionality mismatch is fatal here, before any
// training step runs.
func New(env domainrl.MultiEnvironment, agents []*rl.Agent, cfg Config) (*Trainer, error) {
	if env.NumAgents() != len(agents) {
		return nil, fmt.Errorf("%w: environment has %d agents, got %d",
			domainrl.ErrDimensionMismatch, env.NumAgents(), len(agents))
	}
	obsDims := env.ObservationDims()
	spaces := env.ActionSpaces()
	for i, a := range agents {
		c := a.Config()
		if c.ObsDim != obsDims[i] {
			return nil, fmt.Errorf("%w: agent %d observes %d dims, environment emits %d",
				domainrl.ErrDimensionMismatch, i, c.ObsDim, obsDims[i])
		}
		if c.ActionDim() != spaces[i].Dim() {
			return nil, fmt.Errorf("%w: agent %d acts in %d dims, environment expects %d",
				domainrl.ErrDimensionMismatch, i, c.ActionDim(), spaces[i].Dim())
		}
	}
	if cfg.CheckpointEvery <= 0 {
		cfg.CheckpointEvery = 50
	}
	if cfg.LogEvery <= 0 {
		cfg.LogEvery = 10
	}
	return &Trainer{
		env:    env,
		agents: agents,
		cfg:    cfg,
		runID:  uuid.New().String(),
	}, nil
}

// RunID returns the unique identifier of this training run.
func (t *Trainer) RunID() string {
	return t.runID
}

// Run executes the configured number of episodes and returns the final
// training state.
func (t *Trainer) Run() (domainrl.TrainingState, error) {
	state := domainrl.TrainingState{
		RunID:      t.runID,
		BestReward: -1e18,
		StartedAt:  time.Now(),
	}

	for ep := 0; ep < t.cfg.Episodes; ep++ {
		state.Episode = ep
		state.EpisodeReward = 0

		obs := t.env.Reset()
		for _, a := range t.agents {
			a.ResetNoise()
		}

		done := false
		for !done {
			actions := make([][]float64, len(t.agents))
			for i, a := range t.agents {
				action, err := a.ChooseAction(obs[i], true)
				if err != nil {
					return state, fmt.Errorf("episode %d: choosing action for agent %d: %w", ep, i, err)
				}
				actions[i] = action
			}

			nextObs, rewards, stepDone, _ := t.env.Step(actions)
			done = stepDone

			for i, a := range t.agents {
				err := a.Remember(domainrl.Transition{
					Obs:     obs[i],
					Action:  actions[i],
					Reward:  rewards[i],
					NextObs: nextObs[i],
					Done:    done,
				})
				if err != nil {
					return state, fmt.Errorf("episode %d: storing transition for agent %d: %w", ep, i, err)
				}
			}
			for i, a := range t.agents {
				if _, err := a.Learn(t.agents, i); err != nil {
					return state, fmt.Errorf("episode %d: updating agent %d: %w", ep, i, err)
				}
			}

			obs = nextObs
			state.GlobalStep++
			for _, r := range rewards {
				state.EpisodeReward += r
			}
		}

		if ep == 0 {
			state.RunningReward = state.EpisodeReward
		} else {
			state.RunningReward = 0.95*state.RunningReward + 0.05*state.EpisodeReward
		}
		if state.EpisodeReward > state.BestReward {
			state.BestReward = state.EpisodeReward
		}

		if (ep+1)%t.cfg.LogEvery == 0 {
			log.Printf("run %s episode %d: reward %.3f running %.3f",
				t.runID, ep, state.EpisodeReward, state.RunningReward)
		}
		if t.cfg.CheckpointDir != "" && (ep+1)%t.cfg.CheckpointEvery == 0 {
			path, err := t.checkpoint(ep)
			if err != nil {
				return state, err
			}
			state.LastCheckpoint = path
		}
	}

	if t.cfg.CheckpointDir != "" {
		path, err := t.checkpoint(t.cfg.Episodes - 1)
		if err != nil {
			return state, err
		}
		state.LastCheckpoint = path
	}
	return state, nil
}

// checkpoint saves every agent and returns the last written path.
func (t *Trainer) checkpoint(episode int) (string, error) {
	var last string
	for i, a := range t.agents {
		path := filepath.Join(t.cfg.CheckpointDir,
			fmt.Sprintf("%s_agent%d_ep%d.json", a.Type(), i, episode))
		if err := a.SaveFile(path); err != nil {
			return "", fmt.Errorf("checkpointing agent %d at episode %d: %w", i, episode, err)
		}
		last = path
	}
	return last, nil
}
