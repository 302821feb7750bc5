package rl

import (
	"time"

	"gonum.org/v1/gonum/mat"
)

// Mode selects the evaluation mode of a network forward pass. Normalization
// behavior is a first-class part of the forward contract, so the mode is an
// explicit argument rather than ambient network state.
type Mode int

const (
	// ModeTrain is the training-time forward mode.
	ModeTrain Mode = iota
	// ModeEval is the evaluation-time forward mode.
	ModeEval
)

// String returns the mode name.
func (m Mode) String() string {
	if m == ModeEval {
		return "eval"
	}
	return "train"
}

// Transition is one environment step: the five fields are stored and
// overwritten together as a unit.
type Transition struct {
	Obs     []float64
	Action  []float64
	Reward  float64
	NextObs []float64
	Done    bool
}

// Batch holds a fetched minibatch as parallel batch-major tensors. Row i of
// every field belongs to the same stored transition.
type Batch struct {
	// Obs is batch x obsDim.
	Obs *mat.Dense
	// Actions is batch x actionDim.
	Actions *mat.Dense
	// NextObs is batch x obsDim.
	NextObs *mat.Dense
	// Rewards holds one reward per row.
	Rewards []float64
	// ContMask holds the continuation mask per row: 1 for non-terminal
	// transitions, 0 for terminal ones. It multiplies the TD bootstrap term
	// directly, so no bootstrapping happens past an episode end.
	ContMask []float64
}

// Len returns the number of rows in the batch.
func (b Batch) Len() int {
	return len(b.Rewards)
}

// UpdateResult reports the outcome of one learning step.
type UpdateResult struct {
	// Updated is false when the step was skipped because the replay buffer
	// held fewer transitions than one minibatch.
	Updated bool `json:"updated"`

	// CriticLoss is the minibatch mean squared TD error.
	CriticLoss float64 `json:"criticLoss"`

	// ActorLoss is the negative minibatch mean critic value of the current
	// policy's actions. A minimizing optimizer drives it downward.
	ActorLoss float64 `json:"actorLoss"`
}

// AgentStats is a snapshot of an agent's training counters.
type AgentStats struct {
	ID             string    `json:"id"`
	Type           AgentType `json:"type"`
	GlobalStep     int64     `json:"globalStep"`
	Episodes       int64     `json:"episodes"`
	BufferFill     int       `json:"bufferFill"`
	UpdateCount    int64     `json:"updateCount"`
	LastCriticLoss float64   `json:"lastCriticLoss"`
	LastActorLoss  float64   `json:"lastActorLoss"`
	LastUpdate     time.Time `json:"lastUpdate"`
}

// TrainingState is the explicit state of a training run, threaded through the
// loop as a value instead of free-floating counters.
type TrainingState struct {
	RunID          string    `json:"runId"`
	Episode        int       `json:"episode"`
	GlobalStep     int64     `json:"globalStep"`
	EpisodeReward  float64   `json:"episodeReward"`
	RunningReward  float64   `json:"runningReward"`
	BestReward     float64   `json:"bestReward"`
	StartedAt      time.Time `json:"startedAt"`
	LastCheckpoint string    `json:"lastCheckpoint,omitempty"`
}
