// Package rl provides domain types for the flight-control learning system.
package rl

import "fmt"

// AgentType is a stable tag identifying an agent implementation.
type AgentType string

const (
	// AgentDDPG is a single-agent deep deterministic policy gradient agent.
	AgentDDPG AgentType = "ddpg"
	// AgentMADDPG is a multi-agent DDPG agent with a centralized critic.
	AgentMADDPG AgentType = "maddpg"
)

// AgentConfig is the full construction configuration of an agent. It is
// stored verbatim in checkpoints so that a saved agent can be rebuilt exactly.
type AgentConfig struct {
	// ActorLR is the actor learning rate.
	ActorLR float64 `json:"actorLr"`

	// CriticLR is the critic learning rate.
	CriticLR float64 `json:"criticLr"`

	// Gamma is the discount factor.
	Gamma float64 `json:"gamma"`

	// Tau is the soft target-update rate.
	Tau float64 `json:"tau"`

	// ObsDim is the agent's own observation dimensionality.
	ObsDim int `json:"obsDim"`

	// ActionSpace holds the environment's native action bounds for this agent.
	ActionSpace BoxSpace `json:"actionSpace"`

	// PeerObsDims holds the observation dimensionalities of the co-trained
	// agents, own agent excluded, in the order the peer list is iterated with
	// the own index skipped. Empty for a single agent.
	PeerObsDims []int `json:"peerObsDims,omitempty"`

	// PeerActionDims holds the action dimensionalities of the co-trained
	// agents, own agent excluded, in the same order as PeerObsDims.
	PeerActionDims []int `json:"peerActionDims,omitempty"`

	// BufferSize is the replay buffer capacity.
	BufferSize int `json:"bufferSize"`

	// BatchSize is the learning minibatch size.
	BatchSize int `json:"batchSize"`

	// Layer1Size is the width of the first hidden layer.
	Layer1Size int `json:"layer1Size"`

	// Layer2Size is the width of the second hidden layer.
	Layer2Size int `json:"layer2Size"`

	// NoiseSigma is the exploration noise volatility.
	NoiseSigma float64 `json:"noiseSigma"`

	// NoiseTheta is the exploration noise mean-reversion rate.
	NoiseTheta float64 `json:"noiseTheta"`

	// NoiseDt is the exploration noise step size.
	NoiseDt float64 `json:"noiseDt"`

	// Seed seeds the agent's random source. Zero selects a time-based seed.
	Seed int64 `json:"seed,omitempty"`
}

// DefaultAgentConfig returns the default agent configuration. Observation
// dimension and action space must still be filled in from the environment.
func DefaultAgentConfig() AgentConfig {
	return AgentConfig{
		ActorLR:    0.000025,
		CriticLR:   0.00025,
		Gamma:      0.99,
		Tau:        0.001,
		BufferSize: 1000000,
		BatchSize:  64,
		Layer1Size: 400,
		Layer2Size: 300,
		NoiseSigma: 0.15,
		NoiseTheta: 0.2,
		NoiseDt:    0.2,
	}
}

// ActionDim returns the agent's own action dimensionality.
func (c AgentConfig) ActionDim() int {
	return c.ActionSpace.Dim()
}

// CriticStateDim returns the width of the critic's state input: the agent's
// own observation plus all peers' observations and actions.
func (c AgentConfig) CriticStateDim() int {
	dim := c.ObsDim
	for _, d := range c.PeerObsDims {
		dim += d
	}
	for _, d := range c.PeerActionDims {
		dim += d
	}
	return dim
}

// Type returns the agent-type tag implied by the configuration: MADDPG when
// peer metadata is present, DDPG otherwise.
func (c AgentConfig) Type() AgentType {
	if len(c.PeerObsDims) > 0 {
		return AgentMADDPG
	}
	return AgentDDPG
}

// Validate checks the configuration for construction-time errors.
func (c AgentConfig) Validate() error {
	if c.ObsDim <= 0 {
		return fmt.Errorf("%w: observation dimension must be positive, got %d", ErrInvalidConfig, c.ObsDim)
	}
	if err := c.ActionSpace.Validate(); err != nil {
		return err
	}
	if c.ActorLR <= 0 || c.CriticLR <= 0 {
		return fmt.Errorf("%w: learning rates must be positive", ErrInvalidConfig)
	}
	if c.Gamma < 0 || c.Gamma > 1 {
		return fmt.Errorf("%w: gamma must be in [0, 1], got %f", ErrInvalidConfig, c.Gamma)
	}
	if c.Tau <= 0 || c.Tau > 1 {
		return fmt.Errorf("%w: tau must be in (0, 1], got %f", ErrInvalidConfig, c.Tau)
	}
	if c.BufferSize <= 0 {
		return fmt.Errorf("%w: buffer size must be positive, got %d", ErrInvalidConfig, c.BufferSize)
	}
	if c.BatchSize <= 0 || c.BatchSize > c.BufferSize {
		return fmt.Errorf("%w: batch size must be in [1, buffer size], got %d", ErrInvalidConfig, c.BatchSize)
	}
	if c.Layer1Size <= 0 || c.Layer2Size <= 0 {
		return fmt.Errorf("%w: hidden layer sizes must be positive", ErrInvalidConfig)
	}
	if len(c.PeerObsDims) != len(c.PeerActionDims) {
		return fmt.Errorf("%w: peer observation and action dimension lists differ in length (%d vs %d)",
			ErrInvalidConfig, len(c.PeerObsDims), len(c.PeerActionDims))
	}
	for i := range c.PeerObsDims {
		if c.PeerObsDims[i] <= 0 || c.PeerActionDims[i] <= 0 {
			return fmt.Errorf("%w: peer %d has non-positive dimensions", ErrInvalidConfig, i)
		}
	}
	if c.NoiseSigma < 0 || c.NoiseTheta < 0 || c.NoiseDt <= 0 {
		return fmt.Errorf("%w: invalid noise parameters", ErrInvalidConfig)
	}
	return nil
}
