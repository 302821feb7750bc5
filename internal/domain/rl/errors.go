package rl

import "errors"

var (
	// ErrInvalidConfig indicates an agent configuration that fails validation.
	ErrInvalidConfig = errors.New("invalid agent configuration")

	// ErrEmptyBuffer indicates a sample request against a replay buffer with no stored transitions.
	ErrEmptyBuffer = errors.New("replay buffer is empty")

	// ErrDimensionMismatch indicates an observation or action vector whose length
	// does not match the dimensionality fixed at construction.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrPeerMismatch indicates a peer list whose cardinality, order, or sizing
	// differs from the construction-time peer metadata.
	ErrPeerMismatch = errors.New("peer list does not match construction-time peers")

	// ErrUnknownAgentType indicates an agent-type tag outside the closed registry set.
	ErrUnknownAgentType = errors.New("unknown agent type")

	// ErrAgentTypeRegistered indicates a duplicate registration for an agent-type tag.
	ErrAgentTypeRegistered = errors.New("agent type already registered")

	// ErrCheckpointMismatch indicates a checkpoint blob whose architecture or
	// hyperparameters do not match the agent being restored.
	ErrCheckpointMismatch = errors.New("checkpoint does not match agent architecture")
)
