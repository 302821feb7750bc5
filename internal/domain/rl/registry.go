package rl

import (
	"fmt"
	"sort"
	"sync"
)

// ControlAgent is the outward surface of a trainable flight-control agent.
type ControlAgent interface {
	// ID returns the agent's unique identifier.
	ID() string

	// Type returns the agent's stable type tag.
	Type() AgentType

	// Config returns the construction configuration.
	Config() AgentConfig

	// ChooseAction maps an observation to an action in the environment's
	// native bounds, optionally perturbed by exploration noise.
	ChooseAction(obs []float64, explore bool) ([]float64, error)

	// Remember stores one transition in the agent's replay buffer.
	Remember(t Transition) error

	// Stats returns a snapshot of the agent's training counters.
	Stats() AgentStats
}

// Constructor builds an agent implementation from its construction config.
type Constructor func(cfg AgentConfig) (ControlAgent, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[AgentType]Constructor)
)

// knownAgentTypes is the closed set of restorable agent-type tags.
var knownAgentTypes = map[AgentType]bool{
	AgentDDPG:   true,
	AgentMADDPG: true,
}

// RegisterAgentType registers a constructor for a known agent-type tag.
// Tags outside the closed known set are rejected, as are duplicates.
func RegisterAgentType(t AgentType, c Constructor) error {
	if !knownAgentTypes[t] {
		return fmt.Errorf("%w: %q", ErrUnknownAgentType, t)
	}
	if c == nil {
		return fmt.Errorf("%w: nil constructor for %q", ErrInvalidConfig, t)
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[t]; exists {
		return fmt.Errorf("%w: %q", ErrAgentTypeRegistered, t)
	}
	registry[t] = c
	return nil
}

// MustRegisterAgentType registers a constructor and panics on failure. It is
// intended for package init of agent implementations.
func MustRegisterAgentType(t AgentType, c Constructor) {
	if err := RegisterAgentType(t, c); err != nil {
		panic(err)
	}
}

// NewAgentOf builds an agent of the given type tag from its configuration.
func NewAgentOf(t AgentType, cfg AgentConfig) (ControlAgent, error) {
	registryMu.RLock()
	c, ok := registry[t]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAgentType, t)
	}
	return c(cfg)
}

// RegisteredAgentTypes returns the registered type tags in sorted order.
func RegisteredAgentTypes() []AgentType {
	registryMu.RLock()
	defer registryMu.RUnlock()

	types := make([]AgentType, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
