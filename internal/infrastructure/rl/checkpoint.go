package rl

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	domainrl "github.com/fdoperezi/Markov-Pilot/internal/domain/rl"

	"github.com/google/uuid"
)

// checkpointBlob is the single opaque unit of persisted agent state: the
// construction configuration plus four network parameter sets and two
// optimizer states.
type checkpointBlob struct {
	ID           string                 `json:"id"`
	AgentID      string                 `json:"agentId"`
	AgentType    domainrl.AgentType     `json:"agentType"`
	SavedAt      time.Time              `json:"savedAt"`
	Config       domainrl.AgentConfig   `json:"config"`
	Actor        map[string][]float64   `json:"actor"`
	Critic       map[string][]float64   `json:"critic"`
	TargetActor  map[string][]float64   `json:"targetActor"`
	TargetCritic map[string][]float64   `json:"targetCritic"`
	ActorOpt     AdamState              `json:"actorOptimizer"`
	CriticOpt    AdamState              `json:"criticOptimizer"`
}

func paramMap(params []parameter) map[string][]float64 {
	m := make(map[string][]float64, len(params))
	for _, p := range params {
		m[p.Name] = append([]float64(nil), p.Data...)
	}
	return m
}

// loadParamMap copies saved tensors into params, rejecting any missing,
// extra, or mis-sized tensor before a single value is written.
func loadParamMap(params []parameter, saved map[string][]float64, network string) error {
	if len(saved) != len(params) {
		return fmt.Errorf("%w: %s has %d saved tensors, expected %d",
			domainrl.ErrCheckpointMismatch, network, len(saved), len(params))
	}
	for _, p := range params {
		data, ok := saved[p.Name]
		if !ok {
			return fmt.Errorf("%w: %s parameter %q missing from checkpoint",
				domainrl.ErrCheckpointMismatch, network, p.Name)
		}
		if len(data) != len(p.Data) {
			return fmt.Errorf("%w: %s parameter %q sized %d, expected %d",
				domainrl.ErrCheckpointMismatch, network, p.Name, len(data), len(p.Data))
		}
	}
	for _, p := range params {
		copy(p.Data, saved[p.Name])
	}
	return nil
}

// Save writes the agent's full trainable state as one checkpoint blob.
func (a *Agent) Save(w io.Writer) error {
	blob := checkpointBlob{
		ID:           uuid.New().String(),
		AgentID:      a.id,
		AgentType:    a.Type(),
		SavedAt:      time.Now().UTC(),
		Config:       a.cfg,
		Actor:        paramMap(a.actor.parameters()),
		Critic:       paramMap(a.critic.parameters()),
		TargetActor:  paramMap(a.targetActor.parameters()),
		TargetCritic: paramMap(a.targetCritic.parameters()),
		ActorOpt:     a.actorOpt.state(),
		CriticOpt:    a.criticOpt.state(),
	}

	enc := json.NewEncoder(w)
	if err := enc.Encode(blob); err != nil {
		return fmt.Errorf("encoding checkpoint: %w", err)
	}
	return nil
}

// SaveFile writes the checkpoint blob to a file.
func (a *Agent) SaveFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating checkpoint file: %w", err)
	}
	defer f.Close()

	if err := a.Save(f); err != nil {
		return err
	}
	return f.Sync()
}

// Restore rebuilds an agent from a checkpoint blob: the saved construction
// configuration is validated and handed to the registered constructor for
// the saved type tag, then all parameters and optimizer states are loaded.
// Any architecture or hyperparameter mismatch fails before the agent is
// returned; no partially loaded agent ever escapes.
func Restore(r io.Reader) (*Agent, error) {
	var blob checkpointBlob
	dec := json.NewDecoder(r)
	if err := dec.Decode(&blob); err != nil {
		return nil, fmt.Errorf("decoding checkpoint: %w", err)
	}

	if err := blob.Config.Validate(); err != nil {
		return nil, fmt.Errorf("checkpoint config: %w", err)
	}
	if blob.Config.Type() != blob.AgentType {
		return nil, fmt.Errorf("%w: config implies type %q, blob tagged %q",
			domainrl.ErrCheckpointMismatch, blob.Config.Type(), blob.AgentType)
	}

	built, err := domainrl.NewAgentOf(blob.AgentType, blob.Config)
	if err != nil {
		return nil, err
	}
	agent, ok := built.(*Agent)
	if !ok {
		return nil, fmt.Errorf("%w: constructor for %q returned %T",
			domainrl.ErrCheckpointMismatch, blob.AgentType, built)
	}

	if err := loadParamMap(agent.actor.parameters(), blob.Actor, "actor"); err != nil {
		return nil, err
	}
	if err := loadParamMap(agent.critic.parameters(), blob.Critic, "critic"); err != nil {
		return nil, err
	}
	if err := loadParamMap(agent.targetActor.parameters(), blob.TargetActor, "target actor"); err != nil {
		return nil, err
	}
	if err := loadParamMap(agent.targetCritic.parameters(), blob.TargetCritic, "target critic"); err != nil {
		return nil, err
	}
	if err := agent.actorOpt.loadState(blob.ActorOpt); err != nil {
		return nil, err
	}
	if err := agent.criticOpt.loadState(blob.CriticOpt); err != nil {
		return nil, err
	}

	if blob.AgentID != "" {
		agent.id = blob.AgentID
	}
	return agent, nil
}

// RestoreFile rebuilds an agent from a checkpoint file.
func RestoreFile(path string) (*Agent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening checkpoint file: %w", err)
	}
	defer f.Close()
	return Restore(f)
}
