// Package rl implements the actor-critic learning engine: replay buffer,
// exploration noise, DDPG/MADDPG networks and their update rules.
package rl

import (
	"fmt"
	"math/rand"
	"time"

	domainrl "github.com/fdoperezi/Markov-Pilot/internal/domain/rl"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"
)

func init() {
	domainrl.MustRegisterAgentType(domainrl.AgentDDPG, func(cfg domainrl.AgentConfig) (domainrl.ControlAgent, error) {
		if len(cfg.PeerObsDims) > 0 {
			return nil, fmt.Errorf("%w: ddpg config carries peer metadata", domainrl.ErrInvalidConfig)
		}
		return NewAgent(cfg)
	})
	domainrl.MustRegisterAgentType(domainrl.AgentMADDPG, func(cfg domainrl.AgentConfig) (domainrl.ControlAgent, error) {
		if len(cfg.PeerObsDims) == 0 {
			return nil, fmt.Errorf("%w: maddpg config carries no peer metadata", domainrl.ErrInvalidConfig)
		}
		return NewAgent(cfg)
	})
}

// Agent owns one actor, one critic, their target copies, an exploration
// noise process, and a replay buffer. A single code path covers both DDPG
// and MADDPG: the critic's state input is parameterized by the peers'
// contribution, and the empty-peer case degenerates exactly to single-agent
// DDPG.
type Agent struct {
	id  string
	cfg domainrl.AgentConfig

	scale []float64
	shift []float64

	actor        *ActorNetwork
	critic       *CriticNetwork
	targetActor  *ActorNetwork
	targetCritic *CriticNetwork

	actorOpt  *adam
	criticOpt *adam

	noise  *OUNoise
	memory *ReplayBuffer
	rng    *rand.Rand

	noiseSigma float64
	noiseTheta float64

	globalStep     int64
	episodeCount   int64
	updateCount    int64
	lastCriticLoss float64
	lastActorLoss  float64
	lastUpdate     time.Time
}

// NewAgent constructs an agent from its configuration, initializing targets
// as hard copies of the online networks.
func NewAgent(cfg domainrl.AgentConfig) (*Agent, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	actionDim := cfg.ActionDim()
	stateDim := cfg.CriticStateDim()

	a := &Agent{
		id:         uuid.New().String(),
		cfg:        cfg,
		scale:      cfg.ActionSpace.Scale(),
		shift:      cfg.ActionSpace.Shift(),
		rng:        rng,
		noiseSigma: cfg.NoiseSigma,
		noiseTheta: cfg.NoiseTheta,
	}

	a.actor = newActorNetwork(cfg.ObsDim, cfg.Layer1Size, cfg.Layer2Size, actionDim, rng)
	a.critic = newCriticNetwork(stateDim, cfg.Layer1Size, cfg.Layer2Size, actionDim, rng)
	a.targetActor = newActorNetwork(cfg.ObsDim, cfg.Layer1Size, cfg.Layer2Size, actionDim, rng)
	a.targetCritic = newCriticNetwork(stateDim, cfg.Layer1Size, cfg.Layer2Size, actionDim, rng)

	a.actorOpt = newAdam(cfg.ActorLR, a.actor.parameters())
	a.criticOpt = newAdam(cfg.CriticLR, a.critic.parameters())

	a.memory = NewReplayBuffer(cfg.BufferSize, cfg.ObsDim, actionDim, rng)
	a.noise = NewOUNoise(make([]float64, actionDim), cfg.NoiseSigma, cfg.NoiseTheta, cfg.NoiseDt, nil, rng)

	if err := a.syncTargets(1.0); err != nil {
		return nil, err
	}
	return a, nil
}

// ID returns the agent's unique identifier.
func (a *Agent) ID() string {
	return a.id
}

// Type returns the agent's stable type tag.
func (a *Agent) Type() domainrl.AgentType {
	return a.cfg.Type()
}

// Config returns the construction configuration.
func (a *Agent) Config() domainrl.AgentConfig {
	return a.cfg
}

// ChooseAction evaluates the policy on one observation and maps the bounded
// output into the environment's native action range. With explore set, OU
// noise is added before the affine rescale.
func (a *Agent) ChooseAction(obs []float64, explore bool) ([]float64, error) {
	if len(obs) != a.cfg.ObsDim {
		return nil, fmt.Errorf("%w: observation length %d, agent expects %d",
			domainrl.ErrDimensionMismatch, len(obs), a.cfg.ObsDim)
	}

	x := mat.NewDense(1, a.cfg.ObsDim, append([]float64(nil), obs...))
	out := a.actor.Forward(x, domainrl.ModeEval)

	action := append([]float64(nil), out.RawRowView(0)...)
	if explore {
		noise := a.noise.Sample()
		for i := range action {
			action[i] += noise[i]
		}
	}
	for i := range action {
		action[i] = action[i]*a.scale[i] + a.shift[i]
	}
	return action, nil
}

// Remember stores one transition in the agent's replay buffer.
func (a *Agent) Remember(t domainrl.Transition) error {
	if err := a.memory.StoreTransition(t); err != nil {
		return err
	}
	a.globalStep++
	if t.Done {
		a.episodeCount++
	}
	return nil
}

// Memory exposes the replay buffer for lockstep peer reads during a joint
// update.
func (a *Agent) Memory() *ReplayBuffer {
	return a.memory
}

// ResetNoise restores the exploration noise process to its initial value.
// Call at episode boundaries.
func (a *Agent) ResetNoise() {
	a.noise.Reset()
}

// ReduceNoise rebuilds the noise process with attenuated volatility and
// mean-reversion, for staged exploration decay between training phases.
func (a *Agent) ReduceNoise(sigmaFactor, thetaFactor float64) {
	a.noiseSigma *= sigmaFactor
	a.noiseTheta *= thetaFactor
	a.noise = NewOUNoise(make([]float64, a.cfg.ActionDim()), a.noiseSigma, a.noiseTheta, a.cfg.NoiseDt, nil, a.rng)
}

// Stats returns a snapshot of the agent's training counters.
func (a *Agent) Stats() domainrl.AgentStats {
	return domainrl.AgentStats{
		ID:             a.id,
		Type:           a.Type(),
		GlobalStep:     a.globalStep,
		Episodes:       a.episodeCount,
		BufferFill:     a.memory.Size(),
		UpdateCount:    a.updateCount,
		LastCriticLoss: a.lastCriticLoss,
		LastActorLoss:  a.lastActorLoss,
		LastUpdate:     a.lastUpdate,
	}
}

// checkPeers validates the caller-supplied peer list against the
// construction-time peer metadata: cardinality, own identity, and the
// observation/action sizing of every other agent in iteration order.
func (a *Agent) checkPeers(peers []*Agent, ownIdx int) error {
	if len(peers) != len(a.cfg.PeerObsDims)+1 {
		return fmt.Errorf("%w: got %d agents, sized for %d",
			domainrl.ErrPeerMismatch, len(peers), len(a.cfg.PeerObsDims)+1)
	}
	if ownIdx < 0 || ownIdx >= len(peers) {
		return fmt.Errorf("%w: own index %d out of range", domainrl.ErrPeerMismatch, ownIdx)
	}
	if peers[ownIdx] != a {
		return fmt.Errorf("%w: agent at own index %d is not the updating agent",
			domainrl.ErrPeerMismatch, ownIdx)
	}
	j := 0
	for i, p := range peers {
		if i == ownIdx {
			continue
		}
		if p.cfg.ObsDim != a.cfg.PeerObsDims[j] || p.cfg.ActionDim() != a.cfg.PeerActionDims[j] {
			return fmt.Errorf("%w: peer %d sized (%d obs, %d act), critic expects (%d, %d)",
				domainrl.ErrPeerMismatch, i, p.cfg.ObsDim, p.cfg.ActionDim(),
				a.cfg.PeerObsDims[j], a.cfg.PeerActionDims[j])
		}
		j++
	}
	return nil
}

// Learn performs one actor-critic update. peers lists every co-trained agent
// including this one at ownIdx; the peers' replay buffers are read at the
// same sampled indices, which line up because all buffers are filled in
// lockstep at every environment step. For a single agent, pass the agent
// itself as the only element.
//
// When the buffer holds fewer transitions than one minibatch the step is a
// no-op, not an error.
func (a *Agent) Learn(peers []*Agent, ownIdx int) (domainrl.UpdateResult, error) {
	if err := a.checkPeers(peers, ownIdx); err != nil {
		return domainrl.UpdateResult{}, err
	}
	if a.memory.Size() < a.cfg.BatchSize {
		return domainrl.UpdateResult{}, nil
	}

	idxs, err := a.memory.SampleIndices(a.cfg.BatchSize)
	if err != nil {
		return domainrl.UpdateResult{}, err
	}

	// One snapshot per agent at the shared indices.
	batches := make([]domainrl.Batch, len(peers))
	for i, p := range peers {
		batches[i] = p.memory.Fetch(idxs)
	}
	own := batches[ownIdx]
	batch := own.Len()

	// Joint state: every agent's observations concatenated in peer order.
	obsParts := make([]*mat.Dense, len(peers))
	nextObsParts := make([]*mat.Dense, len(peers))
	for i := range batches {
		obsParts[i] = batches[i].Obs
		nextObsParts[i] = batches[i].NextObs
	}
	state := hcat(obsParts...)
	newState := hcat(nextObsParts...)

	// Decentralized target-actor evaluation: each agent's target policy on
	// its own next observations.
	targetNext := make([]*mat.Dense, len(peers))
	for i, p := range peers {
		targetNext[i] = p.targetActor.Forward(batches[i].NextObs, domainrl.ModeEval)
	}

	// Critic inputs carry the other agents' actions appended to the joint
	// state; the own action is the critic's second argument. Both the
	// target-next and actual tensors exclude the own index in the same
	// iteration order.
	othersNext := make([]*mat.Dense, 0, len(peers)-1)
	othersActual := make([]*mat.Dense, 0, len(peers)-1)
	for i := range peers {
		if i == ownIdx {
			continue
		}
		othersNext = append(othersNext, targetNext[i])
		othersActual = append(othersActual, batches[i].Actions)
	}
	criticNextState := hcat(append([]*mat.Dense{newState}, othersNext...)...)
	criticState := hcat(append([]*mat.Dense{state}, othersActual...)...)

	// TD target from the target networks, bootstrapping zeroed at terminal
	// transitions by the continuation mask. Only the updating agent's reward
	// and mask participate.
	targetQ := a.targetCritic.Forward(criticNextState, targetNext[ownIdx], domainrl.ModeEval)
	y := make([]float64, batch)
	for i := 0; i < batch; i++ {
		y[i] = own.Rewards[i] + a.cfg.Gamma*targetQ.At(i, 0)*own.ContMask[i]
	}

	// Critic step: MSE between the TD target and the online critic's value
	// of the actions actually taken.
	q := a.critic.Forward(criticState, own.Actions, domainrl.ModeTrain)
	dq := mat.NewDense(batch, 1, nil)
	var criticLoss float64
	for i := 0; i < batch; i++ {
		diff := q.At(i, 0) - y[i]
		criticLoss += diff * diff
		dq.Set(i, 0, 2*diff/float64(batch))
	}
	criticLoss /= float64(batch)
	a.critic.Backward(dq)
	a.criticOpt.apply(a.critic.parameters())

	// Actor step: minimize the negative mean critic value of the current
	// policy's own actions, others' actual actions held fixed. The critic is
	// read in eval mode and its parameters are not stepped here.
	mu := a.actor.Forward(own.Obs, domainrl.ModeTrain)
	qMu := a.critic.Forward(criticState, mu, domainrl.ModeEval)
	var actorLoss float64
	dqMu := mat.NewDense(batch, 1, nil)
	for i := 0; i < batch; i++ {
		actorLoss -= qMu.At(i, 0)
		dqMu.Set(i, 0, -1/float64(batch))
	}
	actorLoss /= float64(batch)
	dMu := a.critic.Backward(dqMu)
	a.actor.Backward(dMu)
	a.actorOpt.apply(a.actor.parameters())

	if err := a.syncTargets(a.cfg.Tau); err != nil {
		return domainrl.UpdateResult{}, err
	}

	a.updateCount++
	a.lastCriticLoss = criticLoss
	a.lastActorLoss = actorLoss
	a.lastUpdate = time.Now()

	return domainrl.UpdateResult{
		Updated:    true,
		CriticLoss: criticLoss,
		ActorLoss:  actorLoss,
	}, nil
}

// syncTargets blends online parameters into the targets at rate tau,
// independently for the actor and critic pairs.
func (a *Agent) syncTargets(tau float64) error {
	if err := softUpdate(a.targetActor.parameters(), a.actor.parameters(), tau); err != nil {
		return err
	}
	return softUpdate(a.targetCritic.parameters(), a.critic.parameters(), tau)
}
