package rl

import (
	"errors"
	"math/rand"
	"testing"

	domainrl "github.com/fdoperezi/Markov-Pilot/internal/domain/rl"
)

func testAgentConfig(seed int64) domainrl.AgentConfig {
	cfg := domainrl.DefaultAgentConfig()
	cfg.ObsDim = 3
	cfg.ActionSpace = domainrl.NewSymmetricBox(1, 1)
	cfg.BufferSize = 10
	cfg.BatchSize = 4
	cfg.Layer1Size = 8
	cfg.Layer2Size = 8
	cfg.Seed = seed
	return cfg
}

func snapshotParams(params []parameter) [][]float64 {
	out := make([][]float64, len(params))
	for i, p := range params {
		out[i] = append([]float64(nil), p.Data...)
	}
	return out
}

func paramsEqual(a [][]float64, params []parameter) bool {
	for i, p := range params {
		for j := range p.Data {
			if a[i][j] != p.Data[j] {
				return false
			}
		}
	}
	return true
}

func fillAgent(t *testing.T, a *Agent, transitions []domainrl.Transition) {
	t.Helper()
	for i, tr := range transitions {
		if err := a.Remember(tr); err != nil {
			t.Fatalf("failed to remember transition %d: %v", i, err)
		}
	}
}

func randomTransitions(n int, rng *rand.Rand) []domainrl.Transition {
	out := make([]domainrl.Transition, n)
	for i := range out {
		out[i] = domainrl.Transition{
			Obs:     []float64{rng.Float64(), rng.Float64(), rng.Float64()},
			Action:  []float64{rng.Float64()*2 - 1},
			Reward:  rng.Float64(),
			NextObs: []float64{rng.Float64(), rng.Float64(), rng.Float64()},
		}
	}
	return out
}

func TestAgent_LearnBelowBatchSizeIsNoOp(t *testing.T) {
	agent, err := NewAgent(testAgentConfig(31))
	if err != nil {
		t.Fatalf("failed to create agent: %v", err)
	}

	fillAgent(t, agent, randomTransitions(3, rand.New(rand.NewSource(32))))

	actorBefore := snapshotParams(agent.actor.parameters())
	criticBefore := snapshotParams(agent.critic.parameters())
	targetActorBefore := snapshotParams(agent.targetActor.parameters())
	targetCriticBefore := snapshotParams(agent.targetCritic.parameters())

	result, err := agent.Learn([]*Agent{agent}, 0)
	if err != nil {
		t.Fatalf("learn failed: %v", err)
	}
	if result.Updated {
		t.Fatal("expected no-op learn with 3 transitions and batch size 4")
	}

	if !paramsEqual(actorBefore, agent.actor.parameters()) ||
		!paramsEqual(criticBefore, agent.critic.parameters()) ||
		!paramsEqual(targetActorBefore, agent.targetActor.parameters()) ||
		!paramsEqual(targetCriticBefore, agent.targetCritic.parameters()) {
		t.Fatal("expected parameters bit-identical after skipped learn")
	}
}

func TestAgent_LearnUpdatesAllFourNetworks(t *testing.T) {
	agent, err := NewAgent(testAgentConfig(33))
	if err != nil {
		t.Fatalf("failed to create agent: %v", err)
	}

	fillAgent(t, agent, randomTransitions(8, rand.New(rand.NewSource(34))))

	actorBefore := snapshotParams(agent.actor.parameters())
	criticBefore := snapshotParams(agent.critic.parameters())
	targetActorBefore := snapshotParams(agent.targetActor.parameters())

	result, err := agent.Learn([]*Agent{agent}, 0)
	if err != nil {
		t.Fatalf("learn failed: %v", err)
	}
	if !result.Updated {
		t.Fatal("expected an update with a filled buffer")
	}

	if paramsEqual(actorBefore, agent.actor.parameters()) {
		t.Fatal("expected actor parameters to change")
	}
	if paramsEqual(criticBefore, agent.critic.parameters()) {
		t.Fatal("expected critic parameters to change")
	}
	if paramsEqual(targetActorBefore, agent.targetActor.parameters()) {
		t.Fatal("expected target actor to move after soft update")
	}
}

func TestAgent_TargetsStartIdenticalToOnline(t *testing.T) {
	agent, err := NewAgent(testAgentConfig(35))
	if err != nil {
		t.Fatalf("failed to create agent: %v", err)
	}

	if !paramsEqual(snapshotParams(agent.actor.parameters()), agent.targetActor.parameters()) {
		t.Fatal("expected target actor to equal online actor at construction")
	}
	if !paramsEqual(snapshotParams(agent.critic.parameters()), agent.targetCritic.parameters()) {
		t.Fatal("expected target critic to equal online critic at construction")
	}
}

func TestAgent_ChooseActionScalesIntoBounds(t *testing.T) {
	cfg := testAgentConfig(36)
	cfg.ActionSpace = domainrl.BoxSpace{Low: []float64{2}, High: []float64{6}}
	agent, err := NewAgent(cfg)
	if err != nil {
		t.Fatalf("failed to create agent: %v", err)
	}

	action, err := agent.ChooseAction([]float64{0.1, -0.2, 0.3}, false)
	if err != nil {
		t.Fatalf("failed to choose action: %v", err)
	}
	// tanh output in [-1, 1] maps affinely into [2, 6].
	if action[0] < 2 || action[0] > 6 {
		t.Fatalf("action %f outside environment bounds [2, 6]", action[0])
	}
}

func TestAgent_ChooseActionRejectsWrongObservationLength(t *testing.T) {
	agent, err := NewAgent(testAgentConfig(37))
	if err != nil {
		t.Fatalf("failed to create agent: %v", err)
	}

	if _, err := agent.ChooseAction([]float64{1, 2}, false); !errors.Is(err, domainrl.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestAgent_LearnRejectsMalformedPeerList(t *testing.T) {
	agent, err := NewAgent(testAgentConfig(38))
	if err != nil {
		t.Fatalf("failed to create agent: %v", err)
	}
	other, err := NewAgent(testAgentConfig(39))
	if err != nil {
		t.Fatalf("failed to create peer: %v", err)
	}

	if _, err := agent.Learn([]*Agent{agent, other}, 0); !errors.Is(err, domainrl.ErrPeerMismatch) {
		t.Fatalf("expected ErrPeerMismatch for extra peer, got %v", err)
	}
	if _, err := agent.Learn([]*Agent{other}, 0); !errors.Is(err, domainrl.ErrPeerMismatch) {
		t.Fatalf("expected ErrPeerMismatch for wrong own identity, got %v", err)
	}
	if _, err := agent.Learn([]*Agent{agent}, 2); !errors.Is(err, domainrl.ErrPeerMismatch) {
		t.Fatalf("expected ErrPeerMismatch for out-of-range own index, got %v", err)
	}
}

func multiAgentPair(t *testing.T, seedA, seedB int64) (*Agent, *Agent) {
	t.Helper()

	cfgA := testAgentConfig(seedA)
	cfgA.PeerObsDims = []int{3}
	cfgA.PeerActionDims = []int{1}

	cfgB := testAgentConfig(seedB)
	cfgB.PeerObsDims = []int{3}
	cfgB.PeerActionDims = []int{1}

	a, err := NewAgent(cfgA)
	if err != nil {
		t.Fatalf("failed to create agent A: %v", err)
	}
	b, err := NewAgent(cfgB)
	if err != nil {
		t.Fatalf("failed to create agent B: %v", err)
	}
	return a, b
}

// jointStep stores one lockstep transition pair into both agents' buffers.
func jointStep(t *testing.T, a, b *Agent, i int, rewardB float64, doneB bool, actionB float64) {
	t.Helper()
	f := float64(i)
	if err := a.Remember(domainrl.Transition{
		Obs:     []float64{f, 0, 0},
		Action:  []float64{0.1},
		Reward:  1.0,
		NextObs: []float64{f + 1, 0, 0},
	}); err != nil {
		t.Fatalf("agent A remember %d: %v", i, err)
	}
	if err := b.Remember(domainrl.Transition{
		Obs:     []float64{-f, 0, 0},
		Action:  []float64{actionB},
		Reward:  rewardB,
		NextObs: []float64{-f - 1, 0, 0},
		Done:    doneB,
	}); err != nil {
		t.Fatalf("agent B remember %d: %v", i, err)
	}
}

func TestAgent_MultiAgentLearnIgnoresPeerRewardsAndMasks(t *testing.T) {
	// Two runs identical except for B's rewards and terminal flags. A's
	// update must not see either, so A's parameters must come out identical.
	run := func(rewardB float64, doneB bool) ([][]float64, [][]float64) {
		a, b := multiAgentPair(t, 41, 43)
		for i := 0; i < 5; i++ {
			jointStep(t, a, b, i, rewardB, doneB, 0.2)
		}
		if _, err := a.Learn([]*Agent{a, b}, 0); err != nil {
			t.Fatalf("learn failed: %v", err)
		}
		return snapshotParams(a.actor.parameters()), snapshotParams(a.critic.parameters())
	}

	actor1, critic1 := run(0.0, false)
	actor2, critic2 := run(1000.0, true)

	a, b := multiAgentPair(t, 41, 43)
	for i := 0; i < 5; i++ {
		jointStep(t, a, b, i, 0.0, false, 0.2)
	}
	if _, err := a.Learn([]*Agent{a, b}, 0); err != nil {
		t.Fatalf("learn failed: %v", err)
	}
	if !paramsEqual(actor1, a.actor.parameters()) || !paramsEqual(critic1, a.critic.parameters()) {
		t.Fatal("control run not reproducible; seeded agents must be deterministic")
	}

	for k := range actor1 {
		for j := range actor1[k] {
			if actor1[k][j] != actor2[k][j] {
				t.Fatal("agent A's actor update depended on peer rewards or masks")
			}
		}
	}
	for k := range critic1 {
		for j := range critic1[k] {
			if critic1[k][j] != critic2[k][j] {
				t.Fatal("agent A's critic update depended on peer rewards or masks")
			}
		}
	}
}

func TestAgent_MultiAgentLearnUsesPeerActions(t *testing.T) {
	// B's actions feed A's centralized critic, so changing them must change
	// A's critic update.
	run := func(actionB float64) [][]float64 {
		a, b := multiAgentPair(t, 45, 47)
		for i := 0; i < 5; i++ {
			jointStep(t, a, b, i, 0.0, false, actionB)
		}
		if _, err := a.Learn([]*Agent{a, b}, 0); err != nil {
			t.Fatalf("learn failed: %v", err)
		}
		return snapshotParams(a.critic.parameters())
	}

	critic1 := run(0.2)
	critic2 := run(-0.9)

	same := true
	for k := range critic1 {
		for j := range critic1[k] {
			if critic1[k][j] != critic2[k][j] {
				same = false
			}
		}
	}
	if same {
		t.Fatal("agent A's critic update ignored peer actions")
	}
}

func TestAgent_MultiAgentLearnRejectsMisSizedPeer(t *testing.T) {
	a, _ := multiAgentPair(t, 49, 51)

	wrong := testAgentConfig(53)
	wrong.ObsDim = 4 // A's critic was sized for a 3-dim peer
	wrong.PeerObsDims = []int{3}
	wrong.PeerActionDims = []int{1}
	b, err := NewAgent(wrong)
	if err != nil {
		t.Fatalf("failed to create peer: %v", err)
	}

	if _, err := a.Learn([]*Agent{a, b}, 0); !errors.Is(err, domainrl.ErrPeerMismatch) {
		t.Fatalf("expected ErrPeerMismatch for mis-sized peer, got %v", err)
	}
}

func TestAgent_ActorLossDecreasesOnPredictableRewards(t *testing.T) {
	// Reward depends only on the action, gamma is zero: the critic reduces
	// to a regression onto r(a) = 1 - a^2 and the actor must climb it, so
	// the actor loss (negative critic value) trends down.
	cfg := testAgentConfig(55)
	cfg.Gamma = 0
	cfg.BufferSize = 256
	cfg.BatchSize = 32
	cfg.Layer1Size = 16
	cfg.Layer2Size = 16
	cfg.ActorLR = 0.001
	cfg.CriticLR = 0.001

	agent, err := NewAgent(cfg)
	if err != nil {
		t.Fatalf("failed to create agent: %v", err)
	}

	rng := rand.New(rand.NewSource(56))
	for i := 0; i < 256; i++ {
		action := rng.Float64()*2 - 1
		err := agent.Remember(domainrl.Transition{
			Obs:     []float64{rng.Float64(), rng.Float64(), rng.Float64()},
			Action:  []float64{action},
			Reward:  1 - action*action,
			NextObs: []float64{rng.Float64(), rng.Float64(), rng.Float64()},
		})
		if err != nil {
			t.Fatalf("failed to remember transition %d: %v", i, err)
		}
	}

	const updates = 500
	losses := make([]float64, 0, updates)
	for i := 0; i < updates; i++ {
		result, err := agent.Learn([]*Agent{agent}, 0)
		if err != nil {
			t.Fatalf("learn %d failed: %v", i, err)
		}
		if !result.Updated {
			t.Fatalf("learn %d unexpectedly skipped", i)
		}
		losses = append(losses, result.ActorLoss)
	}

	var early, late float64
	for i := 0; i < 50; i++ {
		early += losses[i]
		late += losses[updates-1-i]
	}
	if late >= early {
		t.Fatalf("actor loss did not decrease: early sum %f, late sum %f", early, late)
	}
}

func TestAgent_StatsTrackTrainingCounters(t *testing.T) {
	agent, err := NewAgent(testAgentConfig(57))
	if err != nil {
		t.Fatalf("failed to create agent: %v", err)
	}

	transitions := randomTransitions(6, rand.New(rand.NewSource(58)))
	transitions[5].Done = true
	fillAgent(t, agent, transitions)

	if _, err := agent.Learn([]*Agent{agent}, 0); err != nil {
		t.Fatalf("learn failed: %v", err)
	}

	stats := agent.Stats()
	if stats.GlobalStep != 6 {
		t.Fatalf("expected global step 6, got %d", stats.GlobalStep)
	}
	if stats.Episodes != 1 {
		t.Fatalf("expected 1 finished episode, got %d", stats.Episodes)
	}
	if stats.BufferFill != 6 {
		t.Fatalf("expected buffer fill 6, got %d", stats.BufferFill)
	}
	if stats.UpdateCount != 1 {
		t.Fatalf("expected 1 update, got %d", stats.UpdateCount)
	}
	if stats.Type != domainrl.AgentDDPG {
		t.Fatalf("expected ddpg type tag, got %q", stats.Type)
	}
}
