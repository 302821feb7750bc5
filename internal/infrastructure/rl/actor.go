package rl

import (
	"math/rand"

	domainrl "github.com/fdoperezi/Markov-Pilot/internal/domain/rl"

	"gonum.org/v1/gonum/mat"
)

// ActorNetwork is the deterministic policy: observation -> action in
// [-1, 1] per dimension. Two normalized rectified hidden layers feed a small
// tanh-bounded output head.
type ActorNetwork struct {
	obsDim   int
	nActions int

	fc1  *denseLayer
	ln1  *layerNormLayer
	act1 *reluLayer
	fc2  *denseLayer
	ln2  *layerNormLayer
	act2 *reluLayer
	mu   *denseLayer
	out  *tanhLayer
}

func newActorNetwork(obsDim, layer1, layer2, nActions int, rng *rand.Rand) *ActorNetwork {
	return &ActorNetwork{
		obsDim:   obsDim,
		nActions: nActions,
		fc1:      newDenseLayer("fc1", obsDim, layer1, 0, rng),
		ln1:      newLayerNorm("ln1", layer1),
		act1:     &reluLayer{},
		fc2:      newDenseLayer("fc2", layer1, layer2, 0, rng),
		ln2:      newLayerNorm("ln2", layer2),
		act2:     &reluLayer{},
		mu:       newDenseLayer("mu", layer2, nActions, headInitBound, rng),
		out:      &tanhLayer{},
	}
}

// Forward evaluates the policy on a batch of observations (batch x obsDim)
// and returns actions in [-1, 1] (batch x nActions).
func (n *ActorNetwork) Forward(obs *mat.Dense, mode domainrl.Mode) *mat.Dense {
	x := n.fc1.forward(obs, mode)
	x = n.ln1.forward(x, mode)
	x = n.act1.forward(x, mode)
	x = n.fc2.forward(x, mode)
	x = n.ln2.forward(x, mode)
	x = n.act2.forward(x, mode)
	x = n.mu.forward(x, mode)
	return n.out.forward(x, mode)
}

// Backward propagates dL/dAction from the most recent Forward through the
// network, overwriting all parameter gradients.
func (n *ActorNetwork) Backward(dOut *mat.Dense) {
	d := n.out.backward(dOut)
	d = n.mu.backward(d)
	d = n.act2.backward(d)
	d = n.ln2.backward(d)
	d = n.fc2.backward(d)
	d = n.act1.backward(d)
	d = n.ln1.backward(d)
	n.fc1.backward(d)
}

// parameters returns the trainable tensors in a fixed deterministic order.
func (n *ActorNetwork) parameters() []parameter {
	var params []parameter
	params = append(params, n.fc1.parameters()...)
	params = append(params, n.ln1.parameters()...)
	params = append(params, n.fc2.parameters()...)
	params = append(params, n.ln2.parameters()...)
	params = append(params, n.mu.parameters()...)
	return params
}
