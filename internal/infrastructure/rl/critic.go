package rl

import (
	"math/rand"

	domainrl "github.com/fdoperezi/Markov-Pilot/internal/domain/rl"

	"gonum.org/v1/gonum/mat"
)

// CriticNetwork estimates the action value Q(state, action). The state passes
// through two normalized hidden layers; the action through one rectified
// layer of the same width as the second hidden layer. The two embeddings are
// summed, rectified, and projected to a scalar.
type CriticNetwork struct {
	stateDim  int
	actionDim int

	fc1     *denseLayer
	ln1     *layerNormLayer
	actMid  *reluLayer
	fc2     *denseLayer
	ln2     *layerNormLayer
	av      *denseLayer
	actAv  *reluLayer
	actSum *reluLayer
	q      *denseLayer
}

func newCriticNetwork(stateDim, layer1, layer2, actionDim int, rng *rand.Rand) *CriticNetwork {
	return &CriticNetwork{
		stateDim:  stateDim,
		actionDim: actionDim,
		fc1:       newDenseLayer("fc1", stateDim, layer1, 0, rng),
		ln1:       newLayerNorm("ln1", layer1),
		actMid:    &reluLayer{},
		fc2:       newDenseLayer("fc2", layer1, layer2, 0, rng),
		ln2:       newLayerNorm("ln2", layer2),
		av:        newDenseLayer("av", actionDim, layer2, 0, rng),
		actAv:     &reluLayer{},
		actSum:    &reluLayer{},
		q:         newDenseLayer("q", layer2, 1, headInitBound, rng),
	}
}

// Forward evaluates Q on a batch: state is batch x stateDim, action is
// batch x actionDim, the result is batch x 1.
func (n *CriticNetwork) Forward(state, action *mat.Dense, mode domainrl.Mode) *mat.Dense {
	sv := n.fc1.forward(state, mode)
	sv = n.ln1.forward(sv, mode)
	sv = n.actMid.forward(sv, mode)
	sv = n.fc2.forward(sv, mode)
	sv = n.ln2.forward(sv, mode)

	av := n.av.forward(action, mode)
	av = n.actAv.forward(av, mode)

	rows, cols := sv.Dims()
	sum := mat.NewDense(rows, cols, nil)
	sum.Add(sv, av)

	h := n.actSum.forward(sum, mode)
	return n.q.forward(h, mode)
}

// Backward propagates dL/dQ from the most recent Forward, overwrites all
// parameter gradients, and returns dL/dAction for the actor step. The state
// gradient is computed for completeness of the chain but not returned: no
// caller differentiates through observations.
func (n *CriticNetwork) Backward(dq *mat.Dense) *mat.Dense {
	dh := n.q.backward(dq)
	dSum := n.actSum.backward(dh)

	// Action path.
	dAv := n.actAv.backward(dSum)
	dAction := n.av.backward(dAv)

	// State path.
	dSv := n.ln2.backward(dSum)
	dSv = n.fc2.backward(dSv)
	dSv = n.actMid.backward(dSv)
	dSv = n.ln1.backward(dSv)
	n.fc1.backward(dSv)

	return dAction
}

// parameters returns the trainable tensors in a fixed deterministic order.
func (n *CriticNetwork) parameters() []parameter {
	var params []parameter
	params = append(params, n.fc1.parameters()...)
	params = append(params, n.ln1.parameters()...)
	params = append(params, n.fc2.parameters()...)
	params = append(params, n.ln2.parameters()...)
	params = append(params, n.av.parameters()...)
	params = append(params, n.q.parameters()...)
	return params
}
