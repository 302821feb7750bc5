package rl

import (
	"fmt"
	"math/rand"

	domainrl "github.com/fdoperezi/Markov-Pilot/internal/domain/rl"

	"gonum.org/v1/gonum/mat"
)

// ReplayBuffer is a fixed-capacity circular store of transitions. Each field
// lives in its own flat store indexed identically, and the five fields of a
// slot are only ever overwritten together.
type ReplayBuffer struct {
	capacity  int
	obsDim    int
	actionDim int

	// cursor counts stores monotonically; the write slot is cursor mod capacity.
	cursor int

	obs      *mat.Dense
	actions  *mat.Dense
	nextObs  *mat.Dense
	rewards  []float64
	contMask []float64

	rng *rand.Rand
}

// NewReplayBuffer allocates a buffer for capacity transitions of the given
// observation and action dimensionality.
func NewReplayBuffer(capacity, obsDim, actionDim int, rng *rand.Rand) *ReplayBuffer {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &ReplayBuffer{
		capacity:  capacity,
		obsDim:    obsDim,
		actionDim: actionDim,
		obs:       mat.NewDense(capacity, obsDim, nil),
		actions:   mat.NewDense(capacity, actionDim, nil),
		nextObs:   mat.NewDense(capacity, obsDim, nil),
		rewards:   make([]float64, capacity),
		contMask:  make([]float64, capacity),
		rng:       rng,
	}
}

// StoreTransition writes one transition at the current cursor slot,
// overwriting the oldest entry once the buffer is full. The terminal flag is
// stored inverted as a continuation mask so it multiplies directly into the
// TD bootstrap term.
func (b *ReplayBuffer) StoreTransition(t domainrl.Transition) error {
	if len(t.Obs) != b.obsDim || len(t.NextObs) != b.obsDim {
		return fmt.Errorf("%w: observation length %d/%d, buffer expects %d",
			domainrl.ErrDimensionMismatch, len(t.Obs), len(t.NextObs), b.obsDim)
	}
	if len(t.Action) != b.actionDim {
		return fmt.Errorf("%w: action length %d, buffer expects %d",
			domainrl.ErrDimensionMismatch, len(t.Action), b.actionDim)
	}

	idx := b.cursor % b.capacity
	b.obs.SetRow(idx, t.Obs)
	b.actions.SetRow(idx, t.Action)
	b.nextObs.SetRow(idx, t.NextObs)
	b.rewards[idx] = t.Reward
	if t.Done {
		b.contMask[idx] = 0.0
	} else {
		b.contMask[idx] = 1.0
	}
	b.cursor++
	return nil
}

// Size returns the number of currently stored transitions.
func (b *ReplayBuffer) Size() int {
	if b.cursor < b.capacity {
		return b.cursor
	}
	return b.capacity
}

// Capacity returns the buffer capacity.
func (b *ReplayBuffer) Capacity() int {
	return b.capacity
}

// SampleIndices draws batchSize indices uniformly at random, with
// replacement, from the currently filled range.
func (b *ReplayBuffer) SampleIndices(batchSize int) ([]int, error) {
	filled := b.Size()
	if filled == 0 {
		return nil, domainrl.ErrEmptyBuffer
	}
	idxs := make([]int, batchSize)
	for i := range idxs {
		idxs[i] = b.rng.Intn(filled)
	}
	return idxs, nil
}

// Fetch gathers the five parallel stores at the given indices, preserving
// field correspondence row by row.
func (b *ReplayBuffer) Fetch(idxs []int) domainrl.Batch {
	n := len(idxs)
	batch := domainrl.Batch{
		Obs:      mat.NewDense(n, b.obsDim, nil),
		Actions:  mat.NewDense(n, b.actionDim, nil),
		NextObs:  mat.NewDense(n, b.obsDim, nil),
		Rewards:  make([]float64, n),
		ContMask: make([]float64, n),
	}
	for i, idx := range idxs {
		batch.Obs.SetRow(i, b.obs.RawRowView(idx))
		batch.Actions.SetRow(i, b.actions.RawRowView(idx))
		batch.NextObs.SetRow(i, b.nextObs.RawRowView(idx))
		batch.Rewards[i] = b.rewards[idx]
		batch.ContMask[i] = b.contMask[idx]
	}
	return batch
}
