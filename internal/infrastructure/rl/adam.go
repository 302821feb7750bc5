package rl

import (
	"fmt"
	"math"

	domainrl "github.com/fdoperezi/Markov-Pilot/internal/domain/rl"
)

// AdamState is the serializable state of an Adam optimizer, carried inside
// checkpoints so training resumes exactly.
type AdamState struct {
	Step int                  `json:"step"`
	M    map[string][]float64 `json:"m"`
	V    map[string][]float64 `json:"v"`
}

// adam implements the Adam optimizer over a fixed parameter set.
type adam struct {
	lr    float64
	beta1 float64
	beta2 float64
	eps   float64

	step int
	m    map[string][]float64
	v    map[string][]float64
}

func newAdam(lr float64, params []parameter) *adam {
	o := &adam{
		lr:    lr,
		beta1: 0.9,
		beta2: 0.999,
		eps:   1e-8,
		m:     make(map[string][]float64, len(params)),
		v:     make(map[string][]float64, len(params)),
	}
	for _, p := range params {
		o.m[p.Name] = make([]float64, len(p.Data))
		o.v[p.Name] = make([]float64, len(p.Data))
	}
	return o
}

// apply performs one bias-corrected Adam step on the parameters in place.
func (o *adam) apply(params []parameter) {
	o.step++
	bc1 := 1 - math.Pow(o.beta1, float64(o.step))
	bc2 := 1 - math.Pow(o.beta2, float64(o.step))

	for _, p := range params {
		m := o.m[p.Name]
		v := o.v[p.Name]
		for i := range p.Data {
			g := p.Grad[i]
			m[i] = o.beta1*m[i] + (1-o.beta1)*g
			v[i] = o.beta2*v[i] + (1-o.beta2)*g*g
			mHat := m[i] / bc1
			vHat := v[i] / bc2
			p.Data[i] -= o.lr * mHat / (math.Sqrt(vHat) + o.eps)
		}
	}
}

func (o *adam) state() AdamState {
	s := AdamState{
		Step: o.step,
		M:    make(map[string][]float64, len(o.m)),
		V:    make(map[string][]float64, len(o.v)),
	}
	for name, m := range o.m {
		s.M[name] = append([]float64(nil), m...)
	}
	for name, v := range o.v {
		s.V[name] = append([]float64(nil), v...)
	}
	return s
}

// loadState restores the optimizer moments, rejecting any shape mismatch.
func (o *adam) loadState(s AdamState) error {
	if len(s.M) != len(o.m) || len(s.V) != len(o.v) {
		return fmt.Errorf("%w: optimizer state covers %d/%d tensors, expected %d",
			domainrl.ErrCheckpointMismatch, len(s.M), len(s.V), len(o.m))
	}
	for name, m := range o.m {
		saved, ok := s.M[name]
		if !ok || len(saved) != len(m) {
			return fmt.Errorf("%w: optimizer first moment for %q missing or mis-sized",
				domainrl.ErrCheckpointMismatch, name)
		}
	}
	for name, v := range o.v {
		saved, ok := s.V[name]
		if !ok || len(saved) != len(v) {
			return fmt.Errorf("%w: optimizer second moment for %q missing or mis-sized",
				domainrl.ErrCheckpointMismatch, name)
		}
	}
	for name := range o.m {
		copy(o.m[name], s.M[name])
		copy(o.v[name], s.V[name])
	}
	o.step = s.Step
	return nil
}
