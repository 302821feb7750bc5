package rl

import (
	"math"
	"math/rand"
)

// OUNoise is an Ornstein-Uhlenbeck process generating temporally-correlated
// exploration noise. Sample mutates the internal state, so it must be called
// at most once per exploration step to preserve the temporal correlation.
type OUNoise struct {
	mu    []float64
	x0    []float64
	xPrev []float64
	theta float64
	sigma float64
	dt    float64
	rng   *rand.Rand
}

// NewOUNoise creates an OU process reverting toward mu. x0 is the reset
// value; nil resets to the zero vector.
func NewOUNoise(mu []float64, sigma, theta, dt float64, x0 []float64, rng *rand.Rand) *OUNoise {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	n := &OUNoise{
		mu:    append([]float64(nil), mu...),
		theta: theta,
		sigma: sigma,
		dt:    dt,
		rng:   rng,
	}
	if x0 != nil {
		n.x0 = append([]float64(nil), x0...)
	}
	n.Reset()
	return n
}

// Sample advances the process one step and returns the new value:
// x = x_prev + theta*(mu-x_prev)*dt + sigma*sqrt(dt)*N(0, I).
func (n *OUNoise) Sample() []float64 {
	x := make([]float64, len(n.mu))
	sqrtDt := math.Sqrt(n.dt)
	for i := range x {
		x[i] = n.xPrev[i] + n.theta*(n.mu[i]-n.xPrev[i])*n.dt + n.sigma*sqrtDt*n.rng.NormFloat64()
	}
	n.xPrev = x
	return x
}

// Reset restores the process to its initial value, or zero if none was given.
func (n *OUNoise) Reset() {
	n.xPrev = make([]float64, len(n.mu))
	if n.x0 != nil {
		copy(n.xPrev, n.x0)
	}
}

// Dim returns the noise vector dimensionality.
func (n *OUNoise) Dim() int {
	return len(n.mu)
}
