// Package env provides simple flight-channel tracking environments used for
// tests and demos in place of the full flight-dynamics simulator.
package env

import (
	"math"
	"math/rand"

	domainrl "github.com/fdoperezi/Markov-Pilot/internal/domain/rl"
)

const (
	dt            = 0.2
	damping       = 0.6
	controlGain   = 1.2
	maxDeflection = 1.0
	maxSteps      = 200
	angleLimit    = 4.0

	actionPenalty = 0.01
)

// Glideslope is a second-order setpoint-tracking channel: a control surface
// deflection drives the angular rate, which integrates into the tracked
// angle. The observation is [angle error, angular rate, setpoint]; the
// reward is the negative quadratic tracking error with a small deflection
// penalty.
type Glideslope struct {
	angle  float64
	rate   float64
	target float64
	steps  int
	rng    *rand.Rand
}

// NewGlideslope creates a glide-path tracking environment. A nil rng selects
// a random seed.
func NewGlideslope(rng *rand.Rand) *Glideslope {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	g := &Glideslope{rng: rng}
	g.Reset()
	return g
}

// Reset starts a new episode with a randomized initial angle and setpoint.
func (g *Glideslope) Reset() []float64 {
	g.angle = g.rng.Float64()*2 - 1
	g.rate = 0
	g.target = g.rng.Float64()*2 - 1
	g.steps = 0
	return g.observe()
}

// Step applies one control-surface deflection. Deflections outside the
// native bounds are clipped.
func (g *Glideslope) Step(action []float64) ([]float64, float64, bool, map[string]float64) {
	u := clip(action[0], -maxDeflection, maxDeflection)

	g.rate += (controlGain*u - damping*g.rate) * dt
	g.angle += g.rate * dt
	g.steps++

	err := g.target - g.angle
	reward := -(err*err + actionPenalty*u*u)
	done := g.steps >= maxSteps || math.Abs(g.angle) > angleLimit

	info := map[string]float64{
		"angle":  g.angle,
		"error":  err,
		"target": g.target,
	}
	return g.observe(), reward, done, info
}

// ObservationDim returns the observation vector length.
func (g *Glideslope) ObservationDim() int {
	return 3
}

// ActionSpace returns the native deflection bounds.
func (g *Glideslope) ActionSpace() domainrl.BoxSpace {
	return domainrl.NewSymmetricBox(1, maxDeflection)
}

func (g *Glideslope) observe() []float64 {
	return []float64{g.target - g.angle, g.rate, g.target}
}

// DualChannel couples two independent tracking channels, one per agent
// (elevator commanding the pitch channel, aileron the roll channel), behind
// the joint environment interface. Channels step in lockstep and share
// episode termination.
type DualChannel struct {
	pitch *Glideslope
	roll  *Glideslope
	steps int
}

// NewDualChannel creates the two-agent tracking environment.
func NewDualChannel(rng *rand.Rand) *DualChannel {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &DualChannel{
		pitch: NewGlideslope(rand.New(rand.NewSource(rng.Int63()))),
		roll:  NewGlideslope(rand.New(rand.NewSource(rng.Int63()))),
	}
}

// Reset starts a new episode on both channels.
func (d *DualChannel) Reset() [][]float64 {
	d.steps = 0
	return [][]float64{d.pitch.Reset(), d.roll.Reset()}
}

// Step applies one action per agent and returns per-agent observations and
// rewards. The episode ends when either channel terminates.
func (d *DualChannel) Step(actions [][]float64) ([][]float64, []float64, bool, map[string]float64) {
	pitchObs, pitchReward, pitchDone, pitchInfo := d.pitch.Step(actions[0])
	rollObs, rollReward, rollDone, rollInfo := d.roll.Step(actions[1])
	d.steps++

	info := map[string]float64{
		"pitchError": pitchInfo["error"],
		"rollError":  rollInfo["error"],
	}
	done := pitchDone || rollDone
	return [][]float64{pitchObs, rollObs}, []float64{pitchReward, rollReward}, done, info
}

// NumAgents returns the number of co-trained agents.
func (d *DualChannel) NumAgents() int {
	return 2
}

// ObservationDims returns the per-agent observation vector lengths.
func (d *DualChannel) ObservationDims() []int {
	return []int{d.pitch.ObservationDim(), d.roll.ObservationDim()}
}

// ActionSpaces returns the per-agent native action bounds.
func (d *DualChannel) ActionSpaces() []domainrl.BoxSpace {
	return []domainrl.BoxSpace{d.pitch.ActionSpace(), d.roll.ActionSpace()}
}

func clip(v, low, high float64) float64 {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}
