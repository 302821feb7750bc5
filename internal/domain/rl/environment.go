package rl

// Environment is the narrow interface the learning core consumes. The
// flight-dynamics simulator sits behind it; so does the toy tracking
// environment used in tests.
type Environment interface {
	// Reset starts a new episode and returns the initial observation.
	Reset() []float64

	// Step applies an action in the environment's native bounds and returns
	// the next observation, the reward, whether the episode ended, and
	// auxiliary scalars.
	Step(action []float64) (obs []float64, reward float64, done bool, info map[string]float64)

	// ObservationDim returns the observation vector length.
	ObservationDim() int

	// ActionSpace returns the native action bounds.
	ActionSpace() BoxSpace
}

// MultiEnvironment is the joint interface for co-trained agents: all agents
// step in lockstep and receive per-agent observations and rewards.
type MultiEnvironment interface {
	// Reset starts a new episode and returns one observation per agent.
	Reset() [][]float64

	// Step applies one action per agent and returns per-agent observations
	// and rewards. Termination is shared across agents.
	Step(actions [][]float64) (obs [][]float64, rewards []float64, done bool, info map[string]float64)

	// NumAgents returns the number of co-trained agents.
	NumAgents() int

	// ObservationDims returns the per-agent observation vector lengths.
	ObservationDims() []int

	// ActionSpaces returns the per-agent native action bounds.
	ActionSpaces() []BoxSpace
}

// soloEnv adapts a single-agent Environment to the joint interface.
type soloEnv struct {
	env Environment
}

// AsMulti wraps a single-agent environment as a one-agent MultiEnvironment.
func AsMulti(env Environment) MultiEnvironment {
	return &soloEnv{env: env}
}

func (s *soloEnv) Reset() [][]float64 {
	return [][]float64{s.env.Reset()}
}

func (s *soloEnv) Step(actions [][]float64) ([][]float64, []float64, bool, map[string]float64) {
	obs, reward, done, info := s.env.Step(actions[0])
	return [][]float64{obs}, []float64{reward}, done, info
}

func (s *soloEnv) NumAgents() int {
	return 1
}

func (s *soloEnv) ObservationDims() []int {
	return []int{s.env.ObservationDim()}
}

func (s *soloEnv) ActionSpaces() []BoxSpace {
	return []BoxSpace{s.env.ActionSpace()}
}
