package rl

import "fmt"

// BoxSpace is a bounded, fixed-dimensional continuous vector space with
// independent per-dimension bounds.
type BoxSpace struct {
	// Low holds the lower bound of each dimension.
	Low []float64 `json:"low"`

	// High holds the upper bound of each dimension.
	High []float64 `json:"high"`
}

// NewSymmetricBox returns a box of the given dimension bounded by [-bound, bound]
// in every dimension.
func NewSymmetricBox(dim int, bound float64) BoxSpace {
	low := make([]float64, dim)
	high := make([]float64, dim)
	for i := 0; i < dim; i++ {
		low[i] = -bound
		high[i] = bound
	}
	return BoxSpace{Low: low, High: high}
}

// Dim returns the dimensionality of the space.
func (s BoxSpace) Dim() int {
	return len(s.Low)
}

// Scale returns the per-dimension factor (high-low)/2 mapping a [-1, 1]
// policy output into the native bounds.
func (s BoxSpace) Scale() []float64 {
	scale := make([]float64, len(s.Low))
	for i := range scale {
		scale[i] = (s.High[i] - s.Low[i]) / 2.0
	}
	return scale
}

// Shift returns the per-dimension offset (high+low)/2 mapping a [-1, 1]
// policy output into the native bounds.
func (s BoxSpace) Shift() []float64 {
	shift := make([]float64, len(s.Low))
	for i := range shift {
		shift[i] = (s.High[i] + s.Low[i]) / 2.0
	}
	return shift
}

// Contains reports whether v lies within the bounds of the space.
func (s BoxSpace) Contains(v []float64) bool {
	if len(v) != len(s.Low) {
		return false
	}
	for i := range v {
		if v[i] < s.Low[i] || v[i] > s.High[i] {
			return false
		}
	}
	return true
}

// Validate checks the structural consistency of the space.
func (s BoxSpace) Validate() error {
	if len(s.Low) == 0 {
		return fmt.Errorf("%w: empty action space", ErrInvalidConfig)
	}
	if len(s.Low) != len(s.High) {
		return fmt.Errorf("%w: low/high bound lengths differ (%d vs %d)", ErrInvalidConfig, len(s.Low), len(s.High))
	}
	for i := range s.Low {
		if s.Low[i] >= s.High[i] {
			return fmt.Errorf("%w: bound %d has low %f >= high %f", ErrInvalidConfig, i, s.Low[i], s.High[i])
		}
	}
	return nil
}
