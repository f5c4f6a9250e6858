// Package sweep samples grid parameters and runs each sample as an
// independent simulation.
package sweep

import (
	"math/rand"

	"github.com/rustyeddy/gridsim/simerr"
)

// Bounds are half-open sampling ranges [lo, hi).
type Bounds struct {
	StepLo  float64 `json:"step_lo"`
	StepHi  float64 `json:"step_hi"`
	RatioLo float64 `json:"ratio_lo"`
	RatioHi float64 `json:"ratio_hi"`
}

// DefaultBounds are the ranges the reference sweep explored.
func DefaultBounds() Bounds {
	return Bounds{StepLo: 0.0035, StepHi: 0.01, RatioLo: 0.001, RatioHi: 0.1}
}

func (b Bounds) Validate() error {
	if b.StepLo <= 0 || b.StepHi <= b.StepLo {
		return simerr.Configf("step_bounds", "need 0 < lo < hi, got [%g, %g)", b.StepLo, b.StepHi)
	}
	if b.RatioLo <= 0 || b.RatioHi <= b.RatioLo || b.RatioHi > 1 {
		return simerr.Configf("ratio_bounds", "need 0 < lo < hi <= 1, got [%g, %g)", b.RatioLo, b.RatioHi)
	}
	return nil
}

type Candidate struct {
	Step  float64 `json:"step"`
	Ratio float64 `json:"ratio"`
}

func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// Population draws n candidates uniformly from b. The same rng state always
// yields the same population.
func Population(rng *rand.Rand, n int, b Bounds) ([]Candidate, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, simerr.Configf("n", "must not be negative, got %d", n)
	}

	out := make([]Candidate, n)
	for i := range out {
		out[i] = Candidate{
			Step:  b.StepLo + rng.Float64()*(b.StepHi-b.StepLo),
			Ratio: b.RatioLo + rng.Float64()*(b.RatioHi-b.RatioLo),
		}
	}
	return out, nil
}
