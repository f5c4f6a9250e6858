// Package grid builds the geometric ladder of price levels a grid strategy
// trades against.
package grid

import (
	"math"
	"sort"

	"github.com/rustyeddy/gridsim/simerr"
)

// MaxLevels is the largest number of levels Build accepts on each side of
// the anchor.
const MaxLevels = 10_000

// Grid is an immutable, strictly increasing sequence of price levels spaced
// by a constant ratio of (1+step). The anchor price is always a level.
type Grid struct {
	levels []float64
	step   float64
	anchor int
}

// Build constructs a grid of 2n+1 levels centered on initialPrice. Levels
// above the anchor come from repeated multiplication by (1+step), levels
// below from repeated division.
func Build(initialPrice, step float64, n int) (*Grid, error) {
	if math.IsNaN(initialPrice) || math.IsInf(initialPrice, 0) || initialPrice <= 0 {
		return nil, simerr.Configf("initial_price", "must be positive and finite, got %g", initialPrice)
	}
	if math.IsNaN(step) || math.IsInf(step, 0) || step <= 0 {
		return nil, simerr.Configf("step", "must be positive, got %g", step)
	}
	if n < 1 || n > MaxLevels {
		return nil, simerr.Configf("levels", "must be in [1, %d], got %d", MaxLevels, n)
	}

	ratio := 1 + step
	levels := make([]float64, 2*n+1)
	levels[n] = initialPrice

	for i := n + 1; i < len(levels); i++ {
		levels[i] = levels[i-1] * ratio
	}
	for i := n - 1; i >= 0; i-- {
		levels[i] = levels[i+1] / ratio
	}

	if math.IsInf(levels[len(levels)-1], 0) || levels[0] == 0 {
		return nil, simerr.Configf("levels", "%d levels at step %g overflow float64 around %g", n, step, initialPrice)
	}

	// Very small steps over many levels can collapse adjacent floats.
	for i := 1; i < len(levels); i++ {
		if !(levels[i] > levels[i-1]) {
			return nil, simerr.Configf("step", "%g too small to keep %d levels distinct", step, n)
		}
	}

	return &Grid{levels: levels, step: step, anchor: n}, nil
}

// Levels returns a copy of the level prices, lowest first.
func (g *Grid) Levels() []float64 {
	out := make([]float64, len(g.levels))
	copy(out, g.levels)
	return out
}

func (g *Grid) Len() int { return len(g.levels) }
func (g *Grid) Level(i int) float64 { return g.levels[i] }
func (g *Grid) Step() float64 { return g.step }
func (g *Grid) AnchorIndex() int { return g.anchor }
func (g *Grid) Anchor() float64 { return g.levels[g.anchor] }
func (g *Grid) Bottom() float64 { return g.levels[0] }
func (g *Grid) Top() float64 { return g.levels[len(g.levels)-1] }
func (g *Grid) InRange(i int) bool { return i >= 0 && i < len(g.levels) }

// NearestIndex returns the index of the level closest to price. Ties go to
// the lower level. Prices outside the grid map to the outer levels.
func (g *Grid) NearestIndex(price float64) int {
	// first level >= price
	i := sort.SearchFloat64s(g.levels, price)
	switch {
	case i == 0:
		return 0
	case i == len(g.levels):
		return len(g.levels) - 1
	}
	if price-g.levels[i-1] <= g.levels[i]-price {
		return i - 1
	}
	return i
}
