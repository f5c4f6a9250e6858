package grid

import (
	"errors"
	"math"
	"testing"

	"github.com/rustyeddy/gridsim/simerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildExampleLevels(t *testing.T) {
	t.Parallel()

	g, err := Build(100, 0.02, 3)
	require.NoError(t, err)

	levels := g.Levels()
	require.Len(t, levels, 7)

	assert.Equal(t, 3, g.AnchorIndex())
	assert.Equal(t, 100.0, g.Anchor())
	assert.InDelta(t, 98.0392, levels[2], 1e-4)
	assert.InDelta(t, 102.0, levels[4], 1e-9)
	assert.InDelta(t, 104.04, levels[5], 1e-9)
	assert.InDelta(t, 106.1208, levels[6], 1e-9)
	assert.Equal(t, levels[0], g.Bottom())
	assert.Equal(t, levels[6], g.Top())
}

func TestBuildConstantRatio(t *testing.T) {
	t.Parallel()

	for _, step := range []float64{0.0035, 0.01, 0.02, 0.1, 1.5} {
		g, err := Build(42_000, step, 50)
		require.NoError(t, err)

		levels := g.Levels()
		for i := 1; i < len(levels); i++ {
			require.Greater(t, levels[i], levels[i-1])
			assert.InEpsilon(t, 1+step, levels[i]/levels[i-1], 1e-12, "step %g index %d", step, i)
		}
	}
}

func TestBuildInvalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		price float64
		step  float64
		n     int
		field string
	}{
		{"zero step", 100, 0, 3, "step"},
		{"negative step", 100, -0.01, 3, "step"},
		{"nan step", 100, math.NaN(), 3, "step"},
		{"zero price", 0, 0.02, 3, "initial_price"},
		{"negative price", -5, 0.02, 3, "initial_price"},
		{"inf price", math.Inf(1), 0.02, 3, "initial_price"},
		{"no levels", 100, 0.02, 0, "levels"},
		{"too many levels", 100, 0.02, MaxLevels + 1, "levels"},
		{"levels overflow int", 100, 0.02, math.MaxInt64/2 + 1, "levels"},
		{"top overflows", 100, 1, 1100, "levels"},
		{"bottom underflows", 1e-300, 1, 100, "levels"},
		{"levels collapse", 100, 1e-17, 3, "step"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g, err := Build(tt.price, tt.step, tt.n)
			require.Error(t, err)
			assert.Nil(t, g)
			assert.True(t, errors.Is(err, simerr.ErrConfig))

			var ce *simerr.ConfigError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestBuildOverflowMessage(t *testing.T) {
	t.Parallel()

	_, err := Build(100, 1, 1100)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overflow float64")
	assert.NotContains(t, err.Error(), "too small")
}

func TestBuildMaxLevels(t *testing.T) {
	t.Parallel()

	g, err := Build(100, 0.0001, MaxLevels)
	require.NoError(t, err)
	assert.Equal(t, 2*MaxLevels+1, g.Len())
}

func TestLevelsReturnsCopy(t *testing.T) {
	t.Parallel()

	g, err := Build(100, 0.02, 2)
	require.NoError(t, err)

	levels := g.Levels()
	levels[0] = -1
	assert.NotEqual(t, -1.0, g.Level(0))
}

func TestNearestIndex(t *testing.T) {
	t.Parallel()

	g, err := Build(100, 0.02, 2) // 96.1169, 98.0392, 100, 102, 104.04
	require.NoError(t, err)

	tests := []struct {
		price float64
		want  int
	}{
		{100, 2},
		{100.9, 2},
		{101, 2}, // tie goes low
		{101.1, 3},
		{99.5, 2},
		{98.5, 1},
		{1, 0},
		{500, 4},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, g.NearestIndex(tt.price), "price %g", tt.price)
	}
}
