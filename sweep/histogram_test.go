package sweep

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/gridsim/backtest"
)

func outcome(step, ratio, wallet float64, trades int) Outcome {
	return Outcome{
		Candidate: Candidate{Step: step, Ratio: ratio},
		Result:    &backtest.Result{FinalWallet: wallet, FinalBorrowed: wallet / 10, Trades: trades},
	}
}

func TestHistogram2D(t *testing.T) {
	t.Parallel()

	outs := []Outcome{
		outcome(0.001, 0.01, 1000, 2),
		outcome(0.002, 0.01, 1100, 4),
		outcome(0.010, 0.10, 900, 6),
		{Candidate: Candidate{Step: 0.5, Ratio: 0.5}, Err: errors.New("failed")},
	}

	h, err := Histogram2D(outs, 2, Wallet)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.001, 0.0055, 0.010}, h.StepEdges, 1e-12)
	assert.InDeltaSlice(t, []float64{0.01, 0.055, 0.1}, h.RatioEdges, 1e-12)

	assert.Equal(t, 2, h.Counts[0][0])
	assert.Equal(t, 1, h.Counts[1][1])
	assert.Equal(t, 1050.0, h.Cells[0][0])
	assert.Equal(t, 900.0, h.Cells[1][1])
	assert.True(t, math.IsNaN(h.Cells[0][1]))

	c, err := Histogram2D(outs, 2, Count)
	require.NoError(t, err)
	assert.Equal(t, 2.0, c.Cells[0][0])
	assert.Equal(t, 0.0, c.Cells[0][1])

	tr, err := Histogram2D(outs, 2, Trades)
	require.NoError(t, err)
	assert.Equal(t, 3.0, tr.Cells[0][0])

	var buf bytes.Buffer
	h.Print(&buf)
	assert.Contains(t, buf.String(), "wallet by step")
	assert.Contains(t, buf.String(), "1050.00")
}

func TestHistogram2DSinglePoint(t *testing.T) {
	t.Parallel()

	h, err := Histogram2D([]Outcome{outcome(0.01, 0.02, 1000, 1)}, 3, Borrowed)
	require.NoError(t, err)
	assert.Equal(t, 1, h.Counts[0][0])
	assert.Equal(t, 100.0, h.Cells[0][0])
}

func TestHistogram2DErrors(t *testing.T) {
	t.Parallel()

	_, err := Histogram2D([]Outcome{outcome(0.01, 0.02, 1000, 1)}, 0, Count)
	assert.Error(t, err)

	_, err = Histogram2D(nil, 5, Count)
	assert.ErrorContains(t, err, "no successful outcomes")
}

func TestParseMetric(t *testing.T) {
	t.Parallel()

	for _, m := range []Metric{Count, Wallet, Borrowed, Trades} {
		got, err := ParseMetric(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	_, err := ParseMetric("sharpe")
	assert.Error(t, err)
	assert.Equal(t, "Metric(9)", Metric(9).String())
}
