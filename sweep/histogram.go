package sweep

import (
	"fmt"
	"io"
	"math"
	"strings"
)

// Metric selects the value averaged into each histogram cell.
type Metric int

const (
	Count Metric = iota
	Wallet
	Borrowed
	Trades
)

var metricNames = map[Metric]string{
	Count:    "count",
	Wallet:   "wallet",
	Borrowed: "borrow",
	Trades:   "trades",
}

func (m Metric) String() string {
	if s, ok := metricNames[m]; ok {
		return s
	}
	return fmt.Sprintf("Metric(%d)", int(m))
}

func ParseMetric(s string) (Metric, error) {
	for m, name := range metricNames {
		if strings.EqualFold(s, name) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown metric %q (want count, wallet, borrow or trades)", s)
}

// Histogram is a step × ratio grid of successful outcomes. Cells[i][j]
// covers StepEdges[i..i+1] and RatioEdges[j..j+1]; it holds the number of
// runs for Count, otherwise the average of the metric (NaN when empty).
type Histogram struct {
	Metric     Metric
	StepEdges  []float64
	RatioEdges []float64
	Counts     [][]int
	Cells      [][]float64
}

// Histogram2D bins successful outcomes into bins × bins equal-width cells
// spanning the observed parameter ranges.
func Histogram2D(outcomes []Outcome, bins int, metric Metric) (*Histogram, error) {
	if bins < 1 {
		return nil, fmt.Errorf("histogram: bins must be positive, got %d", bins)
	}

	var ok []Outcome
	for _, o := range outcomes {
		if o.OK() {
			ok = append(ok, o)
		}
	}
	if len(ok) == 0 {
		return nil, fmt.Errorf("histogram: no successful outcomes")
	}

	sLo, sHi := math.Inf(1), math.Inf(-1)
	rLo, rHi := math.Inf(1), math.Inf(-1)
	for _, o := range ok {
		sLo, sHi = math.Min(sLo, o.Candidate.Step), math.Max(sHi, o.Candidate.Step)
		rLo, rHi = math.Min(rLo, o.Candidate.Ratio), math.Max(rHi, o.Candidate.Ratio)
	}

	h := &Histogram{
		Metric:     metric,
		StepEdges:  edges(sLo, sHi, bins),
		RatioEdges: edges(rLo, rHi, bins),
		Counts:     make([][]int, bins),
		Cells:      make([][]float64, bins),
	}
	sums := make([][]float64, bins)
	for i := 0; i < bins; i++ {
		h.Counts[i] = make([]int, bins)
		h.Cells[i] = make([]float64, bins)
		sums[i] = make([]float64, bins)
	}

	for _, o := range ok {
		i := bin(o.Candidate.Step, sLo, sHi, bins)
		j := bin(o.Candidate.Ratio, rLo, rHi, bins)
		h.Counts[i][j]++
		sums[i][j] += value(o, metric)
	}

	for i := range h.Cells {
		for j := range h.Cells[i] {
			switch {
			case metric == Count:
				h.Cells[i][j] = float64(h.Counts[i][j])
			case h.Counts[i][j] == 0:
				h.Cells[i][j] = math.NaN()
			default:
				h.Cells[i][j] = sums[i][j] / float64(h.Counts[i][j])
			}
		}
	}
	return h, nil
}

func value(o Outcome, m Metric) float64 {
	switch m {
	case Wallet:
		return o.Result.FinalWallet
	case Borrowed:
		return o.Result.FinalBorrowed
	case Trades:
		return float64(o.Result.Trades)
	}
	return 1
}

func edges(lo, hi float64, bins int) []float64 {
	out := make([]float64, bins+1)
	w := (hi - lo) / float64(bins)
	for i := range out {
		out[i] = lo + float64(i)*w
	}
	out[bins] = hi
	return out
}

// bin maps x into [0, bins); hi lands in the last bin.
func bin(x, lo, hi float64, bins int) int {
	if hi <= lo {
		return 0
	}
	i := int((x - lo) / (hi - lo) * float64(bins))
	if i >= bins {
		i = bins - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

// Print writes the grid with steps as rows and ratios as columns.
func (h *Histogram) Print(w io.Writer) {
	fmt.Fprintf(w, "%s by step (rows) x ratio (columns)\n", h.Metric)
	fmt.Fprintf(w, "%-10s", "")
	for j := 0; j < len(h.RatioEdges)-1; j++ {
		fmt.Fprintf(w, " %10.5f", h.RatioEdges[j])
	}
	fmt.Fprintln(w)
	for i, row := range h.Cells {
		fmt.Fprintf(w, "%-10.5f", h.StepEdges[i])
		for _, v := range row {
			if math.IsNaN(v) {
				fmt.Fprintf(w, " %10s", "-")
				continue
			}
			fmt.Fprintf(w, " %10.2f", v)
		}
		fmt.Fprintln(w)
	}
}
