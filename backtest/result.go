package backtest

import (
	"math"
	"time"

	"github.com/rustyeddy/gridsim/journal"
	"github.com/rustyeddy/gridsim/strategy"
)

// Result is the outcome of one run. A failed run keeps everything recorded
// up to the failure.
type Result struct {
	RunID   string
	Created time.Time
	Dataset string
	Params  Params

	Prices   []float64
	Wallet   []float64
	Borrowed []float64
	Grid     []float64

	Ticks         int
	Trades        int
	Rejected      int
	RoundTrips    int
	FinalPrice    float64
	FinalWallet   float64
	FinalBorrowed float64

	ReturnPct      float64
	MaxDrawdownPct float64
	PeakLeverage   float64

	Trader *strategy.LongShort

	Failed bool
	Err    error
	Took   time.Duration
}

// Record flattens the result for a journal.
func (r *Result) Record() journal.RunRecord {
	rec := journal.RunRecord{
		RunID:              r.RunID,
		Created:            r.Created,
		Dataset:            r.Dataset,
		InitialBase:        r.Params.InitialBase,
		Step:               r.Params.Step,
		OrderPairSizeRatio: r.Params.OrderPairSizeRatio,
		MaxLeverage:        r.Params.MaxLeverage,
		FeeRate:            r.Params.FeeRate,
		Levels:             r.Params.Levels,
		Ticks:              r.Ticks,
		Trades:             r.Trades,
		Rejected:           r.Rejected,
		RoundTrips:         r.RoundTrips,
		FinalPrice:         r.FinalPrice,
		FinalWallet:        r.FinalWallet,
		FinalBorrowed:      r.FinalBorrowed,
		ReturnPct:          r.ReturnPct,
		MaxDDPct:           r.MaxDrawdownPct,
		PeakLeverage:       r.PeakLeverage,
		Failed:             r.Failed,
	}
	if math.IsInf(rec.PeakLeverage, 1) {
		rec.PeakLeverage = -1
	}
	if r.Err != nil {
		rec.Error = r.Err.Error()
	}
	return rec
}

// DropTimelines releases the per-tick series and the trader.
func (r *Result) DropTimelines() {
	r.Prices, r.Wallet, r.Borrowed, r.Grid = nil, nil, nil, nil
	r.Trader = nil
}

func returnPct(initial, final float64) float64 {
	if initial == 0 {
		return 0
	}
	return (final - initial) / initial * 100.0
}

// maxDrawdownPct is the largest peak-to-trough fall of the wallet series.
func maxDrawdownPct(wallet []float64) float64 {
	peak := math.Inf(-1)
	maxDD := 0.0
	for _, w := range wallet {
		if w > peak {
			peak = w
		}
		if peak > 0 {
			if dd := (peak - w) / peak * 100.0; dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// peakLeverage is the highest borrowed/wallet ratio seen. A tick with no
// equity counts as infinite leverage.
func peakLeverage(wallet, borrowed []float64) float64 {
	peak := 0.0
	for i := range wallet {
		var lev float64
		switch {
		case wallet[i] <= 0:
			lev = math.Inf(1)
		default:
			lev = borrowed[i] / wallet[i]
		}
		if lev > peak {
			peak = lev
		}
	}
	return peak
}
