package server

import (
	"math"

	"github.com/rustyeddy/gridsim/backtest"
	"github.com/rustyeddy/gridsim/sweep"
)

// SimulateRequest is the body of POST /api/v1/simulate.
type SimulateRequest struct {
	Prices           []float64        `json:"prices" binding:"required"`
	Params           *backtest.Params `json:"params,omitempty"` // server defaults when omitted
	Dataset          string           `json:"dataset,omitempty"`
	IncludeTimelines bool             `json:"include_timelines,omitempty"`
}

// SweepRequest is the body of POST /api/v1/sweep.
type SweepRequest struct {
	Prices  []float64        `json:"prices" binding:"required"`
	Params  *backtest.Params `json:"params,omitempty"`
	Bounds  *sweep.Bounds    `json:"bounds,omitempty"`
	N       int              `json:"n"`
	Seed    int64            `json:"seed"`
	Workers int              `json:"workers,omitempty"`
	Dataset string           `json:"dataset,omitempty"`
}

type RunSummary struct {
	RunID          string   `json:"run_id,omitempty"`
	Status         string   `json:"status"`
	Error          string   `json:"error,omitempty"`
	Step           float64  `json:"step"`
	Ratio          float64  `json:"order_pair_size_ratio"`
	Ticks          int      `json:"ticks"`
	Trades         int      `json:"trades"`
	Rejected       int      `json:"rejected"`
	RoundTrips     int      `json:"round_trips"`
	FinalPrice     float64  `json:"final_price"`
	FinalWallet    float64  `json:"final_wallet"`
	FinalBorrowed  float64  `json:"final_borrowed"`
	ReturnPct      float64  `json:"return_pct"`
	MaxDrawdownPct float64  `json:"max_drawdown_pct"`
	PeakLeverage   *float64 `json:"peak_leverage"` // null when equity hit zero
}

type Timelines struct {
	Price    []float64 `json:"price"`
	Wallet   []float64 `json:"wallet"`
	Borrowed []float64 `json:"borrowed"`
	Grid     []float64 `json:"grid"`
}

type SimulateResponse struct {
	Summary   RunSummary `json:"summary"`
	Timelines *Timelines `json:"timelines,omitempty"`
}

type SweepResponse struct {
	Best     int          `json:"best"` // -1 when every candidate failed
	Failed   int          `json:"failed"`
	Outcomes []RunSummary `json:"outcomes"`
}

type GridResponse struct {
	Anchor      float64   `json:"anchor"`
	AnchorIndex int       `json:"anchor_index"`
	Step        float64   `json:"step"`
	Levels      []float64 `json:"levels"`
}

// ErrorResponse wraps every non-2xx reply.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func summarize(r *backtest.Result) RunSummary {
	s := RunSummary{
		RunID:          r.RunID,
		Status:         "ok",
		Step:           r.Params.Step,
		Ratio:          r.Params.OrderPairSizeRatio,
		Ticks:          r.Ticks,
		Trades:         r.Trades,
		Rejected:       r.Rejected,
		RoundTrips:     r.RoundTrips,
		FinalPrice:     r.FinalPrice,
		FinalWallet:    r.FinalWallet,
		FinalBorrowed:  r.FinalBorrowed,
		ReturnPct:      r.ReturnPct,
		MaxDrawdownPct: r.MaxDrawdownPct,
	}
	if !math.IsInf(r.PeakLeverage, 0) && !math.IsNaN(r.PeakLeverage) {
		lev := r.PeakLeverage
		s.PeakLeverage = &lev
	}
	if r.Failed {
		s.Status = "failed"
		if r.Err != nil {
			s.Error = r.Err.Error()
		}
	}
	return s
}

func summarizeOutcome(o sweep.Outcome) RunSummary {
	if o.Result != nil {
		return summarize(o.Result)
	}
	s := RunSummary{Status: "failed", Step: o.Candidate.Step, Ratio: o.Candidate.Ratio}
	if o.Err != nil {
		s.Error = o.Err.Error()
	}
	return s
}
