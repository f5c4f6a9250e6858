// journal/journal.go
package journal

import "time"

// RunRecord is the scalar summary of one simulation run.
type RunRecord struct {
	RunID   string    `json:"run_id"`
	Created time.Time `json:"created"`
	Dataset string    `json:"dataset,omitempty"`

	// Parameters
	InitialBase        float64 `json:"initial_base"`
	Step               float64 `json:"step"`
	OrderPairSizeRatio float64 `json:"order_pair_size_ratio"`
	MaxLeverage        float64 `json:"max_leverage"`
	FeeRate            float64 `json:"fee_rate"`
	Levels             int     `json:"levels"`

	// Results
	Ticks      int `json:"ticks"`
	Trades     int `json:"trades"`
	Rejected   int `json:"rejected"`
	RoundTrips int `json:"round_trips"`

	FinalPrice    float64 `json:"final_price"`
	FinalWallet   float64 `json:"final_wallet"`
	FinalBorrowed float64 `json:"final_borrowed"`
	ReturnPct     float64 `json:"return_pct"`
	MaxDDPct      float64 `json:"max_dd_pct"`
	PeakLeverage  float64 `json:"peak_leverage"` // -1 when equity reached zero

	Failed bool   `json:"failed"`
	Error  string `json:"error,omitempty"`
}

// TickRecord is one entry of the price/wallet/borrowed timelines.
type TickRecord struct {
	RunID    string
	Tick     int
	Price    float64
	Wallet   float64
	Borrowed float64
}

// FillRecord is one accepted order.
type FillRecord struct {
	RunID  string
	Seq    int
	Tick   int
	Side   string
	Price  float64
	Qty    float64
	Amount float64
	Fee    float64
}

type Journal interface {
	RecordRun(RunRecord) error
	RecordTick(TickRecord) error
	RecordFill(FillRecord) error
	Close() error
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordRun(RunRecord) error { return nil }
func (Nop) RecordTick(TickRecord) error { return nil }
func (Nop) RecordFill(FillRecord) error { return nil }
func (Nop) Close() error { return nil }
