package backtest

import (
	"github.com/rustyeddy/gridsim/sim"
	"github.com/rustyeddy/gridsim/strategy"
)

// Params fully describes one simulation run apart from its prices.
type Params struct {
	InitialBase        float64 `json:"initial_base"`
	Step               float64 `json:"step"`
	OrderPairSizeRatio float64 `json:"order_pair_size_ratio"`
	MaxLeverage        float64 `json:"max_leverage"`
	FeeRate            float64 `json:"fee_rate"`
	Levels             int     `json:"levels"`
}

// DefaultParams matches the reference run: 1000 base, 2% step, 1% of
// equity per level.
func DefaultParams() Params {
	return Params{
		InitialBase:        1000,
		Step:               0.02,
		OrderPairSizeRatio: 0.01,
		MaxLeverage:        sim.DefaultMaxLeverage,
		Levels:             strategy.DefaultLevels,
	}
}

func (p Params) ledgerConfig() sim.LedgerConfig {
	return sim.LedgerConfig{
		InitialBase: p.InitialBase,
		MaxLeverage: p.MaxLeverage,
		FeeRate:     p.FeeRate,
	}
}

func (p Params) strategyConfig(initialPrice float64) strategy.Config {
	return strategy.Config{
		InitialPrice:       initialPrice,
		Step:               p.Step,
		OrderPairSizeRatio: p.OrderPairSizeRatio,
		Levels:             p.Levels,
	}
}
