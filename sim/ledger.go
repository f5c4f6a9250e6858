// Package sim implements the margin account ledger the grid strategy trades
// against. A Ledger is single-threaded: one run owns it.
package sim

import (
	"fmt"
	"math"

	"github.com/rustyeddy/gridsim/simerr"
)

const DefaultMaxLeverage = 3.0

type LedgerConfig struct {
	InitialBase float64 // starting capital in quote currency
	MaxLeverage float64 // 0 means DefaultMaxLeverage
	FeeRate     float64 // fraction of notional charged per fill
}

// Ledger tracks balances, debts and one valuation entry per tick.
type Ledger struct {
	bal         Balances
	maxLeverage float64
	feeRate     float64

	prices   []float64
	wallet   []float64
	borrowed []float64

	fills    []Fill
	trades   int
	rejected int
}

func NewLedger(cfg LedgerConfig) (*Ledger, error) {
	if !finite(cfg.InitialBase) || cfg.InitialBase <= 0 {
		return nil, simerr.Configf("initial_base", "must be positive, got %g", cfg.InitialBase)
	}
	if cfg.MaxLeverage == 0 {
		cfg.MaxLeverage = DefaultMaxLeverage
	}
	if !finite(cfg.MaxLeverage) || cfg.MaxLeverage < 0 {
		return nil, simerr.Configf("max_leverage", "must be positive, got %g", cfg.MaxLeverage)
	}
	if !finite(cfg.FeeRate) || cfg.FeeRate < 0 || cfg.FeeRate >= 1 {
		return nil, simerr.Configf("fee_rate", "must be in [0,1), got %g", cfg.FeeRate)
	}

	return &Ledger{
		bal:         Balances{Base: cfg.InitialBase},
		maxLeverage: cfg.MaxLeverage,
		feeRate:     cfg.FeeRate,
	}, nil
}

// Update records the valuation of the account at price for tick. Ticks
// must arrive as 0, 1, 2, ... with no gaps or repeats.
func (l *Ledger) Update(tick int, price float64) error {
	expected := len(l.prices)
	if tick != expected {
		reason := "out of order"
		if tick < expected {
			reason = "duplicate or past tick"
		}
		return &simerr.SequenceError{Tick: tick, Expected: expected, Price: price, Reason: reason}
	}
	if !finite(price) || price <= 0 {
		return &simerr.SequenceError{Tick: tick, Expected: expected, Price: price, Reason: "price must be positive and finite"}
	}

	l.prices = append(l.prices, price)
	l.wallet = append(l.wallet, l.InvestmentValue(price))
	l.borrowed = append(l.borrowed, l.BorrowedValue(price))
	return nil
}

// Buy acquires amount (quote currency notional) worth of asset at price,
// borrowing quote currency for any shortfall.
func (l *Ledger) Buy(amount, price float64) (Fill, error) {
	return l.place(Buy, amount, price)
}

// Sell disposes of amount (quote currency notional) worth of asset at
// price, borrowing asset for any shortfall.
func (l *Ledger) Sell(amount, price float64) (Fill, error) {
	return l.place(Sell, amount, price)
}

func (l *Ledger) place(side Side, amount, price float64) (Fill, error) {
	if !finite(amount) || amount <= 0 {
		return Fill{}, fmt.Errorf("%s: amount must be positive, got %g", side, amount)
	}
	if !finite(price) || price <= 0 {
		return Fill{}, fmt.Errorf("%s: price must be positive, got %g", side, price)
	}

	fee := amount * l.feeRate

	var next Balances
	switch side {
	case Buy:
		next = l.bal.buy(amount, price, fee)
	case Sell:
		next = l.bal.sell(amount, price, fee)
	}

	lev := next.Leverage(price)
	if lev > l.maxLeverage {
		l.rejected++
		return Fill{}, &simerr.MarginExceededError{
			Side:        side.String(),
			Amount:      amount,
			Price:       price,
			Leverage:    lev,
			MaxLeverage: l.maxLeverage,
		}
	}

	l.bal = next
	l.trades++

	fill := Fill{
		Seq:      l.trades,
		Tick:     len(l.prices) - 1,
		Side:     side,
		Price:    price,
		Qty:      amount / price,
		Amount:   amount,
		Fee:      fee,
		After:    next,
		Leverage: lev,
	}
	l.fills = append(l.fills, fill)
	return fill, nil
}

// InvestmentValue is the equity of the account at price.
func (l *Ledger) InvestmentValue(price float64) float64 {
	return l.bal.Equity(price)
}

// BorrowedValue is the quote-currency value of all debt at price.
func (l *Ledger) BorrowedValue(price float64) float64 {
	return l.bal.BorrowedValue(price)
}

func (l *Ledger) Leverage(price float64) float64 {
	return l.bal.Leverage(price)
}

func (l *Ledger) MaxLeverage() float64 { return l.maxLeverage }
func (l *Ledger) Balances() Balances { return l.bal }
func (l *Ledger) TradeCount() int { return l.trades }
func (l *Ledger) RejectedCount() int { return l.rejected }
func (l *Ledger) TicksProcessed() int { return len(l.prices) }

// Fills returns the accepted orders, oldest first.
func (l *Ledger) Fills() []Fill {
	return append([]Fill(nil), l.fills...)
}

// FillsSince returns the fills after the first n.
func (l *Ledger) FillsSince(n int) []Fill {
	if n < 0 {
		n = 0
	}
	if n >= len(l.fills) {
		return nil
	}
	return append([]Fill(nil), l.fills[n:]...)
}

func (l *Ledger) PriceTimeline() []float64 { return clone(l.prices) }
func (l *Ledger) WalletTimeline() []float64 { return clone(l.wallet) }
func (l *Ledger) BorrowedTimeline() []float64 { return clone(l.borrowed) }

func clone(xs []float64) []float64 {
	out := make([]float64, len(xs))
	copy(out, xs)
	return out
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
