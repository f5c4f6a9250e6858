// Package backtest drives a grid trader and its margin account through a
// price series.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/gridsim/journal"
	"github.com/rustyeddy/gridsim/metrics"
	"github.com/rustyeddy/gridsim/pkg/id"
	"github.com/rustyeddy/gridsim/sim"
	"github.com/rustyeddy/gridsim/strategy"
)

// ErrNoPrices is returned when a feed ends before its first price.
var ErrNoPrices = errors.New("backtest: feed produced no prices")

// Runner owns one simulation run. Journal, Metrics and Logger are optional.
type Runner struct {
	Params  Params
	Dataset string

	Logger  *zap.Logger
	Journal journal.Journal
	Metrics *metrics.Metrics

	// RecordTicks sends every timeline entry to the journal, not just the
	// run summary and fills.
	RecordTicks bool
}

// Run executes the simulation loop:
//  1. read next price
//  2. ledger.Update(tick, price)
//  3. trader.Update(tick, price)
//
// The first price anchors the grid. Construction errors return a nil
// result. Any later failure (feed error, bad tick, cancelled ctx) returns
// the partial result marked Failed together with the error.
func (r *Runner) Run(ctx context.Context, feed PriceFeed) (*Result, error) {
	defer feed.Close()

	log := r.Logger
	if log == nil {
		log = zap.NewNop()
	}
	j := r.Journal
	if j == nil {
		j = journal.Nop{}
	}

	first, ok, err := feed.Next()
	if err != nil {
		return nil, fmt.Errorf("backtest: %w", err)
	}
	if !ok {
		return nil, ErrNoPrices
	}

	acct, err := sim.NewLedger(r.Params.ledgerConfig())
	if err != nil {
		return nil, err
	}
	trader, err := strategy.NewLongShort(acct, r.Params.strategyConfig(first), log)
	if err != nil {
		return nil, err
	}

	res := &Result{
		RunID:   id.New(),
		Created: time.Now().UTC(),
		Dataset: r.Dataset,
		Params:  r.Params,
		Grid:    trader.Grid().Levels(),
		Trader:  trader,
	}
	log = log.With(zap.String("run_id", res.RunID))
	log.Debug("run started",
		zap.Float64("initial_price", first),
		zap.Float64("step", r.Params.Step),
		zap.Float64("ratio", r.Params.OrderPairSizeRatio))

	start := time.Now()
	var (
		runErr     error
		fillsSeen  int
		marginSeen int
		skipSeen   int
	)

	price := first
	for tick := 0; ; tick++ {
		if tick > 0 {
			price, ok, err = feed.Next()
			if err != nil {
				runErr = fmt.Errorf("backtest: tick %d: %w", tick, err)
				break
			}
			if !ok {
				break
			}
		}
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		if err := acct.Update(tick, price); err != nil {
			runErr = err
			break
		}
		r.Metrics.ObserveTick()
		if r.RecordTicks {
			r.journal(log, j.RecordTick(journal.TickRecord{
				RunID:    res.RunID,
				Tick:     tick,
				Price:    price,
				Wallet:   acct.InvestmentValue(price),
				Borrowed: acct.BorrowedValue(price),
			}))
		}

		if err := trader.Update(tick, price); err != nil {
			runErr = err
		}

		for _, f := range acct.FillsSince(fillsSeen) {
			r.Metrics.ObserveFill(f.Side.String())
			r.journal(log, j.RecordFill(journal.FillRecord{
				RunID:  res.RunID,
				Seq:    f.Seq,
				Tick:   f.Tick,
				Side:   f.Side.String(),
				Price:  f.Price,
				Qty:    f.Qty,
				Amount: f.Amount,
				Fee:    f.Fee,
			}))
			fillsSeen = f.Seq
		}
		// the ledger only counts margin refusals; the rest of the
		// trader's rejections are levels skipped for lack of equity
		for ; marginSeen < acct.RejectedCount(); marginSeen++ {
			r.Metrics.ObserveRejection("margin")
		}
		for ; skipSeen < trader.Rejected()-acct.RejectedCount(); skipSeen++ {
			r.Metrics.ObserveRejection("no_equity")
		}

		if runErr != nil {
			break
		}
	}

	r.finish(res, acct, trader, runErr)
	res.Took = time.Since(start)

	r.Metrics.ObserveRun(res.Failed, res.FinalWallet, res.Took)
	r.journal(log, j.RecordRun(res.Record()))

	if res.Failed {
		log.Warn("run failed", zap.Int("ticks", res.Ticks), zap.Error(res.Err))
		return res, res.Err
	}
	log.Info("run finished",
		zap.Int("ticks", res.Ticks),
		zap.Int("trades", res.Trades),
		zap.Int("rejected", res.Rejected),
		zap.Float64("wallet", res.FinalWallet),
		zap.Float64("borrowed", res.FinalBorrowed),
		zap.Duration("took", res.Took))
	return res, nil
}

// finish fills in the summary. Final values are taken after the last
// tick's trades, at the last recorded price.
func (r *Runner) finish(res *Result, acct *sim.Ledger, trader *strategy.LongShort, runErr error) {
	res.Prices = acct.PriceTimeline()
	res.Wallet = acct.WalletTimeline()
	res.Borrowed = acct.BorrowedTimeline()
	res.Ticks = acct.TicksProcessed()
	res.Trades = acct.TradeCount()
	res.Rejected = trader.Rejected()
	res.RoundTrips = len(trader.RoundTrips())

	if n := len(res.Prices); n > 0 {
		res.FinalPrice = res.Prices[n-1]
		res.FinalWallet = acct.InvestmentValue(res.FinalPrice)
		res.FinalBorrowed = acct.BorrowedValue(res.FinalPrice)
	} else {
		res.FinalWallet = r.Params.InitialBase
	}

	res.ReturnPct = returnPct(r.Params.InitialBase, res.FinalWallet)
	res.MaxDrawdownPct = maxDrawdownPct(res.Wallet)
	res.PeakLeverage = peakLeverage(res.Wallet, res.Borrowed)

	if runErr != nil {
		res.Failed = true
		res.Err = runErr
	}
}

func (r *Runner) journal(log *zap.Logger, err error) {
	if err != nil {
		log.Warn("journal write failed", zap.Error(err))
	}
}

// RunPrices runs params over an in-memory price series.
func RunPrices(ctx context.Context, params Params, prices []float64) (*Result, error) {
	r := &Runner{Params: params}
	return r.Run(ctx, NewSliceFeed(prices))
}
