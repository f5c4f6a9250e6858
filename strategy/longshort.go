// Package strategy implements the long/short grid trader.
//
// The trader watches price move across a fixed geometric grid. Every level
// crossed upward issues a sell, every level crossed downward issues a buy,
// each sized as a fraction of current equity. A sell closes the long opened
// one level below (if any) and a buy closes the short opened one level above
// (if any), so a price that oscillates between two levels harvests the
// spread.
package strategy

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/rustyeddy/gridsim/grid"
	"github.com/rustyeddy/gridsim/sim"
	"github.com/rustyeddy/gridsim/simerr"
)

// DefaultLevels is the number of grid levels built on each side of the
// initial price.
const DefaultLevels = 100

// Account is the part of the ledger the strategy trades against.
type Account interface {
	Buy(amount, price float64) (sim.Fill, error)
	Sell(amount, price float64) (sim.Fill, error)
	InvestmentValue(price float64) float64
}

type State int

const (
	Initialized State = iota
	Active
)

func (s State) String() string {
	if s == Active {
		return "ACTIVE"
	}
	return "INITIALIZED"
}

type Config struct {
	InitialPrice       float64
	Step               float64 // grid spacing ratio, 0.02 = 2%
	OrderPairSizeRatio float64 // fraction of equity per crossed level
	Levels             int     // levels each side; 0 means DefaultLevels
}

type LongShort struct {
	acct  Account
	grid  *grid.Grid
	ratio float64
	log   *zap.Logger

	state    State
	cur      int
	lastTick int

	book     *book
	actions  []Action
	rejected int
}

// NewLongShort builds the grid and parks the level pointer at the level
// nearest the initial price. The account is shared, not owned.
func NewLongShort(acct Account, cfg Config, log *zap.Logger) (*LongShort, error) {
	if acct == nil {
		return nil, simerr.Configf("account", "is required")
	}
	if math.IsNaN(cfg.OrderPairSizeRatio) || cfg.OrderPairSizeRatio <= 0 || cfg.OrderPairSizeRatio > 1 {
		return nil, simerr.Configf("order_pair_size_ratio", "must be in (0,1], got %g", cfg.OrderPairSizeRatio)
	}
	if cfg.Levels == 0 {
		cfg.Levels = DefaultLevels
	}

	g, err := grid.Build(cfg.InitialPrice, cfg.Step, cfg.Levels)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &LongShort{
		acct:     acct,
		grid:     g,
		ratio:    cfg.OrderPairSizeRatio,
		log:      log,
		state:    Initialized,
		cur:      g.NearestIndex(cfg.InitialPrice),
		lastTick: -1,
		book:     newBook(),
	}, nil
}

// Update processes one price tick. Every level between the current level
// and price is crossed in price order, one order per level. Rejected orders
// are skipped; any other ledger error aborts the tick.
//
// The current level ends on the last level crossed. When price stops
// short of the next level that is not always the level nearest price:
// 100 -> 110 at 2% leaves it on 108.24, not 110.41, so that 110.41 is
// traded when price actually reaches it.
func (s *LongShort) Update(tick int, price float64) error {
	if tick <= s.lastTick {
		return &simerr.SequenceError{Tick: tick, Expected: s.lastTick + 1, Price: price, Reason: "tick did not advance"}
	}
	if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		return &simerr.SequenceError{Tick: tick, Expected: s.lastTick + 1, Price: price, Reason: "price must be positive and finite"}
	}
	s.lastTick = tick
	s.state = Active

	// At most one of these loops runs. The grid edges stop both: beyond
	// the outer level there is nothing left to cross.
	for s.grid.InRange(s.cur+1) && price >= s.grid.Level(s.cur+1) {
		if err := s.cross(tick, s.cur+1, sim.Sell); err != nil {
			return err
		}
		s.cur++
	}
	for s.grid.InRange(s.cur-1) && price <= s.grid.Level(s.cur-1) {
		if err := s.cross(tick, s.cur-1, sim.Buy); err != nil {
			return err
		}
		s.cur--
	}
	return nil
}

func (s *LongShort) cross(tick, level int, side sim.Side) error {
	lp := s.grid.Level(level)
	amount := s.ratio * s.acct.InvestmentValue(lp)

	act := Action{Tick: tick, Level: level, LevelPrice: lp, Side: side, Amount: amount}

	if amount <= 0 {
		act.Outcome = Skipped
		s.rejected++
		s.actions = append(s.actions, act)
		s.log.Warn("grid cross skipped: no equity",
			zap.Int("tick", tick), zap.Int("level", level), zap.Float64("price", lp))
		return nil
	}

	var (
		fill sim.Fill
		err  error
	)
	switch side {
	case sim.Sell:
		fill, err = s.acct.Sell(amount, lp)
	case sim.Buy:
		fill, err = s.acct.Buy(amount, lp)
	}

	if errors.Is(err, simerr.ErrMarginExceeded) {
		act.Outcome = Rejected
		act.Err = err
		s.rejected++
		s.actions = append(s.actions, act)
		s.log.Info("grid order rejected",
			zap.Int("tick", tick), zap.Int("level", level), zap.Stringer("side", side),
			zap.Float64("price", lp), zap.Float64("amount", amount), zap.Error(err))
		return nil
	}
	if err != nil {
		return fmt.Errorf("strategy: %s at level %d: %w", side, level, err)
	}

	act.Outcome = Filled
	act.Fill = fill
	s.actions = append(s.actions, act)

	if rt, closed := s.book.match(tick, level, fill); closed {
		s.log.Debug("grid pair closed",
			zap.Int("tick", tick), zap.Int("open_level", rt.Open.Level), zap.Int("close_level", level),
			zap.Float64("pl", rt.PL))
	} else {
		s.log.Debug("grid tranche opened",
			zap.Int("tick", tick), zap.Int("level", level), zap.Stringer("side", side),
			zap.Float64("price", lp), zap.Float64("qty", fill.Qty))
	}
	return nil
}

func (s *LongShort) Grid() *grid.Grid { return s.grid }
func (s *LongShort) State() State { return s.state }
func (s *LongShort) CurrentLevelIndex() int { return s.cur }
func (s *LongShort) Rejected() int { return s.rejected }
func (s *LongShort) OrderPairSizeRatio() float64 { return s.ratio }

// Actions returns one entry per crossed level, in processing order.
func (s *LongShort) Actions() []Action {
	return append([]Action(nil), s.actions...)
}

func (s *LongShort) OpenTranches() []Tranche { return s.book.open() }
func (s *LongShort) RoundTrips() []RoundTrip { return s.book.closedTrips() }

func (s *LongShort) String() string {
	return fmt.Sprintf("LongShort(step=%g ratio=%g levels=%d state=%s level=%d/%.6f)",
		s.grid.Step(), s.ratio, s.grid.Len(), s.state, s.cur, s.grid.Level(s.cur))
}
