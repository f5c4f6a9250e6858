package strategy

import (
	"errors"
	"math"
	"testing"

	"github.com/rustyeddy/gridsim/sim"
	"github.com/rustyeddy/gridsim/simerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newLedger(t *testing.T, maxLev float64) *sim.Ledger {
	t.Helper()
	l, err := sim.NewLedger(sim.LedgerConfig{InitialBase: 1000, MaxLeverage: maxLev})
	require.NoError(t, err)
	return l
}

// drive feeds prices the way the backtest runner does: ledger first, then
// the strategy, for the same tick.
func drive(t *testing.T, l *sim.Ledger, s *LongShort, prices []float64) {
	t.Helper()
	for i, p := range prices {
		require.NoError(t, l.Update(i, p))
		require.NoError(t, s.Update(i, p))
	}
}

func newTrader(t *testing.T, acct Account, levels int) *LongShort {
	t.Helper()
	s, err := NewLongShort(acct, Config{
		InitialPrice:       100,
		Step:               0.02,
		OrderPairSizeRatio: 0.01,
		Levels:             levels,
	}, nil)
	require.NoError(t, err)
	return s
}

func TestNewLongShortValidation(t *testing.T) {
	t.Parallel()

	l := newLedger(t, 3)

	tests := []struct {
		name  string
		acct  Account
		cfg   Config
		field string
	}{
		{"nil account", nil, Config{InitialPrice: 100, Step: 0.02, OrderPairSizeRatio: 0.01}, "account"},
		{"zero ratio", l, Config{InitialPrice: 100, Step: 0.02, OrderPairSizeRatio: 0}, "order_pair_size_ratio"},
		{"ratio above one", l, Config{InitialPrice: 100, Step: 0.02, OrderPairSizeRatio: 1.5}, "order_pair_size_ratio"},
		{"zero step", l, Config{InitialPrice: 100, Step: 0, OrderPairSizeRatio: 0.01}, "step"},
		{"zero price", l, Config{InitialPrice: 0, Step: 0.02, OrderPairSizeRatio: 0.01}, "initial_price"},
	}

	for _, tt := range tests {
		_, err := NewLongShort(tt.acct, tt.cfg, nil)
		require.Error(t, err, tt.name)
		var ce *simerr.ConfigError
		require.True(t, errors.As(err, &ce), tt.name)
		assert.Equal(t, tt.field, ce.Field, tt.name)
	}
}

func TestLongShortInitialState(t *testing.T) {
	t.Parallel()

	s := newTrader(t, newLedger(t, 3), 0)
	assert.Equal(t, Initialized, s.State())
	assert.Equal(t, 2*DefaultLevels+1, s.Grid().Len())
	assert.Equal(t, s.Grid().AnchorIndex(), s.CurrentLevelIndex())
	assert.Equal(t, 100.0, s.Grid().Level(s.CurrentLevelIndex()))

	require.NoError(t, s.Update(0, 100))
	assert.Equal(t, Active, s.State())
	assert.Contains(t, s.String(), "state=ACTIVE")
}

func TestNoCrossingNoTrades(t *testing.T) {
	t.Parallel()

	l := newLedger(t, 3)
	s := newTrader(t, l, 10)

	drive(t, l, s, []float64{100, 101, 99, 100.5, 98.5, 101.9, 100})
	assert.Equal(t, 0, l.TradeCount())
	assert.Empty(t, s.Actions())
	assert.Equal(t, 10, s.CurrentLevelIndex())
}

func TestCrossingUpTwoLevels(t *testing.T) {
	t.Parallel()

	l := newLedger(t, 3)
	s := newTrader(t, l, 10)

	drive(t, l, s, []float64{100, 101, 103, 105})

	assert.Equal(t, 2, l.TradeCount())
	acts := s.Actions()
	require.Len(t, acts, 2)
	for _, a := range acts {
		assert.Equal(t, sim.Sell, a.Side)
		assert.Equal(t, Filled, a.Outcome)
	}
	assert.InDelta(t, 102, acts[0].LevelPrice, 1e-9)
	assert.Equal(t, 2, acts[0].Tick)
	assert.InDelta(t, 104.04, acts[1].LevelPrice, 1e-9)
	assert.Equal(t, 3, acts[1].Tick)

	// first order is 1% of equity at the level price
	assert.InDelta(t, 10, acts[0].Amount, 1e-9)
	assert.Equal(t, 12, s.CurrentLevelIndex())
}

func TestSingleTickJumpCrossesEveryLevel(t *testing.T) {
	t.Parallel()

	l := newLedger(t, 3)
	s := newTrader(t, l, 10)

	drive(t, l, s, []float64{100, 110})

	// 102, 104.04, 106.12, 108.24 all lie in (100, 110]
	assert.Equal(t, 4, l.TradeCount())
	acts := s.Actions()
	require.Len(t, acts, 4)
	for i := 1; i < len(acts); i++ {
		assert.Greater(t, acts[i].LevelPrice, acts[i-1].LevelPrice)
		assert.Equal(t, 1, acts[i].Tick)
	}

	// the pointer rests on the last crossed level, 108.24, even though
	// the uncrossed 110.41 is nearer to 110
	g := s.Grid()
	assert.Equal(t, 14, s.CurrentLevelIndex())
	assert.InDelta(t, 100*math.Pow(1.02, 4), g.Level(s.CurrentLevelIndex()), 1e-9)
	assert.Equal(t, 15, g.NearestIndex(110))

	// reaching 110.41 later trades it exactly once
	require.NoError(t, l.Update(2, g.Level(15)))
	require.NoError(t, s.Update(2, g.Level(15)))
	assert.Equal(t, 5, l.TradeCount())
	assert.Equal(t, 15, s.CurrentLevelIndex())
}

func TestCrossingDownIssuesBuys(t *testing.T) {
	t.Parallel()

	l := newLedger(t, 3)
	s := newTrader(t, l, 10)

	drive(t, l, s, []float64{100, 96})

	acts := s.Actions()
	require.Len(t, acts, 2)
	assert.Equal(t, sim.Buy, acts[0].Side)
	assert.InDelta(t, 100/1.02, acts[0].LevelPrice, 1e-9)
	assert.InDelta(t, 100/1.02/1.02, acts[1].LevelPrice, 1e-9)
	assert.Greater(t, acts[0].LevelPrice, acts[1].LevelPrice)
	assert.Equal(t, 8, s.CurrentLevelIndex())
	assert.Greater(t, l.Balances().Asset, 0.0)
}

func TestPriceExactlyOnLevelCrosses(t *testing.T) {
	t.Parallel()

	l := newLedger(t, 3)
	s := newTrader(t, l, 10)
	up := s.Grid().Level(11)

	drive(t, l, s, []float64{100, up})
	assert.Equal(t, 1, l.TradeCount())
}

func TestOscillationPairsTranches(t *testing.T) {
	t.Parallel()

	l := newLedger(t, 3)
	s := newTrader(t, l, 10)

	drive(t, l, s, []float64{100, 102.5, 99.9, 102.5})

	assert.Equal(t, 3, l.TradeCount())

	// sell 102 opens a short; buy 100 covers it and, being sized on the
	// larger equity, leaves a small long; sell 102 closes that long and
	// the rest of it opens a new short
	trips := s.RoundTrips()
	require.Len(t, trips, 2)
	rt := trips[0]
	assert.Equal(t, sim.Sell, rt.Open.Side)
	assert.Equal(t, 11, rt.Open.Level)
	assert.Equal(t, 10, rt.CloseLevel)
	assert.Equal(t, 2, rt.CloseTick)
	assert.InDelta(t, 10/102.0, rt.Qty, 1e-12)
	assert.Greater(t, rt.PL, 0.0)
	assert.InDelta(t, rt.Qty*(102-100), rt.PL, 1e-9)

	fills := l.Fills()
	require.Len(t, fills, 3)
	back := trips[1]
	assert.Equal(t, sim.Buy, back.Open.Side)
	assert.Equal(t, 10, back.Open.Level)
	assert.Equal(t, 11, back.CloseLevel)
	assert.InDelta(t, fills[1].Qty-fills[0].Qty, back.Qty, 1e-12)
	assert.Greater(t, back.PL, 0.0)

	open := s.OpenTranches()
	require.Len(t, open, 1)
	assert.Equal(t, sim.Sell, open[0].Side)
	assert.Equal(t, 11, open[0].Level)
	assert.Equal(t, 3, open[0].OpenTick)
	assert.InDelta(t, fills[2].Qty-back.Qty, open[0].Qty, 1e-12)
}

func TestLongTrancheClosedBySellOneLevelUp(t *testing.T) {
	t.Parallel()

	l := newLedger(t, 3)
	s := newTrader(t, l, 10)

	drive(t, l, s, []float64{100, 97.9, 100.1})

	trips := s.RoundTrips()
	require.Len(t, trips, 1)
	assert.Equal(t, sim.Buy, trips[0].Open.Side)
	assert.Equal(t, 9, trips[0].Open.Level)
	assert.Equal(t, 10, trips[0].CloseLevel)
	assert.Greater(t, trips[0].PL, 0.0)

	// the sell is sized on equity at 100 and covers less than was bought
	bought := 10 / s.Grid().Level(9)
	assert.Less(t, trips[0].Qty, bought)
	open := s.OpenTranches()
	require.Len(t, open, 1)
	assert.Equal(t, sim.Buy, open[0].Side)
	assert.Equal(t, 9, open[0].Level)
	assert.Equal(t, 1, open[0].OpenTick)
	assert.InDelta(t, bought-trips[0].Qty, open[0].Qty, 1e-12)
}

func TestGridBoundaryCrossedOnce(t *testing.T) {
	t.Parallel()

	l := newLedger(t, 3)
	s := newTrader(t, l, 3) // top level 106.1208

	drive(t, l, s, []float64{100, 1000, 2000, 1500})
	assert.Equal(t, 3, l.TradeCount())
	assert.Equal(t, s.Grid().Len()-1, s.CurrentLevelIndex())

	// Coming back inside the grid crosses the next level down once.
	require.NoError(t, l.Update(4, 104))
	require.NoError(t, s.Update(4, 104))
	assert.Equal(t, 4, l.TradeCount())
	assert.Equal(t, 5, s.CurrentLevelIndex())
}

func TestGridBottomBoundary(t *testing.T) {
	t.Parallel()

	l := newLedger(t, 3)
	s := newTrader(t, l, 2)

	drive(t, l, s, []float64{100, 1, 0.5})
	assert.Equal(t, 2, l.TradeCount())
	assert.Equal(t, 0, s.CurrentLevelIndex())
}

func TestMarginRejectionSkipsLevelAndContinues(t *testing.T) {
	t.Parallel()

	l := newLedger(t, 0.015)
	s := newTrader(t, l, 10)

	drive(t, l, s, []float64{100, 105})

	// The first sell fits under the ceiling, the second does not.
	assert.Equal(t, 1, l.TradeCount())
	assert.Equal(t, 1, l.RejectedCount())
	assert.Equal(t, 1, s.Rejected())

	acts := s.Actions()
	require.Len(t, acts, 2)
	assert.Equal(t, Filled, acts[0].Outcome)
	assert.Equal(t, Rejected, acts[1].Outcome)
	assert.True(t, errors.Is(acts[1].Err, simerr.ErrMarginExceeded))

	// the level pointer still advances past the rejected level
	assert.Equal(t, 12, s.CurrentLevelIndex())
}

type fakeAccount struct {
	equity   float64
	rejectAt map[int]bool // call number -> reject
	failAt   map[int]error
	calls    int
	sides    []sim.Side
}

func (f *fakeAccount) place(side sim.Side, amount, price float64) (sim.Fill, error) {
	f.calls++
	if err, ok := f.failAt[f.calls]; ok {
		return sim.Fill{}, err
	}
	if f.rejectAt[f.calls] {
		return sim.Fill{}, &simerr.MarginExceededError{Side: side.String(), Amount: amount, Price: price}
	}
	f.sides = append(f.sides, side)
	return sim.Fill{Seq: len(f.sides), Side: side, Price: price, Qty: amount / price, Amount: amount}, nil
}

func (f *fakeAccount) Buy(amount, price float64) (sim.Fill, error) {
	return f.place(sim.Buy, amount, price)
}

func (f *fakeAccount) Sell(amount, price float64) (sim.Fill, error) {
	return f.place(sim.Sell, amount, price)
}

func (f *fakeAccount) InvestmentValue(price float64) float64 { return f.equity }

func TestRejectionInMiddleOfJump(t *testing.T) {
	t.Parallel()

	acct := &fakeAccount{equity: 1000, rejectAt: map[int]bool{2: true}}
	s := newTrader(t, acct, 10)

	require.NoError(t, s.Update(0, 100))
	require.NoError(t, s.Update(1, 110))

	assert.Equal(t, 4, acct.calls)
	assert.Len(t, acct.sides, 3)
	assert.Equal(t, 1, s.Rejected())
	assert.Equal(t, 14, s.CurrentLevelIndex())

	outcomes := []Outcome{}
	for _, a := range s.Actions() {
		outcomes = append(outcomes, a.Outcome)
	}
	assert.Equal(t, []Outcome{Filled, Rejected, Filled, Filled}, outcomes)
}

func TestNonMarginErrorAbortsTick(t *testing.T) {
	t.Parallel()

	boom := errors.New("ledger exploded")
	acct := &fakeAccount{equity: 1000, failAt: map[int]error{2: boom}}
	s := newTrader(t, acct, 10)

	require.NoError(t, s.Update(0, 100))
	err := s.Update(1, 110)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 11, s.CurrentLevelIndex())
}

func TestNoEquitySkipsOrders(t *testing.T) {
	t.Parallel()

	acct := &fakeAccount{equity: 0}
	s := newTrader(t, acct, 10)

	require.NoError(t, s.Update(0, 105))
	assert.Equal(t, 0, acct.calls)
	assert.Equal(t, 2, s.Rejected())
	for _, a := range s.Actions() {
		assert.Equal(t, Skipped, a.Outcome)
	}
}

func TestUpdateSequenceErrors(t *testing.T) {
	t.Parallel()

	s := newTrader(t, newLedger(t, 3), 10)
	require.NoError(t, s.Update(0, 100))

	err := s.Update(0, 100)
	assert.ErrorIs(t, err, simerr.ErrSequence)

	for _, p := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		err := s.Update(1, p)
		assert.ErrorIs(t, err, simerr.ErrSequence, "price %g", p)
	}
	require.NoError(t, s.Update(1, 100))
}

func TestRejectionsAreLogged(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.InfoLevel)
	l := newLedger(t, 0.015)
	s, err := NewLongShort(l, Config{InitialPrice: 100, Step: 0.02, OrderPairSizeRatio: 0.01, Levels: 10}, zap.New(core))
	require.NoError(t, err)

	drive(t, l, s, []float64{100, 105})

	entries := logs.FilterMessage("grid order rejected").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(1), entries[0].ContextMap()["tick"])
	assert.Equal(t, "sell", entries[0].ContextMap()["side"])
}
