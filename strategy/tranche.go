package strategy

import (
	"math"
	"sort"

	"github.com/rustyeddy/gridsim/sim"
)

type Outcome int

const (
	Filled Outcome = iota
	Rejected
	Skipped
)

func (o Outcome) String() string {
	switch o {
	case Filled:
		return "filled"
	case Rejected:
		return "rejected"
	case Skipped:
		return "skipped"
	}
	return "unknown"
}

// Action is one crossed level and what came of it.
type Action struct {
	Tick       int
	Level      int
	LevelPrice float64
	Side       sim.Side
	Amount     float64
	Outcome    Outcome
	Fill       sim.Fill
	Err        error
}

// Tranche is a position opened at a single grid level.
type Tranche struct {
	Level    int
	Side     sim.Side // Buy = long, Sell = short
	Price    float64
	Qty      float64
	OpenTick int
}

// RoundTrip is a tranche closed one level away from where it opened.
type RoundTrip struct {
	Open       Tranche
	CloseLevel int
	ClosePrice float64
	CloseTick  int
	Qty        float64 // matched quantity, the smaller of the two legs
	PL         float64
}

// book pairs fills into tranches. Longs sit at the level they were bought
// and are closed by a sell one level up; shorts mirror that. Each level is
// a LIFO stack.
type book struct {
	longs  map[int][]Tranche
	shorts map[int][]Tranche
	trips  []RoundTrip
}

func newBook() *book {
	return &book{
		longs:  make(map[int][]Tranche),
		shorts: make(map[int][]Tranche),
	}
}

// match records fill at level. It reports true with the RoundTrip when the
// fill closed an existing tranche, false when it opened a new one.
//
// Legs rarely have equal size because each order is sized from equity at
// the time. When the open tranche is larger, its remainder goes back on
// the stack; when the fill is larger, its remainder opens a tranche at
// level.
func (b *book) match(tick, level int, fill sim.Fill) (RoundTrip, bool) {
	var (
		stack map[int][]Tranche
		key   int
		into  map[int][]Tranche
	)
	switch fill.Side {
	case sim.Sell:
		stack, key, into = b.longs, level-1, b.shorts
	case sim.Buy:
		stack, key, into = b.shorts, level+1, b.longs
	}

	open := stack[key]
	if len(open) == 0 {
		b.push(into, tick, level, fill, fill.Qty)
		return RoundTrip{}, false
	}

	t := open[len(open)-1]
	if len(open) == 1 {
		delete(stack, key)
	} else {
		stack[key] = open[:len(open)-1]
	}

	qty := math.Min(t.Qty, fill.Qty)
	rt := RoundTrip{
		Open:       t,
		CloseLevel: level,
		ClosePrice: fill.Price,
		CloseTick:  tick,
		Qty:        qty,
		PL:         sim.RealizedPL(t.Side, qty, t.Price, fill.Price),
	}
	b.trips = append(b.trips, rt)

	if rest := t.Qty - qty; !dust(rest, t.Qty) {
		t.Qty = rest
		stack[key] = append(stack[key], t)
	}
	if rest := fill.Qty - qty; !dust(rest, fill.Qty) {
		b.push(into, tick, level, fill, rest)
	}
	return rt, true
}

func (b *book) push(into map[int][]Tranche, tick, level int, fill sim.Fill, qty float64) {
	into[level] = append(into[level], Tranche{
		Level:    level,
		Side:     fill.Side,
		Price:    fill.Price,
		Qty:      qty,
		OpenTick: tick,
	})
}

// dust reports whether rest is rounding noise relative to of.
func dust(rest, of float64) bool {
	return rest <= of*1e-9
}

// open lists the open tranches ordered by level, longs before shorts.
func (b *book) open() []Tranche {
	var out []Tranche
	for _, m := range []map[int][]Tranche{b.longs, b.shorts} {
		for _, ts := range m {
			out = append(out, ts...)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Level != out[j].Level {
			return out[i].Level < out[j].Level
		}
		if out[i].Side != out[j].Side {
			return out[i].Side > out[j].Side
		}
		return out[i].OpenTick < out[j].OpenTick
	})
	return out
}

func (b *book) closedTrips() []RoundTrip {
	return append([]RoundTrip(nil), b.trips...)
}
