package sim

// Side: +1 buy, -1 sell
type Side int8

const (
	Buy  Side = +1
	Sell Side = -1
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	}
	return "unknown"
}

// Fill is one accepted order.
type Fill struct {
	Seq    int // 1-based trade number
	Tick   int // last tick recorded before the fill
	Side   Side
	Price  float64
	Qty    float64 // asset units
	Amount float64 // notional in base currency
	Fee    float64

	After    Balances
	Leverage float64 // at fill price, after the fill
}
