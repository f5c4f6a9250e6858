package sim

// RealizedPL is the quote-currency profit of opening qty on side at entry
// and closing it at exit. A long profits when exit > entry, a short when
// exit < entry.
func RealizedPL(side Side, qty, entry, exit float64) float64 {
	return float64(side) * qty * (exit - entry)
}

// UnrealizedPL marks an open position of signed asset units against price.
func UnrealizedPL(units, entry, price float64) float64 {
	return units * (price - entry)
}
