package sim

import "math"

// Balances is the full bookkeeping state of a margin account. Outright
// holdings and debts of the same currency are netted, so at most one of
// Base/BorrowedBase and one of Asset/BorrowedAsset is non-zero.
type Balances struct {
	Base          float64 // quote currency held outright
	Asset         float64 // traded asset held outright
	BorrowedBase  float64 // quote currency owed
	BorrowedAsset float64 // asset owed (short)
}

// Equity is the net account value at price.
func (b Balances) Equity(price float64) float64 {
	return b.Base + b.Asset*price - b.BorrowedBase - b.BorrowedAsset*price
}

// BorrowedValue is the value of everything owed, in quote currency.
func (b Balances) BorrowedValue(price float64) float64 {
	return b.BorrowedBase + b.BorrowedAsset*price
}

// Leverage is borrowed value over equity. A non-positive equity is
// reported as +Inf.
func (b Balances) Leverage(price float64) float64 {
	eq := b.Equity(price)
	if eq <= 0 {
		return math.Inf(1)
	}
	return b.BorrowedValue(price) / eq
}

// NetAsset is the signed asset exposure: positive long, negative short.
func (b Balances) NetAsset() float64 {
	return b.Asset - b.BorrowedAsset
}

// buy spends amount of base (plus fee) for amount/price of asset.
// Received asset repays any asset debt first.
func (b Balances) buy(amount, price, fee float64) Balances {
	cost := amount + fee
	if b.Base >= cost {
		b.Base -= cost
	} else {
		b.BorrowedBase += cost - b.Base
		b.Base = 0
	}

	qty := amount / price
	repay := math.Min(qty, b.BorrowedAsset)
	b.BorrowedAsset -= repay
	b.Asset += qty - repay
	return b
}

// sell delivers amount/price of asset, shorting whatever is not held.
// Proceeds net of fee repay any base debt first.
func (b Balances) sell(amount, price, fee float64) Balances {
	qty := amount / price
	if b.Asset >= qty {
		b.Asset -= qty
	} else {
		b.BorrowedAsset += qty - b.Asset
		b.Asset = 0
	}

	proceeds := amount - fee
	repay := math.Min(proceeds, b.BorrowedBase)
	b.BorrowedBase -= repay
	b.Base += proceeds - repay
	return b
}
