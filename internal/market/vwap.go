// Package market computes market-reference statistics from exchange data.
package market

import (
	"ritenv/internal/core"

	"github.com/shopspring/decimal"
)

// VWAP computes the volume-weighted average price of the tape restricted
// to trades at or after startTime.
//
// The null/zero distinction is deliberate and callers branch on it: an
// empty tape yields null (no trades this episode, no benchmark exists),
// while a non-empty tape whose windowed quantity sums to zero yields a
// valid 0 rather than a division error.
func VWAP(trades []core.Trade, startTime int) decimal.NullDecimal {
	if len(trades) == 0 {
		return decimal.NullDecimal{}
	}

	quantity := decimal.Zero
	notional := decimal.Zero
	for _, t := range trades {
		if t.Tick >= startTime {
			quantity = quantity.Add(t.Quantity)
			notional = notional.Add(t.Price.Mul(t.Quantity))
		}
	}

	if quantity.IsZero() {
		return decimal.NullDecimal{Decimal: decimal.Zero, Valid: true}
	}
	return decimal.NullDecimal{Decimal: notional.Div(quantity), Valid: true}
}
