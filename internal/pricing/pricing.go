// Package pricing holds the monetary arithmetic shared by the catalog and the
// cart: percentage discounts, savings and two-place rounding.
package pricing

import "github.com/shopspring/decimal"

var (
	hundred = decimal.NewFromInt(100)
	zero    = decimal.Zero
)

// Discounted returns price reduced by pct percent. The result is not rounded.
func Discounted(price, pct decimal.Decimal) decimal.Decimal {
	factor := hundred.Sub(ClampPercent(pct)).Div(hundred)
	return floorAtZero(price.Mul(factor))
}

// Savings returns the difference between price and its discounted value,
// rounded for display.
func Savings(price, pct decimal.Decimal) decimal.Decimal {
	return Round2(price).Sub(Round2(Discounted(price, pct)))
}

// LineTotal returns price * (1 - pct/100) * quantity without rounding.
// Aggregates must sum these values and round once.
func LineTotal(price, pct decimal.Decimal, quantity int) decimal.Decimal {
	return Discounted(price, pct).Mul(decimal.NewFromInt(int64(quantity)))
}

// Round2 rounds d half away from zero to two decimal places.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ClampPercent limits pct to the [0, 100] range.
func ClampPercent(pct decimal.Decimal) decimal.Decimal {
	if pct.IsNegative() {
		return zero
	}
	if pct.GreaterThan(hundred) {
		return hundred
	}
	return pct
}

// floorAtZero clamps negative values to zero.
func floorAtZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return zero
	}
	return d
}
