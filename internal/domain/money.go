package domain

import "github.com/shopspring/decimal"

// MaxScale is the number of decimal places accepted for sizes, prices and
// ledger amounts.
const MaxScale = 8

// Notional returns size × price, the cash value of an order.
func Notional(size, price decimal.Decimal) decimal.Decimal {
	return size.Mul(price)
}

// WithinScale reports whether d has at most MaxScale decimal places.
func WithinScale(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(MaxScale))
}
