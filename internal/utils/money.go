package utils

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Round2 rounds to cents, half-up. Money in this service is never negative,
// so decimal's half-away-from-zero rounding is half-up here.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Percent returns round2(amount * pct / 100).
func Percent(amount, pct decimal.Decimal) decimal.Decimal {
	return Round2(amount.Mul(pct).Div(hundred))
}
