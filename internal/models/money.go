package models

import "github.com/shopspring/decimal"

// AmountPlaces is the number of decimal places monetary amounts are rounded to.
const AmountPlaces = 2

// RoundAmount rounds d to cents, half away from zero.
func RoundAmount(d decimal.Decimal) decimal.Decimal {
	return d.Round(AmountPlaces)
}

// MeanAmount returns the arithmetic mean of amounts rounded to cents.
// It returns zero for an empty slice.
func MeanAmount(amounts []decimal.Decimal) decimal.Decimal {
	if len(amounts) == 0 {
		return decimal.Zero
	}
	return RoundAmount(decimal.Sum(decimal.Zero, amounts...).Div(decimal.NewFromInt(int64(len(amounts)))))
}
