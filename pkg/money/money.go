// Package money keeps price and weight arithmetic in decimal so subtotals
// round exactly to two places.
package money

import "github.com/shopspring/decimal"

const places = 2

// Round2 rounds v half away from zero to two decimal places.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// Subtotal returns round(weight * unitPrice * quantity, 2).
func Subtotal(weight, unitPrice float64, quantity int) float64 {
	return decimal.NewFromFloat(weight).
		Mul(decimal.NewFromFloat(unitPrice)).
		Mul(decimal.NewFromInt(int64(quantity))).
		Round(places).
		InexactFloat64()
}

// Sum adds already rounded amounts without accumulating binary drift.
func Sum(amounts ...float64) float64 {
	total := decimal.Zero
	for _, amount := range amounts {
		total = total.Add(decimal.NewFromFloat(amount))
	}
	return total.Round(places).InexactFloat64()
}

// Equal compares two amounts at cent precision.
func Equal(a, b float64) bool {
	return decimal.NewFromFloat(a).Round(places).Equal(decimal.NewFromFloat(b).Round(places))
}
