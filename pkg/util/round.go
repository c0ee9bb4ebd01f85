package util

import "github.com/shopspring/decimal"

// Round rounds v half away from zero to places decimal digits.
func Round(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}

// Round2 rounds to two decimals (prices, changes).
func Round2(v float64) float64 { return Round(v, 2) }

// Round1 rounds to one decimal (scores, impacts).
func Round1(v float64) float64 { return Round(v, 1) }

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
