package domain

import "math"

// ToBaseUnits converts a human token quantity into base units by scaling
// with 10^decimals and truncating toward zero. Fractional base units below
// one are dropped, not rounded.
func ToBaseUnits(quantity float64, decimals uint8) (uint64, error) {
	if quantity <= 0 || math.IsNaN(quantity) || math.IsInf(quantity, 0) {
		return 0, NewFieldError("quantity", "must be greater than zero")
	}
	scaled := math.Floor(quantity * math.Pow10(int(decimals)))
	if scaled > math.MaxUint64 || scaled < 0 {
		return 0, NewFieldError("quantity", "exceeds representable supply")
	}
	return uint64(scaled), nil
}
