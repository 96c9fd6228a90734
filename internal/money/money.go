// Package money holds minor-unit (cent) arithmetic helpers.
package money

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

// MaxPriceCents caps a unit price at 100,000,000.00.
const MaxPriceCents int64 = 10_000_000_000

var ErrOverflow = errors.New("amount out of range")

// Format renders cents as a fixed two-decimal amount, e.g. 2599 -> "25.99".
func Format(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

// Tax returns subtotal * bps / 10000 rounded half away from zero.
func Tax(subtotalCents, bps int64) int64 {
	if bps <= 0 || subtotalCents <= 0 {
		return 0
	}
	return decimal.NewFromInt(subtotalCents).
		Mul(decimal.NewFromInt(bps)).
		Div(decimal.NewFromInt(10000)).
		Round(0).
		IntPart()
}

// Line returns unitCents * qty, or ErrOverflow when the product does not fit
// in an int64. Both operands must be non-negative.
func Line(unitCents int64, qty int) (int64, error) {
	if unitCents < 0 || qty < 0 {
		return 0, ErrOverflow
	}
	if qty != 0 && unitCents > math.MaxInt64/int64(qty) {
		return 0, ErrOverflow
	}
	return unitCents * int64(qty), nil
}

// Sum adds non-negative amounts, failing with ErrOverflow instead of wrapping.
func Sum(amounts ...int64) (int64, error) {
	var total int64
	for _, a := range amounts {
		if a < 0 || total > math.MaxInt64-a {
			return 0, ErrOverflow
		}
		total += a
	}
	return total, nil
}
