package baseline

import (
	"fmt"

	"baselinebuilder/pkg/contracts/domain"
)

const (
	// MinDiscount and MaxDiscount bound the discount percentage.
	MinDiscount = -100
	MaxDiscount = 100
)

// ErrDiscountOutOfRange is returned by ValidateDiscount.
var ErrDiscountOutOfRange = fmt.Errorf("discount must be between %d and %d percent", MinDiscount, MaxDiscount)

// ValidateDiscount checks that percent lies in [MinDiscount, MaxDiscount].
func ValidateDiscount(percent int) error {
	if percent < MinDiscount || percent > MaxDiscount {
		return fmt.Errorf("%w: got %d", ErrDiscountOutOfRange, percent)
	}
	return nil
}

// Multiplier returns 1 + percent/100.
func Multiplier(percent int) float64 {
	return 1 + float64(percent)/100
}

// ApplyDiscount returns a copy of rows with every daily rate multiplied by
// Multiplier(percent). The input slice is left untouched.
func ApplyDiscount(rows []domain.RateRow, percent int) []domain.RateRow {
	m := Multiplier(percent)
	out := make([]domain.RateRow, len(rows))
	for i, r := range rows {
		r.DailyRate = r.DailyRate * m
		out[i] = r
	}
	return out
}
