package hoursbank

import (
	"time"

	"github.com/shopspring/decimal"
)

var hourNanos = decimal.NewFromInt(int64(time.Hour))

// Accrue is the per-day step function: nothing below the threshold, then one
// hour at the threshold plus one for every full hour beyond it.
func Accrue(worked, threshold decimal.Decimal) decimal.Decimal {
	if worked.LessThan(threshold) {
		return decimal.Zero
	}
	return worked.Sub(threshold).Floor().Add(decimal.NewFromInt(1))
}

// Hours converts a duration to exact decimal hours.
func Hours(d time.Duration) decimal.Decimal {
	return decimal.NewFromInt(int64(d)).Div(hourNanos)
}
