package schedule

import (
	"time"

	"github.com/shopspring/decimal"
)

// Schedule is the hours-bank configuration of one user. A user has at most
// one active schedule; users without one are left out of accrual.
type Schedule struct {
	ID                 string
	UserID             string
	HoursPerDay        decimal.Decimal
	RoundingThreshold  decimal.Decimal
	EffectiveStartDate time.Time
	IsActive           bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Validate rejects schedules the accrual engine cannot apply.
func (s Schedule) Validate() error {
	if !s.HoursPerDay.IsPositive() {
		return ErrInvalidHoursPerDay
	}
	if !s.RoundingThreshold.IsPositive() {
		return ErrInvalidThreshold
	}
	return nil
}
