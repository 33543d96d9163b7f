package hoursbank

import (
	"time"

	"github.com/shopspring/decimal"
)

// DayAccrual is one worked day that contributed to the balance.
type DayAccrual struct {
	Date        time.Time
	WorkedHours decimal.Decimal
	Accrued     decimal.Decimal
}

// Entry is the derived hours-bank balance of one user.
type Entry struct {
	UserID                  string
	EmployeeName            string
	PeriodStart             time.Time
	CumulativeAccruedHours  decimal.Decimal
	CumulativeExpectedHours decimal.Decimal
	CumulativeDeductedHours decimal.Decimal
	NetBalance              decimal.Decimal
	WorkedDayCount          int
	RecentDays              []DayAccrual

	// DeductionsUnavailable is set when the employee code or the ERP absences
	// could not be read and the deduction was taken as zero.
	DeductionsUnavailable bool
	ComputedAt            time.Time
}

// Failure is a user left out of a run because its inputs could not be read.
type Failure struct {
	UserID       string `json:"user_id"`
	EmployeeName string `json:"employee_name"`
	Reason       string `json:"reason"`
}

type Result struct {
	Entries []Entry
	Failed  []Failure
}
