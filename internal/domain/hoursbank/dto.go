package hoursbank

import (
	"time"

	"github.com/cmlabs-hris/timebank-backend-go/internal/pkg/validator"
)

// Query selects the users an accrual run covers.
type Query struct {
	UserIDs    []string `json:"user_ids,omitempty"` // empty means every active employee
	WorkSiteID *string  `json:"work_site_id,omitempty"`
}

func (q *Query) Validate() error {
	var errs validator.ValidationErrors

	for _, id := range q.UserIDs {
		if validator.IsEmpty(id) {
			errs = append(errs, validator.ValidationError{
				Field:   "user_ids",
				Message: "user_ids must not contain empty values",
			})
			break
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type DayAccrualResponse struct {
	Date        string `json:"date"`
	WorkedHours string `json:"worked_hours"`
	Accrued     string `json:"accrued"`
}

type EntryResponse struct {
	UserID                  string               `json:"user_id"`
	EmployeeName            string               `json:"employee_name"`
	PeriodStart             string               `json:"period_start"`
	CumulativeAccruedHours  string               `json:"cumulative_accrued_hours"`
	CumulativeExpectedHours string               `json:"cumulative_expected_hours"`
	CumulativeDeductedHours string               `json:"cumulative_deducted_hours"`
	NetBalance              string               `json:"net_balance"`
	WorkedDayCount          int                  `json:"worked_day_count"`
	RecentDays              []DayAccrualResponse `json:"recent_days"`
	DeductionsUnavailable   bool                 `json:"deductions_unavailable,omitempty"`
	ComputedAt              string               `json:"computed_at"`
}

// ToResponse renders an entry with decimal hours as strings.
func (e Entry) ToResponse() EntryResponse {
	days := make([]DayAccrualResponse, 0, len(e.RecentDays))
	for _, d := range e.RecentDays {
		days = append(days, DayAccrualResponse{
			Date:        d.Date.Format("2006-01-02"),
			WorkedHours: d.WorkedHours.StringFixed(2),
			Accrued:     d.Accrued.String(),
		})
	}

	return EntryResponse{
		UserID:                  e.UserID,
		EmployeeName:            e.EmployeeName,
		PeriodStart:             e.PeriodStart.Format("2006-01-02"),
		CumulativeAccruedHours:  e.CumulativeAccruedHours.String(),
		CumulativeExpectedHours: e.CumulativeExpectedHours.String(),
		CumulativeDeductedHours: e.CumulativeDeductedHours.String(),
		NetBalance:              e.NetBalance.String(),
		WorkedDayCount:          e.WorkedDayCount,
		RecentDays:              days,
		DeductionsUnavailable:   e.DeductionsUnavailable,
		ComputedAt:              e.ComputedAt.Format(time.RFC3339),
	}
}

type ComputeResponse struct {
	Entries     []EntryResponse `json:"entries"`
	FailedUsers []Failure       `json:"failed_users,omitempty"`
}

func (r Result) ToResponse() ComputeResponse {
	entries := make([]EntryResponse, 0, len(r.Entries))
	for _, e := range r.Entries {
		entries = append(entries, e.ToResponse())
	}
	return ComputeResponse{Entries: entries, FailedUsers: r.Failed}
}
