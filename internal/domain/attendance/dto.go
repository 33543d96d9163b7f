package attendance

import (
	"github.com/cmlabs-hris/timebank-backend-go/internal/pkg/validator"
)

// ========================================
// GRID DTOs
// ========================================

// GridQuery is built by the caller from its filters; the engine never reads
// UI state directly.
type GridQuery struct {
	Year        int      `json:"year"`
	Month       int      `json:"month"`
	EmployeeIDs []string `json:"employee_ids,omitempty"` // empty means every active employee
	WorkSiteID  *string  `json:"work_site_id,omitempty"`
}

func (q *GridQuery) Validate() error {
	var errs validator.ValidationErrors

	if q.Month < 1 || q.Month > 12 {
		errs = append(errs, validator.ValidationError{
			Field:   "month",
			Message: "month must be between 1 and 12",
		})
	}

	if q.Year < 2000 || q.Year > 2100 {
		errs = append(errs, validator.ValidationError{
			Field:   "year",
			Message: "year must be between 2000 and 2100",
		})
	}

	for _, id := range q.EmployeeIDs {
		if validator.IsEmpty(id) {
			errs = append(errs, validator.ValidationError{
				Field:   "employee_ids",
				Message: "employee_ids must not contain empty values",
			})
			break
		}
	}

	if q.WorkSiteID != nil && validator.IsEmpty(*q.WorkSiteID) {
		q.WorkSiteID = nil
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type GridDayResponse struct {
	Day         int           `json:"day"`
	Date        string        `json:"date"`
	DisplayText string        `json:"display_text"`
	Color       ColorCategory `json:"color"`
	Tooltip     string        `json:"tooltip,omitempty"`
	WorkedHours float64       `json:"worked_hours"`
}

type GridRowResponse struct {
	UserID             string            `json:"user_id"`
	EmployeeName       string            `json:"employee_name"`
	EmployeeCode       *string           `json:"employee_code,omitempty"`
	Days               []GridDayResponse `json:"days"`
	TotalWorkedHours   float64           `json:"total_worked_hours"`
	TotalOvertimeHours float64           `json:"total_overtime_hours"`
	AbsenceDays        int               `json:"absence_days"`
	Warnings           []string          `json:"warnings,omitempty"`
}

type EmployeeFailure struct {
	UserID       string `json:"user_id"`
	EmployeeName string `json:"employee_name"`
	Reason       string `json:"reason"`
}

type GridResponse struct {
	Year            int               `json:"year"`
	Month           int               `json:"month"`
	DaysInMonth     int               `json:"days_in_month"`
	Rows            []GridRowResponse `json:"rows"`
	LoadedCount     int               `json:"loaded_count"`
	FailedCount     int               `json:"failed_count"`
	FailedEmployees []EmployeeFailure `json:"failed_employees,omitempty"`
}
