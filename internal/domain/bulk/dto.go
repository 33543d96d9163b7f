package bulk

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/timebank-backend-go/internal/domain/punch"
	"github.com/cmlabs-hris/timebank-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// DeletePhrase must be typed by the administrator to confirm a bulk deletion.
const DeletePhrase = "DELETE"

// Target is one selected (employee, day) pair.
type Target struct {
	UserID string `json:"user_id"`
	Date   string `json:"date"` // YYYY-MM-DD
}

// Confirmation is the safety gate every bulk request carries. ExpectedCount
// must equal the number of selected targets.
type Confirmation struct {
	Acknowledged  bool   `json:"acknowledged"`
	ExpectedCount int    `json:"expected_count"`
	Phrase        string `json:"phrase,omitempty"`
}

type PunchSpec struct {
	Time       string     `json:"time"` // HH:MM, local time
	Type       punch.Type `json:"type"`
	WorkSiteID string     `json:"work_site_id"`
}

type CreatePunchesRequest struct {
	Targets      []Target     `json:"targets"`
	Punches      []PunchSpec  `json:"punches"`
	Confirmation Confirmation `json:"confirmation"`
	RequestedBy  string       `json:"-"`
}

func (r *CreatePunchesRequest) Validate() error {
	errs := validateSelection(r.Targets, r.Confirmation, false)

	if len(r.Punches) == 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "punches",
			Message: "at least one punch is required",
		})
	}

	for i, p := range r.Punches {
		if _, err := time.Parse("15:04", p.Time); err != nil {
			errs = append(errs, validator.ValidationError{
				Field:   fmt.Sprintf("punches[%d].time", i),
				Message: "time must be in HH:MM format",
			})
		}
		if !validator.IsInSlice(string(p.Type), punch.TypeValues) {
			errs = append(errs, validator.ValidationError{
				Field:   fmt.Sprintf("punches[%d].type", i),
				Message: punch.ErrInvalidPunchType.Error(),
			})
		}
		if validator.IsEmpty(p.WorkSiteID) {
			errs = append(errs, validator.ValidationError{
				Field:   fmt.Sprintf("punches[%d].work_site_id", i),
				Message: "work_site_id is required",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type DeletePunchesRequest struct {
	Targets      []Target     `json:"targets"`
	Confirmation Confirmation `json:"confirmation"`
	RequestedBy  string       `json:"-"`
}

func (r *DeletePunchesRequest) Validate() error {
	if errs := validateSelection(r.Targets, r.Confirmation, true); len(errs) > 0 {
		return errs
	}
	return nil
}

type DeleteRecordsRequest struct {
	Targets          []Target     `json:"targets"`
	IncludeAbsences  bool         `json:"include_absences"`
	IncludeOvertimes bool         `json:"include_overtimes"`
	AbsenceTypeCodes []string     `json:"absence_type_codes,omitempty"` // empty means every absence type
	Confirmation     Confirmation `json:"confirmation"`
	RequestedBy      string       `json:"-"`
}

func (r *DeleteRecordsRequest) Validate() error {
	errs := validateSelection(r.Targets, r.Confirmation, true)

	if !r.IncludeAbsences && !r.IncludeOvertimes {
		errs = append(errs, validator.ValidationError{
			Field:   "include_absences",
			Message: "select absences, overtimes or both",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type InsertAbsencesRequest struct {
	Targets      []Target        `json:"targets"`
	TypeCode     string          `json:"type_code"`
	Duration     decimal.Decimal `json:"duration"`
	Confirmation Confirmation    `json:"confirmation"`
	RequestedBy  string          `json:"-"`
}

func (r *InsertAbsencesRequest) Validate() error {
	errs := validateSelection(r.Targets, r.Confirmation, false)

	if validator.IsEmpty(r.TypeCode) {
		errs = append(errs, validator.ValidationError{
			Field:   "type_code",
			Message: "type_code is required",
		})
	}
	if !r.Duration.IsPositive() {
		errs = append(errs, validator.ValidationError{
			Field:   "duration",
			Message: "duration must be positive",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type InsertOvertimesRequest struct {
	Targets       []Target        `json:"targets"`
	TypeCode      string          `json:"type_code"`
	DurationHours decimal.Decimal `json:"duration_hours"`
	Confirmation  Confirmation    `json:"confirmation"`
	RequestedBy   string          `json:"-"`
}

func (r *InsertOvertimesRequest) Validate() error {
	errs := validateSelection(r.Targets, r.Confirmation, false)

	if validator.IsEmpty(r.TypeCode) {
		errs = append(errs, validator.ValidationError{
			Field:   "type_code",
			Message: "type_code is required",
		})
	}
	if !r.DurationHours.IsPositive() {
		errs = append(errs, validator.ValidationError{
			Field:   "duration_hours",
			Message: "duration_hours must be positive",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// validateSelection checks the targets and the confirmation gate shared by
// every bulk request.
func validateSelection(targets []Target, confirmation Confirmation, destructive bool) validator.ValidationErrors {
	var errs validator.ValidationErrors

	if len(targets) == 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "targets",
			Message: ErrNoTargets.Error(),
		})
		return errs
	}

	seen := make(map[Target]struct{}, len(targets))
	for i, t := range targets {
		if validator.IsEmpty(t.UserID) {
			errs = append(errs, validator.ValidationError{
				Field:   fmt.Sprintf("targets[%d].user_id", i),
				Message: "user_id is required",
			})
		}
		if _, ok := validator.IsValidDate(t.Date); !ok {
			errs = append(errs, validator.ValidationError{
				Field:   fmt.Sprintf("targets[%d].date", i),
				Message: "date must be in YYYY-MM-DD format",
			})
		}
		if _, dup := seen[t]; dup {
			errs = append(errs, validator.ValidationError{
				Field:   fmt.Sprintf("targets[%d]", i),
				Message: "duplicate employee and date selection",
			})
		}
		seen[t] = struct{}{}
	}

	switch {
	case !confirmation.Acknowledged:
		errs = append(errs, validator.ValidationError{
			Field:   "confirmation",
			Message: ErrConfirmationRequired.Error(),
		})
	case confirmation.ExpectedCount != len(targets):
		errs = append(errs, validator.ValidationError{
			Field:   "confirmation.expected_count",
			Message: ErrConfirmationMismatch.Error(),
		})
	case destructive && confirmation.Phrase != DeletePhrase:
		errs = append(errs, validator.ValidationError{
			Field:   "confirmation.phrase",
			Message: fmt.Sprintf("type %q to confirm the deletion", DeletePhrase),
		})
	}

	return errs
}
