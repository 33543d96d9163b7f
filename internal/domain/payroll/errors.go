package payroll

import "errors"

var (
	ErrDictionariesUnavailable = errors.New("payroll type dictionaries are unavailable")
	ErrDuplicateRecord         = errors.New("record already exists in the payroll system")
	ErrRecordNotFound          = errors.New("record not found in the payroll system")
	ErrMissingExternalID       = errors.New("overtime record has no external id")
	ErrUnknownAbsenceType      = errors.New("unknown absence type")
	ErrUnknownOvertimeType     = errors.New("unknown overtime type")
)
