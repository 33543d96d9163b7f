package bulk

import "errors"

var (
	ErrNoTargets            = errors.New("no targets selected")
	ErrConfirmationRequired = errors.New("operation must be confirmed before it runs")
	ErrConfirmationMismatch = errors.New("confirmed item count does not match the selection")
	ErrNoPunchesOnDay       = errors.New("no punches registered on this day")
	ErrNoRecordsOnDay       = errors.New("no payroll records registered on this day")
)
