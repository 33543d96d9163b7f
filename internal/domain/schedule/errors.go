package schedule

import "errors"

var (
	ErrInvalidThreshold   = errors.New("rounding threshold must be positive")
	ErrInvalidHoursPerDay = errors.New("hours per day must be positive")
)
