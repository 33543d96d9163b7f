package employee

import "errors"

var (
	ErrEmployeeNotFound     = errors.New("employee not found")
	ErrEmployeeCodeNotFound = errors.New("employee has no payroll employee code")
)
