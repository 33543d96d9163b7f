package hoursbank

import "context"

type Service interface {
	// Compute runs the accrual for every user in scope that has an active
	// schedule, sorted by net balance descending. A user whose punches or
	// schedule cannot be read is reported in Result.Failed.
	Compute(ctx context.Context, query Query) (Result, error)
}
