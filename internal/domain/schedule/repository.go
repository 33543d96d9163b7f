package schedule

import "context"

type Repository interface {
	// GetActiveSchedule returns nil, nil when the user has no active schedule.
	GetActiveSchedule(ctx context.Context, userID string) (*Schedule, error)
}
