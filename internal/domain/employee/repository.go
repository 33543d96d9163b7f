package employee

import "context"

// Directory resolves internal users against the payroll employee register.
type Directory interface {
	// GetEmployeeCode returns the payroll system code of a user, or
	// ErrEmployeeCodeNotFound when the user has none.
	GetEmployeeCode(ctx context.Context, userID string) (string, error)

	// ListActive returns active employees, optionally restricted to one work site.
	ListActive(ctx context.Context, workSiteID *string) ([]Employee, error)

	GetByUserIDs(ctx context.Context, userIDs []string) ([]Employee, error)
}
