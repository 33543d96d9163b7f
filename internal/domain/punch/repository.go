package punch

import (
	"context"
	"time"
)

// Repository is the punch store.
type Repository interface {
	// List returns every punch of a user inside one calendar month, optionally
	// restricted to a single work site.
	List(ctx context.Context, userID string, year, month int, workSiteID *string) ([]Punch, error)

	// ListBetween returns the punches of a user in [from, to).
	ListBetween(ctx context.Context, userID string, from, to time.Time) ([]Punch, error)

	Create(ctx context.Context, p Punch) (Punch, error)
	Confirm(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}
