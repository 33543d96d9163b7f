package hoursbank

import "context"

// SnapshotRepository persists the latest computed balance per user.
type SnapshotRepository interface {
	Upsert(ctx context.Context, entry Entry) error
	List(ctx context.Context) ([]Entry, error)
}
