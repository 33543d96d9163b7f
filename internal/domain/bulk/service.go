package bulk

import "context"

// Service runs multi-target mutations one item at a time and reports a single
// consolidated outcome.
type Service interface {
	CreatePunches(ctx context.Context, req CreatePunchesRequest) (Summary, error)
	DeletePunches(ctx context.Context, req DeletePunchesRequest) (Summary, error)
	DeleteRecords(ctx context.Context, req DeleteRecordsRequest) (Summary, error)
	InsertAbsences(ctx context.Context, req InsertAbsencesRequest) (Summary, error)
	InsertOvertimes(ctx context.Context, req InsertOvertimesRequest) (Summary, error)
}
