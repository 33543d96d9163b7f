package hoursbank

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/timebank-backend-go/internal/domain/hoursbank"
)

// SnapshotJob recomputes every balance and stores the latest value per user.
type SnapshotJob struct {
	service hoursbank.Service
	repo    hoursbank.SnapshotRepository
}

func NewSnapshotJob(service hoursbank.Service, repo hoursbank.SnapshotRepository) *SnapshotJob {
	return &SnapshotJob{service: service, repo: repo}
}

func (j *SnapshotJob) Run(ctx context.Context) error {
	result, err := j.service.Compute(ctx, hoursbank.Query{})
	if err != nil {
		return fmt.Errorf("failed to compute hours bank: %w", err)
	}

	var failed int
	for _, entry := range result.Entries {
		if err := j.repo.Upsert(ctx, entry); err != nil {
			failed++
			slog.Warn("Failed to store hours-bank snapshot", "user_id", entry.UserID, "error", err)
		}
	}

	slog.Info("Hours-bank snapshots refreshed",
		"count", len(result.Entries)-failed,
		"failed", failed,
		"skipped_users", len(result.Failed),
	)

	var errs []error
	if failed > 0 {
		errs = append(errs, fmt.Errorf("%d of %d hours-bank snapshots could not be stored", failed, len(result.Entries)))
	}
	if len(result.Failed) > 0 {
		errs = append(errs, fmt.Errorf("%d users could not be computed", len(result.Failed)))
	}
	return errors.Join(errs...)
}
