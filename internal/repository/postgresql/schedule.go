package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/timebank-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/timebank-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type scheduleRepository struct {
	db *database.DB
}

func NewScheduleRepository(db *database.DB) schedule.Repository {
	return &scheduleRepository{db: db}
}

// GetActiveSchedule implements schedule.Repository.
func (r *scheduleRepository) GetActiveSchedule(ctx context.Context, userID string) (*schedule.Schedule, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, user_id, hours_per_day, rounding_threshold, effective_start_date,
			   is_active, created_at, updated_at
		FROM hours_bank_schedules
		WHERE user_id = $1 AND is_active = TRUE
		ORDER BY effective_start_date DESC
		LIMIT 1
	`

	var s schedule.Schedule
	err := q.QueryRow(ctx, query, userID).Scan(
		&s.ID, &s.UserID, &s.HoursPerDay, &s.RoundingThreshold, &s.EffectiveStartDate,
		&s.IsActive, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active schedule for user %s: %w", userID, err)
	}

	return &s, nil
}
