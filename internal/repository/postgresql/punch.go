package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/timebank-backend-go/internal/domain/punch"
	"github.com/cmlabs-hris/timebank-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type punchRepository struct {
	db *database.DB
}

func NewPunchRepository(db *database.DB) punch.Repository {
	return &punchRepository{db: db}
}

const punchColumns = `id, user_id, punched_at, type, work_site_id, confirmed, created_at`

// List implements punch.Repository.
func (r *punchRepository) List(ctx context.Context, userID string, year, month int, workSiteID *string) ([]punch.Punch, error) {
	q := GetQuerier(ctx, r.db)

	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	// Widened by a day on both sides; callers bucket by local calendar day.
	query := `
		SELECT ` + punchColumns + `
		FROM punches
		WHERE user_id = $1
		  AND punched_at >= $2
		  AND punched_at < $3
		  AND ($4::text IS NULL OR work_site_id = $4)
		ORDER BY punched_at ASC
	`

	rows, err := q.Query(ctx, query, userID, from.AddDate(0, 0, -1), from.AddDate(0, 1, 1), workSiteID)
	if err != nil {
		return nil, fmt.Errorf("failed to list punches: %w", err)
	}
	defer rows.Close()

	punches, err := scanPunches(rows)
	if err != nil {
		return nil, err
	}
	return punches, nil
}

// ListBetween implements punch.Repository.
func (r *punchRepository) ListBetween(ctx context.Context, userID string, from, to time.Time) ([]punch.Punch, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + punchColumns + `
		FROM punches
		WHERE user_id = $1
		  AND punched_at >= $2
		  AND punched_at < $3
		ORDER BY punched_at ASC
	`

	rows, err := q.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list punches between: %w", err)
	}
	defer rows.Close()

	return scanPunches(rows)
}

// Create implements punch.Repository.
func (r *punchRepository) Create(ctx context.Context, p punch.Punch) (punch.Punch, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO punches (user_id, punched_at, type, work_site_id, confirmed)
		VALUES ($1, $2, $3, $4, FALSE)
		RETURNING id, confirmed, created_at
	`

	err := q.QueryRow(ctx, query, p.UserID, p.Timestamp, p.Type, p.WorkSiteID).
		Scan(&p.ID, &p.Confirmed, &p.CreatedAt)
	if err != nil {
		return punch.Punch{}, fmt.Errorf("failed to create punch: %w", err)
	}

	return p, nil
}

// Confirm implements punch.Repository.
func (r *punchRepository) Confirm(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE punches
		SET confirmed = TRUE
		WHERE id = $1 AND confirmed = FALSE
		RETURNING id
	`

	var confirmedID string
	err := q.QueryRow(ctx, query, id).Scan(&confirmedID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("failed to confirm punch %s: %w", id, err)
	}

	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM punches WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check punch %s: %w", id, err)
	}
	if exists {
		return punch.ErrPunchAlreadyConfirmed
	}
	return punch.ErrPunchNotFound
}

// Delete implements punch.Repository.
func (r *punchRepository) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM punches WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete punch %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return punch.ErrPunchNotFound
	}
	return nil
}

func scanPunches(rows pgx.Rows) ([]punch.Punch, error) {
	var punches []punch.Punch
	for rows.Next() {
		var p punch.Punch
		if err := rows.Scan(&p.ID, &p.UserID, &p.Timestamp, &p.Type, &p.WorkSiteID, &p.Confirmed, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan punch: %w", err)
		}
		punches = append(punches, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return punches, nil
}
