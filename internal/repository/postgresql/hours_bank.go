package postgresql

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cmlabs-hris/timebank-backend-go/internal/domain/hoursbank"
	"github.com/cmlabs-hris/timebank-backend-go/internal/pkg/database"
)

type hoursBankSnapshotRepository struct {
	db *database.DB
}

func NewHoursBankSnapshotRepository(db *database.DB) hoursbank.SnapshotRepository {
	return &hoursBankSnapshotRepository{db: db}
}

// Upsert implements hoursbank.SnapshotRepository.
func (r *hoursBankSnapshotRepository) Upsert(ctx context.Context, entry hoursbank.Entry) error {
	q := GetQuerier(ctx, r.db)

	recent, err := json.Marshal(entry.RecentDays)
	if err != nil {
		return fmt.Errorf("failed to encode recent days: %w", err)
	}

	query := `
		INSERT INTO hours_bank_snapshots (
			user_id, employee_name, period_start, accrued_hours, expected_hours,
			deducted_hours, net_balance, worked_day_count, recent_days,
			deductions_unavailable, computed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (user_id) DO UPDATE SET
			employee_name = EXCLUDED.employee_name,
			period_start = EXCLUDED.period_start,
			accrued_hours = EXCLUDED.accrued_hours,
			expected_hours = EXCLUDED.expected_hours,
			deducted_hours = EXCLUDED.deducted_hours,
			net_balance = EXCLUDED.net_balance,
			worked_day_count = EXCLUDED.worked_day_count,
			recent_days = EXCLUDED.recent_days,
			deductions_unavailable = EXCLUDED.deductions_unavailable,
			computed_at = EXCLUDED.computed_at
	`

	_, err = q.Exec(ctx, query,
		entry.UserID,
		entry.EmployeeName,
		entry.PeriodStart,
		entry.CumulativeAccruedHours,
		entry.CumulativeExpectedHours,
		entry.CumulativeDeductedHours,
		entry.NetBalance,
		entry.WorkedDayCount,
		recent,
		entry.DeductionsUnavailable,
		entry.ComputedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert hours bank snapshot for user %s: %w", entry.UserID, err)
	}

	return nil
}

// List implements hoursbank.SnapshotRepository.
func (r *hoursBankSnapshotRepository) List(ctx context.Context) ([]hoursbank.Entry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT user_id, employee_name, period_start, accrued_hours, expected_hours,
			   deducted_hours, net_balance, worked_day_count, recent_days,
			   deductions_unavailable, computed_at
		FROM hours_bank_snapshots
		ORDER BY net_balance DESC, user_id ASC
	`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list hours bank snapshots: %w", err)
	}
	defer rows.Close()

	var entries []hoursbank.Entry
	for rows.Next() {
		var (
			e      hoursbank.Entry
			recent []byte
		)
		err := rows.Scan(
			&e.UserID, &e.EmployeeName, &e.PeriodStart, &e.CumulativeAccruedHours, &e.CumulativeExpectedHours,
			&e.CumulativeDeductedHours, &e.NetBalance, &e.WorkedDayCount, &recent,
			&e.DeductionsUnavailable, &e.ComputedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan hours bank snapshot: %w", err)
		}
		if len(recent) > 0 {
			if err := json.Unmarshal(recent, &e.RecentDays); err != nil {
				return nil, fmt.Errorf("failed to decode recent days of user %s: %w", e.UserID, err)
			}
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}
