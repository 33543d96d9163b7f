package postgresql_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/timebank-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timebank-backend-go/internal/domain/hoursbank"
	"github.com/cmlabs-hris/timebank-backend-go/internal/domain/punch"
	"github.com/cmlabs-hris/timebank-backend-go/internal/repository/postgresql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPunchRepository(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	repo := postgresql.NewPunchRepository(setup.DB)

	in := time.Date(2024, time.March, 4, 11, 0, 0, 0, time.UTC)
	created, err := repo.Create(ctx, punch.Punch{UserID: "u1", Timestamp: in, Type: punch.TypeEntrada, WorkSiteID: "site-a"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.Confirmed)

	_, err = repo.Create(ctx, punch.Punch{UserID: "u1", Timestamp: in.Add(8 * time.Hour), Type: punch.TypeSaida, WorkSiteID: "site-b"})
	require.NoError(t, err)

	require.NoError(t, repo.Confirm(ctx, created.ID))
	assert.ErrorIs(t, repo.Confirm(ctx, created.ID), punch.ErrPunchAlreadyConfirmed)

	site := "site-a"
	month, err := repo.List(ctx, "u1", 2024, 3, &site)
	require.NoError(t, err)
	require.Len(t, month, 1)
	assert.True(t, month[0].Confirmed)

	day, err := repo.ListBetween(ctx, "u1", time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC), time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, day, 2)

	require.NoError(t, repo.Delete(ctx, created.ID))
	assert.ErrorIs(t, repo.Delete(ctx, created.ID), punch.ErrPunchNotFound)
}

func TestInTxRollsBack(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	repo := postgresql.NewPunchRepository(setup.DB)
	inTx := postgresql.InTx(setup.DB)

	err := inTx(ctx, func(txCtx context.Context) error {
		_, err := repo.Create(txCtx, punch.Punch{UserID: "u2", Timestamp: time.Now(), Type: punch.TypeEntrada, WorkSiteID: "site-a"})
		require.NoError(t, err)
		return errors.New("abort")
	})
	require.Error(t, err)

	punches, err := repo.ListBetween(ctx, "u2", time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, punches)
}

func TestEmployeeDirectory(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	_, err := setup.DB.Exec(ctx, `
		INSERT INTO employees (user_id, full_name, employee_code, work_site_id, employment_status) VALUES
			('u1', 'Ana', '100', 'site-a', 'active'),
			('u2', 'Bruno', NULL, 'site-b', 'active'),
			('u3', 'Carla', '300', 'site-a', 'resigned')
	`)
	require.NoError(t, err)

	dir := postgresql.NewEmployeeDirectory(setup.DB)

	code, err := dir.GetEmployeeCode(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "100", code)

	_, err = dir.GetEmployeeCode(ctx, "u2")
	assert.ErrorIs(t, err, employee.ErrEmployeeCodeNotFound)
	_, err = dir.GetEmployeeCode(ctx, "nobody")
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)

	site := "site-a"
	active, err := dir.ListActive(ctx, &site)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "u1", active[0].UserID)

	byIDs, err := dir.GetByUserIDs(ctx, []string{"u2", "u3"})
	require.NoError(t, err)
	assert.Len(t, byIDs, 2)
}

func TestScheduleAndSnapshots(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	_, err := setup.DB.Exec(ctx, `
		INSERT INTO hours_bank_schedules (user_id, hours_per_day, rounding_threshold, effective_start_date)
		VALUES ('u1', 8, 8.75, '2024-03-01')
	`)
	require.NoError(t, err)

	schedules := postgresql.NewScheduleRepository(setup.DB)
	s, err := schedules.GetActiveSchedule(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.True(t, decimal.RequireFromString("8.75").Equal(s.RoundingThreshold))

	none, err := schedules.GetActiveSchedule(ctx, "u2")
	require.NoError(t, err)
	assert.Nil(t, none)

	snapshots := postgresql.NewHoursBankSnapshotRepository(setup.DB)
	entry := hoursbank.Entry{
		UserID:                  "u1",
		EmployeeName:            "Ana",
		PeriodStart:             time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		CumulativeAccruedHours:  decimal.NewFromInt(4),
		CumulativeExpectedHours: decimal.NewFromInt(16),
		CumulativeDeductedHours: decimal.NewFromInt(10),
		NetBalance:              decimal.NewFromInt(-6),
		WorkedDayCount:          2,
		RecentDays: []hoursbank.DayAccrual{
			{Date: time.Date(2024, time.March, 6, 0, 0, 0, 0, time.UTC), WorkedHours: decimal.RequireFromString("10.9"), Accrued: decimal.NewFromInt(3)},
		},
		ComputedAt: time.Now().UTC(),
	}
	require.NoError(t, snapshots.Upsert(ctx, entry))
	entry.NetBalance = decimal.NewFromInt(-5)
	require.NoError(t, snapshots.Upsert(ctx, entry))

	stored, err := snapshots.List(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.True(t, decimal.NewFromInt(-5).Equal(stored[0].NetBalance))
	require.Len(t, stored[0].RecentDays, 1)
	assert.True(t, decimal.NewFromInt(3).Equal(stored[0].RecentDays[0].Accrued))
}
