package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/cmlabs-hris/timebank-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/timebank-backend-go/internal/pkg/erp"
	"golang.org/x/sync/singleflight"
)

// Reconciler reads ERP absences and overtimes and joins them to employees by
// payroll code. One Reconciler is meant to live for one load session: the
// monthly dataset it fetches is shared by every employee of that session.
type Reconciler struct {
	gateway  payroll.Gateway
	attempts uint
	delay    time.Duration

	group  singleflight.Group
	mu     sync.Mutex
	months map[string][]payroll.MonthlyRow
}

func NewReconciler(gateway payroll.Gateway, attempts uint, delay time.Duration) *Reconciler {
	if attempts == 0 {
		attempts = 1
	}
	return &Reconciler{
		gateway:  gateway,
		attempts: attempts,
		delay:    delay,
		months:   make(map[string][]payroll.MonthlyRow),
	}
}

// LoadDictionaries fetches both type tables, retrying at a fixed delay. When
// every attempt fails it returns payroll.ErrDictionariesUnavailable.
func (r *Reconciler) LoadDictionaries(ctx context.Context) (payroll.Dictionaries, error) {
	load := func() (payroll.Dictionaries, error) {
		absence, err := r.gateway.ListAbsenceTypes(ctx)
		if err != nil {
			return payroll.Dictionaries{}, retryable(fmt.Errorf("list absence types: %w", err))
		}
		overtime, err := r.gateway.ListOvertimeTypes(ctx)
		if err != nil {
			return payroll.Dictionaries{}, retryable(fmt.Errorf("list overtime types: %w", err))
		}
		return payroll.Dictionaries{Absence: absence, Overtime: overtime}, nil
	}

	dict, err := backoff.Retry(ctx, load,
		backoff.WithBackOff(backoff.NewConstantBackOff(r.delay)),
		backoff.WithMaxTries(r.attempts),
		backoff.WithNotify(func(err error, next time.Duration) {
			slog.Warn("Payroll dictionaries load failed, retrying", "error", err, "retry_in", next)
		}),
	)
	if err != nil {
		return payroll.Dictionaries{}, fmt.Errorf("%w: %v", payroll.ErrDictionariesUnavailable, err)
	}
	return dict, nil
}

// retryable stops the retry loop on ERP answers that will not change, such as
// authorization failures.
func retryable(err error) error {
	if !erp.IsTemporary(err) {
		return backoff.Permanent(err)
	}
	return err
}

// FetchMonth returns the absences and overtimes of one employee code in one
// month, keyed by day of month.
func (r *Reconciler) FetchMonth(ctx context.Context, employeeCode string, year, month int) (payroll.MonthlyRecords, error) {
	rows, err := r.monthRows(ctx, year, month)
	if err != nil {
		return payroll.MonthlyRecords{}, err
	}
	return Reconcile(rows, employeeCode, year, month), nil
}

// monthRows fetches a month once per session. Concurrent callers share the
// in-flight request and failures are not cached.
func (r *Reconciler) monthRows(ctx context.Context, year, month int) ([]payroll.MonthlyRow, error) {
	key := fmt.Sprintf("%04d-%02d", year, month)

	r.mu.Lock()
	rows, ok := r.months[key]
	r.mu.Unlock()
	if ok {
		return rows, nil
	}

	v, err, _ := r.group.Do(key, func() (any, error) {
		rows, err := r.gateway.ListMonthly(ctx, year, month)
		if err != nil {
			return nil, fmt.Errorf("list payroll movements %s: %w", key, err)
		}
		r.mu.Lock()
		r.months[key] = rows
		r.mu.Unlock()
		return rows, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]payroll.MonthlyRow), nil
}

// Reconcile scopes a raw monthly dataset to one employee code. Rows outside
// the requested month or missing a code, date or type are dropped.
func Reconcile(rows []payroll.MonthlyRow, employeeCode string, year, month int) payroll.MonthlyRecords {
	records := payroll.NewMonthlyRecords()
	employeeCode = strings.TrimSpace(employeeCode)
	if employeeCode == "" {
		return records
	}

	for i, row := range rows {
		switch kindOf(row) {
		case rowAbsence:
			absence, err := normalizeAbsence(row)
			if err != nil {
				slog.Debug("Dropping malformed absence row", "row", i, "error", err)
				continue
			}
			if !belongs(absence.EmployeeCode, absence.Date, employeeCode, year, month) {
				continue
			}
			day := absence.Date.Day()
			records.Absences[day] = append(records.Absences[day], absence)

		case rowOvertime:
			overtime, err := normalizeOvertime(row)
			if err != nil {
				slog.Debug("Dropping malformed overtime row", "row", i, "error", err)
				continue
			}
			if !belongs(overtime.EmployeeCode, overtime.Date, employeeCode, year, month) {
				continue
			}
			day := overtime.Date.Day()
			records.Overtimes[day] = append(records.Overtimes[day], overtime)

		default:
			slog.Debug("Dropping payroll row without type", "row", i)
		}
	}

	return records
}

func belongs(code string, date time.Time, employeeCode string, year, month int) bool {
	if !strings.EqualFold(code, employeeCode) {
		return false
	}
	return date.Year() == year && int(date.Month()) == month
}
