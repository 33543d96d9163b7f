package hoursbank

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cmlabs-hris/timebank-backend-go/internal/config"
	"github.com/cmlabs-hris/timebank-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timebank-backend-go/internal/domain/hoursbank"
	"github.com/cmlabs-hris/timebank-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/timebank-backend-go/internal/domain/punch"
	"github.com/cmlabs-hris/timebank-backend-go/internal/domain/schedule"
	attendancesvc "github.com/cmlabs-hris/timebank-backend-go/internal/service/attendance"
	employeesvc "github.com/cmlabs-hris/timebank-backend-go/internal/service/employee"
	"github.com/cmlabs-hris/timebank-backend-go/internal/service/reconcile"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

type HoursBankServiceImpl struct {
	punchRepo    punch.Repository
	scheduleRepo schedule.Repository
	directory    employee.Directory
	gateway      payroll.Gateway
	cfg          config.HoursBankConfig
	concurrency  int
	loc          *time.Location
	now          func() time.Time
}

func NewHoursBankService(
	punchRepo punch.Repository,
	scheduleRepo schedule.Repository,
	directory employee.Directory,
	gateway payroll.Gateway,
	cfg config.HoursBankConfig,
	concurrency int,
	loc *time.Location,
) *HoursBankServiceImpl {
	if concurrency <= 0 {
		concurrency = 1
	}
	if loc == nil {
		loc = time.UTC
	}
	return &HoursBankServiceImpl{
		punchRepo:    punchRepo,
		scheduleRepo: scheduleRepo,
		directory:    directory,
		gateway:      gateway,
		cfg:          cfg,
		concurrency:  concurrency,
		loc:          loc,
		now:          time.Now,
	}
}

type accrualRun struct {
	now        time.Time
	resolver   *employeesvc.CodeResolver
	reconciler *reconcile.Reconciler
}

// Compute implements hoursbank.Service.
func (s *HoursBankServiceImpl) Compute(ctx context.Context, query hoursbank.Query) (hoursbank.Result, error) {
	if err := query.Validate(); err != nil {
		return hoursbank.Result{}, err
	}

	employees, err := s.scope(ctx, query)
	if err != nil {
		return hoursbank.Result{}, fmt.Errorf("failed to list employees: %w", err)
	}

	run := &accrualRun{
		now:        s.now().In(s.loc),
		resolver:   employeesvc.NewCodeResolver(s.directory),
		reconciler: reconcile.NewReconciler(s.gateway, 1, 0),
	}

	var (
		mu     sync.Mutex
		result = hoursbank.Result{Entries: make([]hoursbank.Entry, 0, len(employees))}
	)

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for _, emp := range employees {
		g.Go(func() error {
			entry, ok, err := s.computeEntry(ctx, run, emp)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				slog.Warn("Skipping user, hours-bank inputs unavailable", "user_id", emp.UserID, "error", err)
				result.Failed = append(result.Failed, hoursbank.Failure{
					UserID:       emp.UserID,
					EmployeeName: emp.FullName,
					Reason:       err.Error(),
				})
			case ok:
				result.Entries = append(result.Entries, entry)
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return hoursbank.Result{}, err
	}

	sort.Slice(result.Entries, func(i, j int) bool {
		a, b := result.Entries[i], result.Entries[j]
		if c := a.NetBalance.Cmp(b.NetBalance); c != 0 {
			return c > 0
		}
		return a.UserID < b.UserID
	})
	sort.Slice(result.Failed, func(i, j int) bool {
		return result.Failed[i].UserID < result.Failed[j].UserID
	})

	return result, nil
}

func (s *HoursBankServiceImpl) scope(ctx context.Context, query hoursbank.Query) ([]employee.Employee, error) {
	if len(query.UserIDs) > 0 {
		return s.directory.GetByUserIDs(ctx, query.UserIDs)
	}
	return s.directory.ListActive(ctx, query.WorkSiteID)
}

// computeEntry returns ok=false for users without a usable schedule. Schedule
// and punch store failures are returned and fail only this user.
func (s *HoursBankServiceImpl) computeEntry(ctx context.Context, run *accrualRun, emp employee.Employee) (hoursbank.Entry, bool, error) {
	sched, err := s.scheduleRepo.GetActiveSchedule(ctx, emp.UserID)
	if err != nil {
		return hoursbank.Entry{}, false, fmt.Errorf("failed to get schedule for %s: %w", emp.UserID, err)
	}
	if sched == nil {
		slog.Debug("Skipping user without hours-bank schedule", "user_id", emp.UserID)
		return hoursbank.Entry{}, false, nil
	}
	if err := sched.Validate(); err != nil {
		slog.Warn("Skipping user with invalid hours-bank schedule", "user_id", emp.UserID, "error", err)
		return hoursbank.Entry{}, false, nil
	}

	esd := sched.EffectiveStartDate
	start := time.Date(esd.Year(), esd.Month(), esd.Day(), 0, 0, 0, 0, s.loc)
	entry := hoursbank.Entry{
		UserID:                  emp.UserID,
		EmployeeName:            emp.FullName,
		PeriodStart:             start,
		CumulativeAccruedHours:  decimal.Zero,
		CumulativeExpectedHours: decimal.Zero,
		CumulativeDeductedHours: decimal.Zero,
		ComputedAt:              run.now,
	}
	if start.After(run.now) {
		entry.NetBalance = decimal.Zero
		return entry, true, nil
	}

	punches, err := s.listPunches(ctx, emp.UserID, start, run.now)
	if err != nil {
		return hoursbank.Entry{}, false, err
	}

	var contributing []hoursbank.DayAccrual
	for _, day := range attendancesvc.AggregateByDay(punches, s.loc) {
		if day.Date.Before(start) || day.Date.After(run.now) {
			continue
		}
		worked := Hours(day.Worked)
		accrued := Accrue(worked, sched.RoundingThreshold)
		if !accrued.IsPositive() {
			continue
		}
		entry.CumulativeAccruedHours = entry.CumulativeAccruedHours.Add(accrued)
		entry.CumulativeExpectedHours = entry.CumulativeExpectedHours.Add(sched.HoursPerDay)
		entry.WorkedDayCount++
		contributing = append(contributing, hoursbank.DayAccrual{
			Date:        day.Date,
			WorkedHours: worked,
			Accrued:     accrued,
		})
	}

	deducted, err := s.deductions(ctx, run, emp.UserID, sched, start)
	if err != nil {
		slog.Warn("Hours-bank deductions unavailable, using zero",
			"user_id", emp.UserID,
			"error", err,
		)
		entry.DeductionsUnavailable = true
		deducted = decimal.Zero
	}
	entry.CumulativeDeductedHours = deducted
	entry.NetBalance = entry.CumulativeAccruedHours.Sub(deducted)
	entry.RecentDays = recent(contributing, s.cfg.RecentDays)

	return entry, true, nil
}

func (s *HoursBankServiceImpl) listPunches(ctx context.Context, userID string, start, end time.Time) ([]punch.Punch, error) {
	var punches []punch.Punch
	for _, m := range months(start, end) {
		from := time.Date(m.year, time.Month(m.month), 1, 0, 0, 0, 0, s.loc)
		batch, err := s.punchRepo.ListBetween(ctx, userID, from, from.AddDate(0, 1, 0))
		if err != nil {
			return nil, fmt.Errorf("failed to list punches for %s %04d-%02d: %w", userID, m.year, m.month, err)
		}
		punches = append(punches, batch...)
	}
	return punches, nil
}

// deductions sums hours-bank-deducting absences. Day-based absences count
// hoursPerDay per day.
func (s *HoursBankServiceImpl) deductions(
	ctx context.Context,
	run *accrualRun,
	userID string,
	sched *schedule.Schedule,
	start time.Time,
) (decimal.Decimal, error) {
	code, err := run.resolver.Resolve(ctx, userID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("resolve employee code: %w", err)
	}

	startDate := calendarDate(start)
	endDate := calendarDate(run.now)

	total := decimal.Zero
	for _, m := range months(start, run.now) {
		records, err := run.reconciler.FetchMonth(ctx, code, m.year, m.month)
		if err != nil {
			return decimal.Zero, err
		}
		for _, absences := range records.Absences {
			for _, a := range absences {
				if !slices.ContainsFunc(s.cfg.DeductingAbsenceCodes, func(c string) bool {
					return strings.EqualFold(strings.TrimSpace(c), a.TypeCode)
				}) {
					continue
				}
				if a.Date.Before(startDate) || a.Date.After(endDate) {
					continue
				}
				if a.IsHourBased {
					total = total.Add(a.Duration)
				} else {
					total = total.Add(a.Duration.Mul(sched.HoursPerDay))
				}
			}
		}
	}
	return total, nil
}

// recent keeps the n most recent contributing days, newest first.
func recent(days []hoursbank.DayAccrual, n int) []hoursbank.DayAccrual {
	sorted := slices.Clone(days)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Date.After(sorted[j].Date)
	})
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

type yearMonth struct {
	year  int
	month int
}

func months(start, end time.Time) []yearMonth {
	var out []yearMonth
	cur := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC)
	for !cur.After(last) {
		out = append(out, yearMonth{year: cur.Year(), month: int(cur.Month())})
		cur = cur.AddDate(0, 1, 0)
	}
	return out
}

// calendarDate matches the UTC-midnight dates of reconciled payroll records.
func calendarDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
