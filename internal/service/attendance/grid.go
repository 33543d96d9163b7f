package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/cmlabs-hris/timebank-backend-go/internal/config"
	"github.com/cmlabs-hris/timebank-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/timebank-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timebank-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/timebank-backend-go/internal/domain/punch"
	employeesvc "github.com/cmlabs-hris/timebank-backend-go/internal/service/employee"
	"github.com/cmlabs-hris/timebank-backend-go/internal/service/reconcile"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

type GridServiceImpl struct {
	punchRepo  punch.Repository
	directory  employee.Directory
	gateway    payroll.Gateway
	classifier *Classifier
	cfg        config.AttendanceConfig
	loc        *time.Location
}

func NewGridService(
	punchRepo punch.Repository,
	directory employee.Directory,
	gateway payroll.Gateway,
	cfg config.AttendanceConfig,
	loc *time.Location,
) attendance.GridService {
	if cfg.GridBatchSize <= 0 {
		cfg.GridBatchSize = 30
	}
	if loc == nil {
		loc = time.UTC
	}
	return &GridServiceImpl{
		punchRepo:  punchRepo,
		directory:  directory,
		gateway:    gateway,
		classifier: NewClassifier(cfg.FullDayAbsenceCodes),
		cfg:        cfg,
		loc:        loc,
	}
}

// gridSession holds the caches of one grid load.
type gridSession struct {
	query      attendance.GridQuery
	dict       payroll.Dictionaries
	resolver   *employeesvc.CodeResolver
	reconciler *reconcile.Reconciler
}

type rowResult struct {
	row     *attendance.GridRowResponse
	failure *attendance.EmployeeFailure
}

// LoadGrid implements attendance.GridService.
func (s *GridServiceImpl) LoadGrid(ctx context.Context, query attendance.GridQuery) (attendance.GridResponse, error) {
	if err := query.Validate(); err != nil {
		return attendance.GridResponse{}, err
	}

	reconciler := reconcile.NewReconciler(s.gateway, s.cfg.DictionaryAttempts, s.cfg.DictionaryRetryDelay)
	dict, err := reconciler.LoadDictionaries(ctx)
	if err != nil {
		slog.Error("Aborting attendance grid load", "year", query.Year, "month", query.Month, "error", err)
		return attendance.GridResponse{}, err
	}

	employees, err := s.scope(ctx, query)
	if err != nil {
		return attendance.GridResponse{}, fmt.Errorf("failed to list employees: %w", err)
	}

	session := &gridSession{
		query:      query,
		dict:       dict,
		resolver:   employeesvc.NewCodeResolver(s.directory),
		reconciler: reconciler,
	}

	results := make([]rowResult, len(employees))
	for start := 0; start < len(employees); start += s.cfg.GridBatchSize {
		end := min(start+s.cfg.GridBatchSize, len(employees))

		var g errgroup.Group
		for i := start; i < end; i++ {
			g.Go(func() error {
				results[i] = s.loadRow(ctx, session, employees[i])
				return nil
			})
		}
		// Rows never fail the group; failures are carried in rowResult.
		_ = g.Wait()
	}

	response := attendance.GridResponse{
		Year:        query.Year,
		Month:       query.Month,
		DaysInMonth: daysIn(query.Year, query.Month),
		Rows:        make([]attendance.GridRowResponse, 0, len(employees)),
	}
	for _, r := range results {
		if r.failure != nil {
			response.FailedEmployees = append(response.FailedEmployees, *r.failure)
			continue
		}
		response.Rows = append(response.Rows, *r.row)
	}
	response.LoadedCount = len(response.Rows)
	response.FailedCount = len(response.FailedEmployees)

	slog.Info("Attendance grid loaded",
		"year", query.Year,
		"month", query.Month,
		"loaded", response.LoadedCount,
		"failed", response.FailedCount,
	)

	return response, nil
}

func (s *GridServiceImpl) scope(ctx context.Context, query attendance.GridQuery) ([]employee.Employee, error) {
	if len(query.EmployeeIDs) == 0 {
		return s.directory.ListActive(ctx, query.WorkSiteID)
	}

	employees, err := s.directory.GetByUserIDs(ctx, query.EmployeeIDs)
	if err != nil {
		return nil, err
	}
	if query.WorkSiteID == nil {
		return employees, nil
	}

	var filtered []employee.Employee
	for _, e := range employees {
		if e.WorkSiteID != nil && *e.WorkSiteID == *query.WorkSiteID {
			filtered = append(filtered, e)
		}
	}
	return filtered, nil
}

// loadRow runs one employee's pipeline: punches, then payroll code, then the
// ERP month. Only a punch read failure drops the row.
func (s *GridServiceImpl) loadRow(ctx context.Context, session *gridSession, emp employee.Employee) rowResult {
	q := session.query

	punches, err := s.punchRepo.List(ctx, emp.UserID, q.Year, q.Month, q.WorkSiteID)
	if err != nil {
		slog.Warn("Failed to load punches", "user_id", emp.UserID, "error", err)
		return rowResult{failure: &attendance.EmployeeFailure{
			UserID:       emp.UserID,
			EmployeeName: emp.FullName,
			Reason:       "failed to load punches",
		}}
	}

	var (
		warnings []string
		records  = payroll.NewMonthlyRecords()
	)

	code, err := session.resolver.Resolve(ctx, emp.UserID)
	switch {
	case employeesvc.IsMiss(err):
		warnings = append(warnings, "no payroll employee code, absences and overtimes not shown")
	case err != nil:
		slog.Warn("Failed to resolve employee code", "user_id", emp.UserID, "error", err)
		warnings = append(warnings, "payroll employee code unavailable")
	default:
		records, err = session.reconciler.FetchMonth(ctx, code, q.Year, q.Month)
		if err != nil {
			slog.Warn("Failed to load payroll records", "user_id", emp.UserID, "employee_code", code, "error", err)
			warnings = append(warnings, "payroll records unavailable")
			records = payroll.NewMonthlyRecords()
		}
	}

	row := s.buildRow(emp, punches, records, session.dict, q.Year, q.Month)
	row.Warnings = warnings
	return rowResult{row: &row}
}

func (s *GridServiceImpl) buildRow(
	emp employee.Employee,
	punches []punch.Punch,
	records payroll.MonthlyRecords,
	dict payroll.Dictionaries,
	year, month int,
) attendance.GridRowResponse {
	stats := make(map[int]*attendance.DayStatistics)
	for _, day := range AggregateByDay(punches, s.loc) {
		if day.Date.Year() != year || int(day.Date.Month()) != month {
			continue
		}
		d := day
		stats[d.Date.Day()] = &d
	}

	days := daysIn(year, month)
	row := attendance.GridRowResponse{
		UserID:       emp.UserID,
		EmployeeName: emp.FullName,
		EmployeeCode: emp.EmployeeCode,
		Days:         make([]attendance.GridDayResponse, 0, days),
	}

	var worked time.Duration
	overtime := decimal.Zero
	for dom := 1; dom <= days; dom++ {
		date := time.Date(year, time.Month(month), dom, 0, 0, 0, 0, s.loc)

		day := stats[dom]
		absences, overtimes := records.Absences[dom], records.Overtimes[dom]
		if day == nil && (len(absences) > 0 || len(overtimes) > 0) {
			day = &attendance.DayStatistics{Date: date, UserID: emp.UserID}
		}
		if day != nil {
			day.Absences = absences
			day.Overtimes = overtimes
		}

		cell := s.classifier.Classify(day, dict)

		dayResponse := attendance.GridDayResponse{
			Day:         dom,
			Date:        date.Format("2006-01-02"),
			DisplayText: cell.DisplayText,
			Color:       cell.Color,
			Tooltip:     cell.Tooltip,
		}
		if day != nil {
			dayResponse.WorkedHours = roundHours(day.WorkedHours())
			worked += day.Worked
			for _, o := range day.Overtimes {
				overtime = overtime.Add(o.DurationHours)
			}
			if len(day.Absences) > 0 {
				row.AbsenceDays++
			}
		}
		row.Days = append(row.Days, dayResponse)
	}

	row.TotalWorkedHours = roundHours(worked.Hours())
	row.TotalOvertimeHours = overtime.Round(2).InexactFloat64()
	return row
}

func daysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func roundHours(h float64) float64 {
	return math.Round(h*100) / 100
}
