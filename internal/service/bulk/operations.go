package bulk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/cmlabs-hris/timebank-backend-go/internal/domain/bulk"
	"github.com/cmlabs-hris/timebank-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/timebank-backend-go/internal/domain/punch"
	"github.com/cmlabs-hris/timebank-backend-go/internal/pkg/validator"
	employeesvc "github.com/cmlabs-hris/timebank-backend-go/internal/service/employee"
	"github.com/cmlabs-hris/timebank-backend-go/internal/service/reconcile"
)

// CreatePunches creates and confirms the requested punches on every target
// day. Each day is one transaction.
func (s *BulkServiceImpl) CreatePunches(ctx context.Context, req bulk.CreatePunchesRequest) (bulk.Summary, error) {
	if err := req.Validate(); err != nil {
		return bulk.Summary{}, err
	}

	summary := s.run(ctx, bulk.KindCreatePunches, req.RequestedBy, req.Targets, func(ctx context.Context, item *bulk.Item) error {
		dayStart, _, err := s.localDay(item.Target.Date)
		if err != nil {
			return err
		}

		return s.inTx(ctx, func(txCtx context.Context) error {
			for _, spec := range req.Punches {
				clock, _ := time.Parse("15:04", spec.Time)
				ts := time.Date(dayStart.Year(), dayStart.Month(), dayStart.Day(), clock.Hour(), clock.Minute(), 0, 0, s.loc)

				created, err := s.punchRepo.Create(txCtx, punch.Punch{
					UserID:     item.Target.UserID,
					Timestamp:  ts,
					Type:       spec.Type,
					WorkSiteID: spec.WorkSiteID,
				})
				if err != nil {
					return fmt.Errorf("create %s punch at %s: %w", spec.Type, spec.Time, err)
				}
				if err := s.punchRepo.Confirm(txCtx, created.ID); err != nil {
					return fmt.Errorf("confirm %s punch at %s: %w", spec.Type, spec.Time, err)
				}
			}
			return nil
		})
	})

	return summary, nil
}

// DeletePunches removes every punch of each target day, never part of a day.
func (s *BulkServiceImpl) DeletePunches(ctx context.Context, req bulk.DeletePunchesRequest) (bulk.Summary, error) {
	if err := req.Validate(); err != nil {
		return bulk.Summary{}, err
	}

	summary := s.run(ctx, bulk.KindDeletePunches, req.RequestedBy, req.Targets, func(ctx context.Context, item *bulk.Item) error {
		dayStart, dayEnd, err := s.localDay(item.Target.Date)
		if err != nil {
			return err
		}

		return s.inTx(ctx, func(txCtx context.Context) error {
			punches, err := s.punchRepo.ListBetween(txCtx, item.Target.UserID, dayStart, dayEnd)
			if err != nil {
				return fmt.Errorf("list punches: %w", err)
			}
			if len(punches) == 0 {
				return bulk.ErrNoPunchesOnDay
			}
			for _, p := range punches {
				if err := s.punchRepo.Delete(txCtx, p.ID); err != nil {
					return fmt.Errorf("delete punch %s: %w", p.ID, err)
				}
			}
			return nil
		})
	})

	return summary, nil
}

// DeleteRecords removes payroll absences and/or overtimes of each target day.
// Overtimes without an external id fail the item before any deletion. When a
// delete fails, the records already deleted for that item are re-inserted.
func (s *BulkServiceImpl) DeleteRecords(ctx context.Context, req bulk.DeleteRecordsRequest) (bulk.Summary, error) {
	if err := req.Validate(); err != nil {
		return bulk.Summary{}, err
	}

	resolver := employeesvc.NewCodeResolver(s.directory)
	reconciler := reconcile.NewReconciler(s.gateway, 1, 0)

	summary := s.run(ctx, bulk.KindDeleteRecords, req.RequestedBy, req.Targets, func(ctx context.Context, item *bulk.Item) error {
		date, err := payrollDate(item.Target.Date)
		if err != nil {
			return err
		}
		code, err := resolver.Resolve(ctx, item.Target.UserID)
		if err != nil {
			return err
		}
		records, err := reconciler.FetchMonth(ctx, code, date.Year(), int(date.Month()))
		if err != nil {
			return err
		}

		var absences []payroll.AbsenceRecord
		if req.IncludeAbsences {
			for _, a := range records.Absences[date.Day()] {
				if len(req.AbsenceTypeCodes) == 0 || slices.ContainsFunc(req.AbsenceTypeCodes, func(c string) bool {
					return strings.EqualFold(strings.TrimSpace(c), a.TypeCode)
				}) {
					absences = append(absences, a)
				}
			}
		}

		var overtimes []payroll.OvertimeRecord
		if req.IncludeOvertimes {
			overtimes = records.Overtimes[date.Day()]
			for _, o := range overtimes {
				if o.ExternalID == "" {
					return fmt.Errorf("%w: %s on %s", payroll.ErrMissingExternalID, o.TypeCode, item.Target.Date)
				}
			}
		}

		if len(absences) == 0 && len(overtimes) == 0 {
			return bulk.ErrNoRecordsOnDay
		}

		var deleted deletedRecords
		for _, a := range absences {
			if err := s.gateway.DeleteAbsence(ctx, code, date, a.TypeCode); err != nil {
				return s.restore(ctx, item, deleted, err)
			}
			deleted.absences = append(deleted.absences, a)
		}
		for _, o := range overtimes {
			if err := s.gateway.DeleteOvertime(ctx, o.ExternalID); err != nil {
				return s.restore(ctx, item, deleted, err)
			}
			deleted.overtimes = append(deleted.overtimes, o)
		}
		return nil
	})

	return summary, nil
}

// InsertAbsences registers one absence per target. Types that deduct the meal
// subsidy also get a linked offset absence on weekdays.
func (s *BulkServiceImpl) InsertAbsences(ctx context.Context, req bulk.InsertAbsencesRequest) (bulk.Summary, error) {
	if err := req.Validate(); err != nil {
		return bulk.Summary{}, err
	}

	types, err := s.gateway.ListAbsenceTypes(ctx)
	if err != nil {
		return bulk.Summary{}, fmt.Errorf("%w: %v", payroll.ErrDictionariesUnavailable, err)
	}
	absenceType, ok := types[normalizeTypeCode(req.TypeCode)]
	if !ok {
		return bulk.Summary{}, unknownType("type_code", payroll.ErrUnknownAbsenceType)
	}

	resolver := employeesvc.NewCodeResolver(s.directory)

	summary := s.run(ctx, bulk.KindInsertAbsences, req.RequestedBy, req.Targets, func(ctx context.Context, item *bulk.Item) error {
		date, err := payrollDate(item.Target.Date)
		if err != nil {
			return err
		}
		code, err := resolver.Resolve(ctx, item.Target.UserID)
		if err != nil {
			return err
		}

		err = s.gateway.InsertAbsence(ctx, payroll.AbsenceRecord{
			EmployeeCode:       code,
			Date:               date,
			TypeCode:           absenceType.Code,
			Duration:           req.Duration,
			IsHourBased:        absenceType.IsHourBased,
			DeductsMealSubsidy: absenceType.DeductsMealSubsidy,
		})
		if err != nil {
			return err
		}

		if absenceType.DeductsMealSubsidy && !validator.IsWeekend(date) {
			item.Linked = bulk.NewItem(item.Target)
			item.Linked.Start()
			err := s.gateway.InsertAbsence(ctx, payroll.AbsenceRecord{
				EmployeeCode: code,
				Date:         date,
				TypeCode:     s.cfg.MealSubsidyOffsetCode,
				Duration:     s.cfg.MealSubsidyOffsetDuration,
			})
			if err != nil {
				item.Linked.Fail(fmt.Errorf("meal subsidy offset %s: %w", s.cfg.MealSubsidyOffsetCode, err))
			} else {
				item.Linked.Succeed()
			}
		}
		return nil
	})

	return summary, nil
}

// InsertOvertimes registers one overtime credit per target.
func (s *BulkServiceImpl) InsertOvertimes(ctx context.Context, req bulk.InsertOvertimesRequest) (bulk.Summary, error) {
	if err := req.Validate(); err != nil {
		return bulk.Summary{}, err
	}

	types, err := s.gateway.ListOvertimeTypes(ctx)
	if err != nil {
		return bulk.Summary{}, fmt.Errorf("%w: %v", payroll.ErrDictionariesUnavailable, err)
	}
	overtimeType, ok := types[normalizeTypeCode(req.TypeCode)]
	if !ok {
		return bulk.Summary{}, unknownType("type_code", payroll.ErrUnknownOvertimeType)
	}

	resolver := employeesvc.NewCodeResolver(s.directory)

	summary := s.run(ctx, bulk.KindInsertOvertimes, req.RequestedBy, req.Targets, func(ctx context.Context, item *bulk.Item) error {
		date, err := payrollDate(item.Target.Date)
		if err != nil {
			return err
		}
		code, err := resolver.Resolve(ctx, item.Target.UserID)
		if err != nil {
			return err
		}
		return s.gateway.InsertOvertime(ctx, payroll.OvertimeRecord{
			EmployeeCode:  code,
			Date:          date,
			TypeCode:      overtimeType.Code,
			DurationHours: req.DurationHours,
		})
	})

	return summary, nil
}

type deletedRecords struct {
	absences  []payroll.AbsenceRecord
	overtimes []payroll.OvertimeRecord
}

// restore re-inserts the records an item already deleted and returns cause,
// extended with any record that could not be put back.
func (s *BulkServiceImpl) restore(ctx context.Context, item *bulk.Item, deleted deletedRecords, cause error) error {
	var lost []string
	for _, a := range deleted.absences {
		if err := s.gateway.InsertAbsence(ctx, a); err != nil {
			lost = append(lost, fmt.Sprintf("absence %s: %v", a.TypeCode, err))
		}
	}
	for _, o := range deleted.overtimes {
		if err := s.gateway.InsertOvertime(ctx, o); err != nil {
			lost = append(lost, fmt.Sprintf("overtime %s: %v", o.TypeCode, err))
		}
	}
	if len(lost) == 0 {
		return cause
	}

	slog.Error("Deleted payroll records could not be restored",
		"user_id", item.Target.UserID,
		"date", item.Target.Date,
		"lost", lost,
	)
	return fmt.Errorf("%w; restore failed for %s", cause, strings.Join(lost, "; "))
}

func normalizeTypeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func unknownType(field string, err error) error {
	return errors.Join(err, validator.ValidationErrors{{Field: field, Message: err.Error()}})
}
