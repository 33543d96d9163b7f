package bulk

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/timebank-backend-go/internal/config"
	"github.com/cmlabs-hris/timebank-backend-go/internal/domain/bulk"
	"github.com/cmlabs-hris/timebank-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timebank-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/timebank-backend-go/internal/domain/punch"
	"github.com/google/uuid"
)

// TxFunc runs fn inside one database transaction. Repositories called with
// txCtx join that transaction.
type TxFunc func(ctx context.Context, fn func(txCtx context.Context) error) error

// Publisher delivers progress events to one subscriber.
type Publisher interface {
	Publish(userID, event string, data any)
}

type BulkServiceImpl struct {
	punchRepo punch.Repository
	directory employee.Directory
	gateway   payroll.Gateway
	inTx      TxFunc
	publisher Publisher
	cfg       config.BulkConfig
	loc       *time.Location

	sleep func(time.Duration)
	now   func() time.Time
}

func NewBulkService(
	punchRepo punch.Repository,
	directory employee.Directory,
	gateway payroll.Gateway,
	inTx TxFunc,
	publisher Publisher,
	cfg config.BulkConfig,
	loc *time.Location,
) *BulkServiceImpl {
	if loc == nil {
		loc = time.UTC
	}
	return &BulkServiceImpl{
		punchRepo: punchRepo,
		directory: directory,
		gateway:   gateway,
		inTx:      inTx,
		publisher: publisher,
		cfg:       cfg,
		loc:       loc,
		sleep:     time.Sleep,
		now:       time.Now,
	}
}

// itemFunc performs one item. A nil error marks the item succeeded.
type itemFunc func(ctx context.Context, item *bulk.Item) error

// run executes items strictly one after another. The caller's cancellation is
// ignored so a started batch always runs to the end.
func (s *BulkServiceImpl) run(ctx context.Context, kind bulk.Kind, requestedBy string, targets []bulk.Target, do itemFunc) bulk.Summary {
	ctx = context.WithoutCancel(ctx)

	summary := bulk.Summary{
		OperationID: uuid.NewString(),
		Kind:        kind,
		Total:       len(targets),
		StartedAt:   s.now(),
	}
	s.publish(requestedBy, bulk.EventStarted, summary)

	throttle := len(targets) > s.cfg.DelayThreshold
	for i, target := range targets {
		if i > 0 && throttle {
			s.sleep(s.cfg.ItemDelay)
		}

		item := bulk.NewItem(target)
		item.Start()
		if err := do(ctx, item); err != nil {
			item.Fail(err)
			slog.Warn("Bulk item failed",
				"operation_id", summary.OperationID,
				"kind", kind,
				"user_id", target.UserID,
				"date", target.Date,
				"error", err,
			)
		} else {
			item.Succeed()
		}
		summary.Record(item)

		s.publish(requestedBy, bulk.EventItem, bulk.ItemEvent{
			OperationID: summary.OperationID,
			Index:       i + 1,
			Total:       len(targets),
			UserID:      target.UserID,
			Date:        target.Date,
			State:       item.State,
			Reason:      item.Reason,
		})
	}

	summary.FinishedAt = s.now()
	s.publish(requestedBy, bulk.EventCompleted, summary)

	slog.Info("Bulk operation finished",
		"operation_id", summary.OperationID,
		"kind", kind,
		"requested_by", requestedBy,
		"total", summary.Total,
		"succeeded", summary.SucceededCount,
		"failed", summary.FailedCount,
		"linked_failed", summary.LinkedFailed,
	)

	return summary
}

func (s *BulkServiceImpl) publish(userID, event string, data any) {
	if s.publisher == nil || userID == "" {
		return
	}
	s.publisher.Publish(userID, event, data)
}

// localDay returns the bounds of a YYYY-MM-DD day in the service timezone.
func (s *BulkServiceImpl) localDay(date string) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation("2006-01-02", date, s.loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return start, start.AddDate(0, 0, 1), nil
}

// payrollDate is the calendar date as the payroll system stores it.
func payrollDate(date string) (time.Time, error) {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return d, nil
}
