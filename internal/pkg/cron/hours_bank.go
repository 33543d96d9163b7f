package cron

import (
	"context"
	"time"
)

// SnapshotRunner refreshes the stored hours-bank balances.
type SnapshotRunner interface {
	Run(ctx context.Context) error
}

// RegisterHoursBankJobs schedules the periodic balance snapshot. A run may
// take at most one interval so a slow ERP never stacks refreshes.
func RegisterHoursBankJobs(scheduler *Scheduler, runner SnapshotRunner, interval time.Duration) error {
	return scheduler.AddJob(Job{
		Name:     "refresh_hours_bank_snapshots",
		Interval: interval,
		Timeout:  interval,
		Fn:       runner.Run,
	})
}
