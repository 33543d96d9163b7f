package payroll

import (
	"context"
	"time"
)

// Gateway is the payroll ERP as seen by the attendance core. The core never
// mutates records directly; it issues inserts/deletes and re-reads.
type Gateway interface {
	ListAbsenceTypes(ctx context.Context) (map[string]AbsenceType, error)
	ListOvertimeTypes(ctx context.Context) (map[string]OvertimeType, error)

	// ListMonthly returns the mixed absence/overtime dataset of one month for
	// every employee. Callers scope it by employee code.
	ListMonthly(ctx context.Context, year, month int) ([]MonthlyRow, error)

	InsertAbsence(ctx context.Context, record AbsenceRecord) error
	DeleteAbsence(ctx context.Context, employeeCode string, date time.Time, typeCode string) error
	InsertOvertime(ctx context.Context, record OvertimeRecord) error
	DeleteOvertime(ctx context.Context, externalID string) error
}
