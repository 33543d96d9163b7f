package bulk

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/cmlabs-hris/timebank-backend-go/internal/config"
	"github.com/cmlabs-hris/timebank-backend-go/internal/domain/bulk"
	"github.com/cmlabs-hris/timebank-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timebank-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/timebank-backend-go/internal/domain/punch"
	"github.com/cmlabs-hris/timebank-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePunchRepo struct {
	created   []punch.Punch
	confirmed []string
	deleted   []string
	byDay     map[string][]punch.Punch // key: user|date
	failOn    punch.Type
	seq       int
}

func (f *fakePunchRepo) List(ctx context.Context, userID string, year, month int, workSiteID *string) ([]punch.Punch, error) {
	return nil, nil
}

func (f *fakePunchRepo) ListBetween(ctx context.Context, userID string, from, to time.Time) ([]punch.Punch, error) {
	return f.byDay[userID+"|"+from.Format("2006-01-02")], nil
}

func (f *fakePunchRepo) Create(ctx context.Context, p punch.Punch) (punch.Punch, error) {
	if ctx.Err() != nil {
		return punch.Punch{}, ctx.Err()
	}
	if f.failOn != "" && p.Type == f.failOn {
		return punch.Punch{}, errors.New("insert failed")
	}
	f.seq++
	p.ID = fmt.Sprintf("p%d", f.seq)
	f.created = append(f.created, p)
	return p, nil
}

func (f *fakePunchRepo) Confirm(ctx context.Context, id string) error {
	f.confirmed = append(f.confirmed, id)
	return nil
}

func (f *fakePunchRepo) Delete(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeDirectory struct {
	codes map[string]string
}

func (f *fakeDirectory) GetEmployeeCode(ctx context.Context, userID string) (string, error) {
	code, ok := f.codes[userID]
	if !ok {
		return "", employee.ErrEmployeeCodeNotFound
	}
	return code, nil
}

func (f *fakeDirectory) ListActive(ctx context.Context, workSiteID *string) ([]employee.Employee, error) {
	return nil, nil
}

func (f *fakeDirectory) GetByUserIDs(ctx context.Context, userIDs []string) ([]employee.Employee, error) {
	return nil, nil
}

type fakeGateway struct {
	rows              []payroll.MonthlyRow
	absences          []payroll.AbsenceRecord
	overtimes         []payroll.OvertimeRecord
	deletedAbsences   []string
	deletedOvertimes  []string
	insertAbsenceErr  map[string]error // by type code
	insertOvertimeErr error
	deleteOvertimeErr error
}

func (f *fakeGateway) ListAbsenceTypes(ctx context.Context) (map[string]payroll.AbsenceType, error) {
	return map[string]payroll.AbsenceType{
		"F40": {Code: "F40", Description: "Unjustified absence", DeductsMealSubsidy: true},
		"BH":  {Code: "BH", Description: "Hours bank", IsHourBased: true},
	}, nil
}

func (f *fakeGateway) ListOvertimeTypes(ctx context.Context) (map[string]payroll.OvertimeType, error) {
	return map[string]payroll.OvertimeType{"HE50": {Code: "HE50"}}, nil
}

func (f *fakeGateway) ListMonthly(ctx context.Context, year, month int) ([]payroll.MonthlyRow, error) {
	return f.rows, nil
}

func (f *fakeGateway) InsertAbsence(ctx context.Context, record payroll.AbsenceRecord) error {
	if err := f.insertAbsenceErr[record.TypeCode]; err != nil {
		return err
	}
	f.absences = append(f.absences, record)
	return nil
}

func (f *fakeGateway) DeleteAbsence(ctx context.Context, employeeCode string, date time.Time, typeCode string) error {
	f.deletedAbsences = append(f.deletedAbsences, employeeCode+"|"+date.Format("2006-01-02")+"|"+typeCode)
	return nil
}

func (f *fakeGateway) InsertOvertime(ctx context.Context, record payroll.OvertimeRecord) error {
	if f.insertOvertimeErr != nil {
		return f.insertOvertimeErr
	}
	f.overtimes = append(f.overtimes, record)
	return nil
}

func (f *fakeGateway) DeleteOvertime(ctx context.Context, externalID string) error {
	if f.deleteOvertimeErr != nil {
		return f.deleteOvertimeErr
	}
	f.deletedOvertimes = append(f.deletedOvertimes, externalID)
	return nil
}

type recordedEvent struct {
	userID string
	name   string
	data   any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (f *fakePublisher) Publish(userID, event string, data any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{userID: userID, name: event, data: data})
}

type fakeTx struct {
	commits   int
	rollbacks int
}

func (f *fakeTx) run(ctx context.Context, fn func(txCtx context.Context) error) error {
	if err := fn(ctx); err != nil {
		f.rollbacks++
		return err
	}
	f.commits++
	return nil
}

type fixture struct {
	punches   *fakePunchRepo
	directory *fakeDirectory
	gateway   *fakeGateway
	publisher *fakePublisher
	tx        *fakeTx
	sleeps    []time.Duration
	svc       *BulkServiceImpl
}

func newFixture() *fixture {
	f := &fixture{
		punches:   &fakePunchRepo{byDay: map[string][]punch.Punch{}},
		directory: &fakeDirectory{codes: map[string]string{"u1": "100", "u2": "200", "u3": "300"}},
		gateway:   &fakeGateway{insertAbsenceErr: map[string]error{}},
		publisher: &fakePublisher{},
		tx:        &fakeTx{},
	}
	f.svc = NewBulkService(f.punches, f.directory, f.gateway, f.tx.run, f.publisher, config.BulkConfig{
		ItemDelay:                 120 * time.Millisecond,
		DelayThreshold:            5,
		MealSubsidyOffsetCode:     "SA",
		MealSubsidyOffsetDuration: decimal.NewFromInt(1),
	}, time.UTC)
	f.svc.sleep = func(d time.Duration) { f.sleeps = append(f.sleeps, d) }
	return f
}

func targets(n int) []bulk.Target {
	out := make([]bulk.Target, 0, n)
	for i := range n {
		out = append(out, bulk.Target{UserID: "u1", Date: fmt.Sprintf("2024-03-%02d", i+1)})
	}
	return out
}

func confirmed(n int) bulk.Confirmation {
	return bulk.Confirmation{Acknowledged: true, ExpectedCount: n}
}

func confirmedDelete(n int) bulk.Confirmation {
	return bulk.Confirmation{Acknowledged: true, ExpectedCount: n, Phrase: bulk.DeletePhrase}
}

func TestCreatePunches(t *testing.T) {
	f := newFixture()
	req := bulk.CreatePunchesRequest{
		Targets: targets(3),
		Punches: []bulk.PunchSpec{
			{Time: "08:00", Type: punch.TypeEntrada, WorkSiteID: "site-a"},
			{Time: "17:30", Type: punch.TypeSaida, WorkSiteID: "site-a"},
		},
		Confirmation: confirmed(3),
		RequestedBy:  "admin-1",
	}

	summary, err := f.svc.CreatePunches(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, bulk.KindCreatePunches, summary.Kind)
	assert.NotEmpty(t, summary.OperationID)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 3, summary.SucceededCount)
	assert.Zero(t, summary.FailedCount)
	assert.Len(t, f.punches.created, 6)
	assert.Len(t, f.punches.confirmed, 6)
	assert.Equal(t, time.Date(2024, time.March, 1, 17, 30, 0, 0, time.UTC), f.punches.created[1].Timestamp)
	assert.Equal(t, 3, f.tx.commits)
	assert.Empty(t, f.sleeps, "small batches are not throttled")

	require.Len(t, f.publisher.events, 5)
	assert.Equal(t, bulk.EventStarted, f.publisher.events[0].name)
	assert.Equal(t, bulk.EventItem, f.publisher.events[1].name)
	assert.Equal(t, bulk.EventCompleted, f.publisher.events[4].name)
	assert.Equal(t, "admin-1", f.publisher.events[0].userID)
}

func TestCreatePunches_ItemRollsBackAsAWhole(t *testing.T) {
	f := newFixture()
	f.punches.failOn = punch.TypeSaida
	req := bulk.CreatePunchesRequest{
		Targets: targets(2),
		Punches: []bulk.PunchSpec{
			{Time: "08:00", Type: punch.TypeEntrada, WorkSiteID: "site-a"},
			{Time: "17:00", Type: punch.TypeSaida, WorkSiteID: "site-a"},
		},
		Confirmation: confirmed(2),
	}

	summary, err := f.svc.CreatePunches(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 0, summary.SucceededCount)
	assert.Equal(t, 2, summary.FailedCount)
	assert.Equal(t, 2, f.tx.rollbacks)
	assert.Contains(t, summary.FailureDetails[0].Reason, "insert failed")
}

func TestCreatePunches_ThrottlesLargeBatches(t *testing.T) {
	f := newFixture()
	req := bulk.CreatePunchesRequest{
		Targets:      targets(7),
		Punches:      []bulk.PunchSpec{{Time: "08:00", Type: punch.TypeEntrada, WorkSiteID: "site-a"}},
		Confirmation: confirmed(7),
	}

	_, err := f.svc.CreatePunches(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, f.sleeps, 6)
	assert.Equal(t, 120*time.Millisecond, f.sleeps[0])
}

func TestCreatePunches_IgnoresCallerCancellation(t *testing.T) {
	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := bulk.CreatePunchesRequest{
		Targets:      targets(2),
		Punches:      []bulk.PunchSpec{{Time: "08:00", Type: punch.TypeEntrada, WorkSiteID: "site-a"}},
		Confirmation: confirmed(2),
	}

	summary, err := f.svc.CreatePunches(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.SucceededCount)
}

func TestValidationRejectsBeforeAnyCall(t *testing.T) {
	tests := []struct {
		name string
		run  func(f *fixture) error
	}{
		{"empty selection", func(f *fixture) error {
			_, err := f.svc.DeletePunches(context.Background(), bulk.DeletePunchesRequest{Confirmation: confirmedDelete(0)})
			return err
		}},
		{"count mismatch", func(f *fixture) error {
			_, err := f.svc.DeletePunches(context.Background(), bulk.DeletePunchesRequest{
				Targets: targets(3), Confirmation: confirmedDelete(2),
			})
			return err
		}},
		{"missing delete phrase", func(f *fixture) error {
			_, err := f.svc.DeletePunches(context.Background(), bulk.DeletePunchesRequest{
				Targets: targets(1), Confirmation: confirmed(1),
			})
			return err
		}},
		{"not acknowledged", func(f *fixture) error {
			_, err := f.svc.InsertOvertimes(context.Background(), bulk.InsertOvertimesRequest{
				Targets: targets(1), TypeCode: "HE50", DurationHours: decimal.NewFromInt(1),
			})
			return err
		}},
		{"missing type", func(f *fixture) error {
			_, err := f.svc.InsertAbsences(context.Background(), bulk.InsertAbsencesRequest{
				Targets: targets(1), Duration: decimal.NewFromInt(1), Confirmation: confirmed(1),
			})
			return err
		}},
		{"non-positive duration", func(f *fixture) error {
			_, err := f.svc.InsertOvertimes(context.Background(), bulk.InsertOvertimesRequest{
				Targets: targets(1), TypeCode: "HE50", Confirmation: confirmed(1),
			})
			return err
		}},
		{"malformed date", func(f *fixture) error {
			_, err := f.svc.InsertOvertimes(context.Background(), bulk.InsertOvertimesRequest{
				Targets:       []bulk.Target{{UserID: "u1", Date: "04/03/2024"}},
				TypeCode:      "HE50",
				DurationHours: decimal.NewFromInt(1),
				Confirmation:  confirmed(1),
			})
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()

			err := tt.run(f)

			var verrs validator.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			assert.Empty(t, f.publisher.events)
			assert.Empty(t, f.punches.deleted)
			assert.Empty(t, f.gateway.absences)
			assert.Empty(t, f.gateway.overtimes)
		})
	}
}

func TestDeletePunches_PartialFailure(t *testing.T) {
	f := newFixture()
	f.punches.byDay["u1|2024-03-01"] = []punch.Punch{{ID: "a"}, {ID: "b"}}
	f.punches.byDay["u1|2024-03-03"] = []punch.Punch{{ID: "c"}}

	summary, err := f.svc.DeletePunches(context.Background(), bulk.DeletePunchesRequest{
		Targets:      targets(4),
		Confirmation: confirmedDelete(4),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.SucceededCount)
	assert.Equal(t, 2, summary.FailedCount)
	assert.Equal(t, summary.Total, summary.SucceededCount+summary.FailedCount)
	assert.Equal(t, []string{"a", "b", "c"}, f.punches.deleted)
	require.Len(t, summary.FailureDetails, 2)
	assert.Equal(t, "2024-03-02", summary.FailureDetails[0].Date)
	assert.Equal(t, bulk.ErrNoPunchesOnDay.Error(), summary.FailureDetails[0].Reason)
}

func TestFailureDetailsAreCapped(t *testing.T) {
	f := newFixture()
	f.gateway.insertOvertimeErr = errors.New("erp unavailable")

	summary, err := f.svc.InsertOvertimes(context.Background(), bulk.InsertOvertimesRequest{
		Targets:       targets(8),
		TypeCode:      "HE50",
		DurationHours: decimal.NewFromInt(2),
		Confirmation:  confirmed(8),
	})
	require.NoError(t, err)

	assert.Equal(t, 8, summary.FailedCount)
	assert.Len(t, summary.FailureDetails, bulk.MaxFailureDetails)
	assert.Equal(t, 3, summary.MoreFailures)
}

func TestInsertAbsences_LinkedMealSubsidyOffset(t *testing.T) {
	f := newFixture()
	req := bulk.InsertAbsencesRequest{
		Targets: []bulk.Target{
			{UserID: "u1", Date: "2024-03-04"}, // Monday
			{UserID: "u2", Date: "2024-03-09"}, // Saturday
		},
		TypeCode:     "F40",
		Duration:     decimal.NewFromInt(1),
		Confirmation: confirmed(2),
	}

	summary, err := f.svc.InsertAbsences(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.SucceededCount)
	assert.Equal(t, 1, summary.LinkedSucceeded)
	require.Len(t, f.gateway.absences, 3)
	assert.Equal(t, "F40", f.gateway.absences[0].TypeCode)
	assert.Equal(t, "SA", f.gateway.absences[1].TypeCode)
	assert.Equal(t, "100", f.gateway.absences[1].EmployeeCode)
	assert.Equal(t, "F40", f.gateway.absences[2].TypeCode)
}

func TestInsertAbsences_LinkedFailureReportedSeparately(t *testing.T) {
	f := newFixture()
	f.gateway.insertAbsenceErr["SA"] = errors.New("offset rejected")

	summary, err := f.svc.InsertAbsences(context.Background(), bulk.InsertAbsencesRequest{
		Targets:      []bulk.Target{{UserID: "u1", Date: "2024-03-04"}},
		TypeCode:     "F40",
		Duration:     decimal.NewFromInt(1),
		Confirmation: confirmed(1),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.SucceededCount)
	assert.Equal(t, 1, summary.LinkedFailed)
	require.Len(t, summary.FailureDetails, 1)
	assert.True(t, summary.FailureDetails[0].Linked)
	assert.Contains(t, summary.FailureDetails[0].Reason, "offset rejected")
}

func TestInsertAbsences_ConflictMessageVerbatim(t *testing.T) {
	f := newFixture()
	f.gateway.insertAbsenceErr["BH"] = errors.New("Falta já lançada para o funcionário nesta data")

	summary, err := f.svc.InsertAbsences(context.Background(), bulk.InsertAbsencesRequest{
		Targets:      []bulk.Target{{UserID: "u1", Date: "2024-03-04"}, {UserID: "u9", Date: "2024-03-04"}},
		TypeCode:     "BH",
		Duration:     decimal.NewFromInt(2),
		Confirmation: confirmed(2),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.FailedCount)
	require.Len(t, summary.FailureDetails, 2)
	assert.Equal(t, "Falta já lançada para o funcionário nesta data", summary.FailureDetails[0].Reason)
	assert.Equal(t, employee.ErrEmployeeCodeNotFound.Error(), summary.FailureDetails[1].Reason)
}

func TestInsertAbsences_UnknownType(t *testing.T) {
	f := newFixture()

	_, err := f.svc.InsertAbsences(context.Background(), bulk.InsertAbsencesRequest{
		Targets:      targets(1),
		TypeCode:     "ZZ",
		Duration:     decimal.NewFromInt(1),
		Confirmation: confirmed(1),
	})

	assert.ErrorIs(t, err, payroll.ErrUnknownAbsenceType)
	assert.Empty(t, f.publisher.events)
}

func TestDeleteRecords(t *testing.T) {
	f := newFixture()
	f.gateway.rows = []payroll.MonthlyRow{
		{"cod_funcionario": "100", "data_falta": "2024-03-01", "cod_falta": "F40"},
		{"cod_funcionario": "100", "data_falta": "2024-03-01", "cod_falta": "BH"},
		{"cod_func_he": "100", "data_he": "2024-03-01", "cod_he": "HE50", "horas_he": 2, "id_he": "ot-1"},
		{"cod_func_he": "100", "data_he": "2024-03-02", "cod_he": "HE50", "horas_he": 1},
		{"cod_funcionario": "100", "data_falta": "2024-03-02", "cod_falta": "F40"},
	}

	summary, err := f.svc.DeleteRecords(context.Background(), bulk.DeleteRecordsRequest{
		Targets:          targets(3),
		IncludeAbsences:  true,
		IncludeOvertimes: true,
		AbsenceTypeCodes: []string{"F40"},
		Confirmation:     confirmedDelete(3),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.SucceededCount)
	assert.Equal(t, 2, summary.FailedCount)
	assert.Equal(t, []string{"100|2024-03-01|F40"}, f.gateway.deletedAbsences)
	assert.Equal(t, []string{"ot-1"}, f.gateway.deletedOvertimes)

	require.Len(t, summary.FailureDetails, 2)
	assert.Contains(t, summary.FailureDetails[0].Reason, payroll.ErrMissingExternalID.Error())
	assert.Equal(t, bulk.ErrNoRecordsOnDay.Error(), summary.FailureDetails[1].Reason)
}

func sameDayRecords() []payroll.MonthlyRow {
	return []payroll.MonthlyRow{
		{"cod_funcionario": "100", "data_falta": "2024-03-01", "cod_falta": "F40", "duracao": 1, "em_horas": "N"},
		{"cod_funcionario": "100", "data_falta": "2024-03-01", "cod_falta": "BH", "duracao": "2.5", "em_horas": "S"},
		{"cod_func_he": "100", "data_he": "2024-03-01", "cod_he": "HE50", "horas_he": 2, "id_he": "ot-1"},
	}
}

func TestDeleteRecords_RestoresDeletedAbsencesWhenOvertimeDeleteFails(t *testing.T) {
	f := newFixture()
	f.gateway.rows = sameDayRecords()
	f.gateway.deleteOvertimeErr = errors.New("erp 500")

	summary, err := f.svc.DeleteRecords(context.Background(), bulk.DeleteRecordsRequest{
		Targets:          targets(1),
		IncludeAbsences:  true,
		IncludeOvertimes: true,
		Confirmation:     confirmedDelete(1),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.FailedCount)
	assert.Equal(t, []string{"100|2024-03-01|F40", "100|2024-03-01|BH"}, f.gateway.deletedAbsences)
	assert.Empty(t, f.gateway.deletedOvertimes)

	require.Len(t, f.gateway.absences, 2)
	assert.Equal(t, "F40", f.gateway.absences[0].TypeCode)
	assert.Equal(t, "100", f.gateway.absences[0].EmployeeCode)
	assert.Equal(t, "BH", f.gateway.absences[1].TypeCode)
	assert.True(t, f.gateway.absences[1].IsHourBased)
	assert.True(t, decimal.RequireFromString("2.5").Equal(f.gateway.absences[1].Duration))

	require.Len(t, summary.FailureDetails, 1)
	assert.Equal(t, "erp 500", summary.FailureDetails[0].Reason)
}

func TestDeleteRecords_ReportsRecordsThatCouldNotBeRestored(t *testing.T) {
	f := newFixture()
	f.gateway.rows = sameDayRecords()
	f.gateway.deleteOvertimeErr = errors.New("erp 500")
	f.gateway.insertAbsenceErr["BH"] = errors.New("period closed")

	summary, err := f.svc.DeleteRecords(context.Background(), bulk.DeleteRecordsRequest{
		Targets:          targets(1),
		IncludeAbsences:  true,
		IncludeOvertimes: true,
		Confirmation:     confirmedDelete(1),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.FailedCount)
	require.Len(t, f.gateway.absences, 1)
	assert.Equal(t, "F40", f.gateway.absences[0].TypeCode)

	reason := summary.FailureDetails[0].Reason
	assert.Contains(t, reason, "erp 500")
	assert.Contains(t, reason, "restore failed")
	assert.Contains(t, reason, "absence BH: period closed")
}

func TestInsertAbsences_TypeCodeIsCaseInsensitive(t *testing.T) {
	f := newFixture()

	summary, err := f.svc.InsertAbsences(context.Background(), bulk.InsertAbsencesRequest{
		Targets:      []bulk.Target{{UserID: "u1", Date: "2024-03-09"}},
		TypeCode:     " f40",
		Duration:     decimal.NewFromInt(1),
		Confirmation: confirmed(1),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.SucceededCount)
	require.Len(t, f.gateway.absences, 1)
	assert.Equal(t, "F40", f.gateway.absences[0].TypeCode)
}

func TestInsertOvertimes_TypeCodeIsCaseInsensitive(t *testing.T) {
	f := newFixture()

	summary, err := f.svc.InsertOvertimes(context.Background(), bulk.InsertOvertimesRequest{
		Targets:       targets(1),
		TypeCode:      "he50",
		DurationHours: decimal.NewFromInt(2),
		Confirmation:  confirmed(1),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.SucceededCount)
	require.Len(t, f.gateway.overtimes, 1)
	assert.Equal(t, "HE50", f.gateway.overtimes[0].TypeCode)
}

func TestCreatePunches_WallClockOnDaylightSavingDay(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	f := newFixture()
	f.svc.loc = loc

	_, err = f.svc.CreatePunches(context.Background(), bulk.CreatePunchesRequest{
		Targets:      []bulk.Target{{UserID: "u1", Date: "2024-03-10"}},
		Punches:      []bulk.PunchSpec{{Time: "08:00", Type: punch.TypeEntrada, WorkSiteID: "site-a"}},
		Confirmation: confirmed(1),
	})
	require.NoError(t, err)

	require.Len(t, f.punches.created, 1)
	local := f.punches.created[0].Timestamp.In(loc)
	assert.Equal(t, 8, local.Hour())
	assert.Equal(t, 0, local.Minute())
	assert.Equal(t, 10, local.Day())
}
