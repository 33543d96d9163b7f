package attendance

import (
	"time"

	"github.com/cmlabs-hris/timebank-backend-go/internal/domain/payroll"
)

// DayStatistics is derived per user per calendar day and never persisted.
type DayStatistics struct {
	Date           time.Time
	UserID         string
	Worked         time.Duration
	PunchCount     int
	ConfirmedCount int
	FirstPunch     *time.Time
	LastPunch      *time.Time
	WorkSites      []string
	Absences       []payroll.AbsenceRecord
	Overtimes      []payroll.OvertimeRecord
}

// WorkedHours returns the worked duration in fractional hours.
func (d DayStatistics) WorkedHours() float64 {
	return d.Worked.Hours()
}

// ConfirmedRatio is 0 for a day without punches.
func (d DayStatistics) ConfirmedRatio() float64 {
	if d.PunchCount == 0 {
		return 0
	}
	return float64(d.ConfirmedCount) / float64(d.PunchCount)
}

type ColorCategory string

const (
	ColorAbsence   ColorCategory = "absence"
	ColorOvertime  ColorCategory = "overtime"
	ColorEmpty     ColorCategory = "empty"
	ColorExcellent ColorCategory = "excellent"
	ColorGood      ColorCategory = "good"
	ColorAttention ColorCategory = "attention"
	ColorProblem   ColorCategory = "problem"
)

// DayCell is the single rendered status of one person-day.
type DayCell struct {
	DisplayText string
	Color       ColorCategory
	Tooltip     string
}
