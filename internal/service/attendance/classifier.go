package attendance

import (
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/timebank-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/timebank-backend-go/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

const (
	excellentHours = 7.0
	goodHours      = 6.0
	attentionHours = 4.0

	goodRatio      = 0.8
	attentionRatio = 0.5
)

// Classifier renders one person-day into exactly one DayCell.
type Classifier struct {
	fullDayCodes map[string]struct{}
}

// NewClassifier takes the absence codes that denote a full-day special
// category. They win over generic absences registered on the same day.
func NewClassifier(fullDayCodes []string) *Classifier {
	codes := make(map[string]struct{}, len(fullDayCodes))
	for _, c := range fullDayCodes {
		codes[strings.ToUpper(strings.TrimSpace(c))] = struct{}{}
	}
	return &Classifier{fullDayCodes: codes}
}

// Classify evaluates absence, overtime, emptiness and punch quality in that
// order. A nil day is a day with no data at all.
func (c *Classifier) Classify(day *attendance.DayStatistics, dict payroll.Dictionaries) attendance.DayCell {
	if day == nil {
		return attendance.DayCell{Color: attendance.ColorEmpty}
	}

	if len(day.Absences) > 0 {
		absence := c.pickAbsence(day.Absences)
		return attendance.DayCell{
			DisplayText: absence.TypeCode,
			Color:       attendance.ColorAbsence,
			Tooltip:     absenceTooltip(day, absence, dict),
		}
	}

	if len(day.Overtimes) > 0 {
		total := decimal.Zero
		for _, o := range day.Overtimes {
			total = total.Add(o.DurationHours)
		}
		overtime := formatDecimalHours(total)

		display := overtime
		if day.PunchCount > 0 {
			display = fmt.Sprintf("%s + %s", formatDuration(day.Worked), overtime)
		}
		return attendance.DayCell{
			DisplayText: display,
			Color:       attendance.ColorOvertime,
			Tooltip:     overtimeTooltip(day, dict),
		}
	}

	if day.PunchCount == 0 {
		return attendance.DayCell{Color: attendance.ColorEmpty}
	}

	return attendance.DayCell{
		DisplayText: formatDuration(day.Worked),
		Color:       punchQuality(day.ConfirmedRatio(), day.WorkedHours()),
		Tooltip:     punchTooltip(day),
	}
}

// pickAbsence keeps the ERP order within each group.
func (c *Classifier) pickAbsence(absences []payroll.AbsenceRecord) payroll.AbsenceRecord {
	for _, a := range absences {
		if _, ok := c.fullDayCodes[strings.ToUpper(a.TypeCode)]; ok {
			return a
		}
	}
	return absences[0]
}

func punchQuality(ratio, hours float64) attendance.ColorCategory {
	switch {
	case ratio >= 1 && hours >= excellentHours:
		return attendance.ColorExcellent
	case ratio >= goodRatio && hours >= goodHours:
		return attendance.ColorGood
	case ratio >= attentionRatio || hours >= attentionHours:
		return attendance.ColorAttention
	default:
		return attendance.ColorProblem
	}
}

func absenceTooltip(day *attendance.DayStatistics, chosen payroll.AbsenceRecord, dict payroll.Dictionaries) string {
	lines := []string{fmt.Sprintf("%s - %s", chosen.TypeCode, dict.AbsenceDescription(chosen.TypeCode))}
	for _, a := range day.Absences {
		if a.TypeCode == chosen.TypeCode {
			continue
		}
		lines = append(lines, fmt.Sprintf("also: %s - %s", a.TypeCode, dict.AbsenceDescription(a.TypeCode)))
	}
	if day.PunchCount > 0 {
		lines = append(lines, punchTooltip(day))
	}
	return strings.Join(lines, "\n")
}

func overtimeTooltip(day *attendance.DayStatistics, dict payroll.Dictionaries) string {
	lines := make([]string, 0, len(day.Overtimes)+1)
	for _, o := range day.Overtimes {
		lines = append(lines, fmt.Sprintf("%s - %s: %s",
			o.TypeCode, dict.OvertimeDescription(o.TypeCode), formatDecimalHours(o.DurationHours)))
	}
	if day.PunchCount > 0 {
		lines = append(lines, punchTooltip(day))
	}
	return strings.Join(lines, "\n")
}

func punchTooltip(day *attendance.DayStatistics) string {
	var b strings.Builder
	if day.FirstPunch != nil && day.LastPunch != nil {
		fmt.Fprintf(&b, "%s - %s, ", day.FirstPunch.Format("15:04"), day.LastPunch.Format("15:04"))
	}
	fmt.Fprintf(&b, "%d/%d confirmed", day.ConfirmedCount, day.PunchCount)
	if len(day.WorkSites) > 0 {
		fmt.Fprintf(&b, ", sites: %s", strings.Join(day.WorkSites, ", "))
	}
	return b.String()
}

// formatDuration renders HH:MM, truncating seconds.
func formatDuration(d time.Duration) string {
	minutes := int(d / time.Minute)
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func formatDecimalHours(h decimal.Decimal) string {
	minutes := h.Mul(decimal.NewFromInt(60)).Round(0).IntPart()
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
