package reconcile

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cmlabs-hris/timebank-backend-go/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"02/01/2006",
}

type rowKind int

const (
	rowUnknown rowKind = iota
	rowAbsence
	rowOvertime
)

// kindOf classifies a row. A row carrying both type fields is an absence.
func kindOf(row payroll.MonthlyRow) rowKind {
	if _, ok := lookup(row, absenceTypeAliases); ok {
		return rowAbsence
	}
	if _, ok := lookup(row, overtimeTypeAliases); ok {
		return rowOvertime
	}
	return rowUnknown
}

// lookup returns the first non-null value among the aliases.
func lookup(row payroll.MonthlyRow, aliases []string) (any, bool) {
	for _, alias := range aliases {
		v, ok := row[alias]
		if !ok || v == nil {
			continue
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			continue
		}
		return v, true
	}
	return nil, false
}

func lookupString(row payroll.MonthlyRow, aliases []string) (string, bool) {
	v, ok := lookup(row, aliases)
	if !ok {
		return "", false
	}
	return toString(v), true
}

func normalizeAbsence(row payroll.MonthlyRow) (payroll.AbsenceRecord, error) {
	code, date, err := identity(row)
	if err != nil {
		return payroll.AbsenceRecord{}, err
	}

	typeCode, _ := lookupString(row, absenceTypeAliases)
	record := payroll.AbsenceRecord{
		EmployeeCode: code,
		Date:         date,
		TypeCode:     strings.ToUpper(typeCode),
		Duration:     decimal.Zero,
	}

	if v, ok := lookup(row, absenceDurationAliases); ok {
		d, err := toDecimal(v)
		if err != nil {
			return payroll.AbsenceRecord{}, fmt.Errorf("absence duration: %w", err)
		}
		record.Duration = d
	}
	if v, ok := lookup(row, hourBasedAliases); ok {
		record.IsHourBased = toBool(v)
	}
	if v, ok := lookup(row, mealSubsidyAliases); ok {
		record.DeductsMealSubsidy = toBool(v)
	}
	record.OriginSystemID, _ = lookupString(row, absenceIDAliases)

	return record, nil
}

func normalizeOvertime(row payroll.MonthlyRow) (payroll.OvertimeRecord, error) {
	code, date, err := identity(row)
	if err != nil {
		return payroll.OvertimeRecord{}, err
	}

	typeCode, _ := lookupString(row, overtimeTypeAliases)
	record := payroll.OvertimeRecord{
		EmployeeCode:  code,
		Date:          date,
		TypeCode:      strings.ToUpper(typeCode),
		DurationHours: decimal.Zero,
	}

	if v, ok := lookup(row, overtimeDurationAliases); ok {
		d, err := toDecimal(v)
		if err != nil {
			return payroll.OvertimeRecord{}, fmt.Errorf("overtime duration: %w", err)
		}
		record.DurationHours = d
	}
	record.ExternalID, _ = lookupString(row, overtimeIDAliases)

	return record, nil
}

func identity(row payroll.MonthlyRow) (string, time.Time, error) {
	code, ok := lookupString(row, employeeCodeAliases)
	if !ok {
		return "", time.Time{}, fmt.Errorf("row has no employee code")
	}
	raw, ok := lookup(row, dateAliases)
	if !ok {
		return "", time.Time{}, fmt.Errorf("row has no date")
	}
	date, err := toDate(raw)
	if err != nil {
		return "", time.Time{}, err
	}
	return strings.TrimSpace(code), date, nil
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

// toDecimal accepts JSON numbers and strings with either decimal separator.
func toDecimal(v any) (decimal.Decimal, error) {
	switch t := v.(type) {
	case float64:
		return decimal.NewFromFloat(t), nil
	case int:
		return decimal.NewFromInt(int64(t)), nil
	case int64:
		return decimal.NewFromInt(t), nil
	case string:
		s := strings.TrimSpace(t)
		if strings.Contains(s, ",") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		}
		return decimal.NewFromString(s)
	default:
		return decimal.Zero, fmt.Errorf("unsupported number %v (%T)", v, v)
	}
}

// toDate keeps only the calendar day; time-of-day components are dropped.
func toDate(v any) (time.Time, error) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, fmt.Errorf("unsupported date %v (%T)", v, v)
	}
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func toBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case int:
		return t != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "s", "sim", "y", "yes", "true", "1":
			return true
		}
	}
	return false
}
