package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// AbsenceRecord is an absence ("falta") owned by the payroll ERP.
type AbsenceRecord struct {
	EmployeeCode       string
	Date               time.Time
	TypeCode           string
	Duration           decimal.Decimal
	IsHourBased        bool
	DeductsMealSubsidy bool
	OriginSystemID     string
}

// OvertimeRecord is an overtime credit ("hora extra") owned by the payroll ERP.
// ExternalID is required to delete it.
type OvertimeRecord struct {
	EmployeeCode  string
	Date          time.Time
	TypeCode      string
	DurationHours decimal.Decimal
	ExternalID    string
}

type AbsenceType struct {
	Code               string
	Description        string
	IsHourBased        bool
	DeductsMealSubsidy bool
}

type OvertimeType struct {
	Code        string
	Description string
}

// Dictionaries are the ERP coding tables the day classifier depends on.
type Dictionaries struct {
	Absence  map[string]AbsenceType
	Overtime map[string]OvertimeType
}

// AbsenceDescription falls back to the code itself for unknown types.
func (d Dictionaries) AbsenceDescription(code string) string {
	if t, ok := d.Absence[code]; ok && t.Description != "" {
		return t.Description
	}
	return code
}

func (d Dictionaries) OvertimeDescription(code string) string {
	if t, ok := d.Overtime[code]; ok && t.Description != "" {
		return t.Description
	}
	return code
}

// MonthlyRow is one raw row of the ERP monthly movement dataset. Absence and
// overtime rows share the dataset but not their field names.
type MonthlyRow map[string]any

// MonthlyRecords holds one employee's records for one month keyed by day of month.
type MonthlyRecords struct {
	Absences  map[int][]AbsenceRecord
	Overtimes map[int][]OvertimeRecord
}

func NewMonthlyRecords() MonthlyRecords {
	return MonthlyRecords{
		Absences:  make(map[int][]AbsenceRecord),
		Overtimes: make(map[int][]OvertimeRecord),
	}
}
