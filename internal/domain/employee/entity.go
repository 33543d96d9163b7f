package employee

type EmploymentStatus string

const (
	EmploymentStatusActive   EmploymentStatus = "active"
	EmploymentStatusInactive EmploymentStatus = "inactive"
	EmploymentStatusResigned EmploymentStatus = "resigned"
)

// Employee is the slice of the employee directory the attendance core reads.
type Employee struct {
	UserID           string
	FullName         string
	EmployeeCode     *string
	WorkSiteID       *string
	EmploymentStatus EmploymentStatus
}
