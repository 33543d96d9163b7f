package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/timebank-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timebank-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type employeeDirectory struct {
	db *database.DB
}

func NewEmployeeDirectory(db *database.DB) employee.Directory {
	return &employeeDirectory{db: db}
}

const employeeColumns = `user_id, full_name, employee_code, work_site_id, employment_status`

// GetEmployeeCode implements employee.Directory.
func (e *employeeDirectory) GetEmployeeCode(ctx context.Context, userID string) (string, error) {
	q := GetQuerier(ctx, e.db)

	query := `
		SELECT employee_code
		FROM employees
		WHERE user_id = $1 AND deleted_at IS NULL
		LIMIT 1
	`

	var code *string
	err := q.QueryRow(ctx, query, userID).Scan(&code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", employee.ErrEmployeeNotFound
		}
		return "", fmt.Errorf("failed to get employee code for user %s: %w", userID, err)
	}
	if code == nil || *code == "" {
		return "", employee.ErrEmployeeCodeNotFound
	}

	return *code, nil
}

// ListActive implements employee.Directory.
func (e *employeeDirectory) ListActive(ctx context.Context, workSiteID *string) ([]employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	query := `
		SELECT ` + employeeColumns + `
		FROM employees
		WHERE employment_status = $1
		  AND deleted_at IS NULL
		  AND ($2::text IS NULL OR work_site_id = $2)
		ORDER BY full_name ASC
	`

	rows, err := q.Query(ctx, query, employee.EmploymentStatusActive, workSiteID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active employees: %w", err)
	}
	defer rows.Close()

	return scanEmployees(rows)
}

// GetByUserIDs implements employee.Directory.
func (e *employeeDirectory) GetByUserIDs(ctx context.Context, userIDs []string) ([]employee.Employee, error) {
	if len(userIDs) == 0 {
		return []employee.Employee{}, nil
	}

	q := GetQuerier(ctx, e.db)

	query := `
		SELECT ` + employeeColumns + `
		FROM employees
		WHERE user_id = ANY($1)
		  AND deleted_at IS NULL
		ORDER BY full_name ASC
	`

	rows, err := q.Query(ctx, query, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get employees by user ids: %w", err)
	}
	defer rows.Close()

	return scanEmployees(rows)
}

func scanEmployees(rows pgx.Rows) ([]employee.Employee, error) {
	var employees []employee.Employee
	for rows.Next() {
		var emp employee.Employee
		if err := rows.Scan(&emp.UserID, &emp.FullName, &emp.EmployeeCode, &emp.WorkSiteID, &emp.EmploymentStatus); err != nil {
			return nil, err
		}
		employees = append(employees, emp)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return employees, nil
}
