package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/sysu-ecnc-dev/nail-salon/backend/internal/domain"
)

const employeeSelect = `
	SELECT e.id, e.name, e.email, e.phone, e.working_hours, e.is_active, e.created_at, e.version,
		(SELECT COUNT(*) FROM appointments a WHERE a.employee_id = e.id)
	FROM employees e
`

func scanEmployee(row rowScanner) (*domain.Employee, error) {
	e := &domain.Employee{Services: make([]*domain.Service, 0)}
	var workingHours []byte
	dst := []any{&e.ID, &e.Name, &e.Email, &e.Phone, &workingHours, &e.IsActive, &e.CreatedAt, &e.Version, &e.AppointmentCount}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}

	// 工作时间只在这里解析一次，解析失败的员工在预约时按不工作处理
	wh, err := domain.ParseWorkingHours(workingHours)
	if err != nil {
		slog.Warn("员工的工作时间配置无法解析", "employeeID", e.ID, "error", err)
		e.WorkingHoursErr = err
	} else {
		e.WorkingHours = wh
	}

	return e, nil
}

func encodeWorkingHours(wh domain.WorkingHours) ([]byte, error) {
	if wh == nil {
		return nil, nil
	}
	return json.Marshal(wh)
}

func (r *Repository) queryEmployees(query string, args ...any) ([]*domain.Employee, error) {
	ctx, cancel := r.queryContext()
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	employees := make([]*domain.Employee, 0)
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attachEmployeeServices(ctx, employees); err != nil {
		return nil, err
	}

	return employees, nil
}

// attachEmployeeServices 一次查询取出所有员工关联的服务
func (r *Repository) attachEmployeeServices(ctx context.Context, employees []*domain.Employee) error {
	if len(employees) == 0 {
		return nil
	}

	ids := make([]int64, len(employees))
	byID := make(map[int64]*domain.Employee, len(employees))
	for i, e := range employees {
		ids[i] = e.ID
		byID[e.ID] = e
	}

	query := `
		SELECT es.employee_id, s.id, s.name, s.description, s.duration, s.price, s.is_active, s.created_at, s.version
		FROM employee_services es
		JOIN services s ON s.id = es.service_id
		WHERE es.employee_id = ANY($1)
		ORDER BY s.name
	`
	rows, err := r.dbpool.QueryContext(ctx, query, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var employeeID int64
		s := &domain.Service{}
		dst := []any{&employeeID, &s.ID, &s.Name, &s.Description, &s.Duration, &s.Price, &s.IsActive, &s.CreatedAt, &s.Version}
		if err := rows.Scan(dst...); err != nil {
			return err
		}
		if e, ok := byID[employeeID]; ok {
			e.Services = append(e.Services, s)
		}
	}

	return rows.Err()
}

func (r *Repository) GetAllEmployees() ([]*domain.Employee, error) {
	return r.queryEmployees(employeeSelect + ` ORDER BY e.name, e.id`)
}

// GetActiveEmployees 返回在职员工，serviceID 不为 nil 时只返回提供该服务的员工
func (r *Repository) GetActiveEmployees(serviceID *int64) ([]*domain.Employee, error) {
	if serviceID == nil {
		return r.queryEmployees(employeeSelect + ` WHERE e.is_active ORDER BY e.name, e.id`)
	}

	query := employeeSelect + `
		WHERE e.is_active
		AND EXISTS (SELECT 1 FROM employee_services es WHERE es.employee_id = e.id AND es.service_id = $1)
		ORDER BY e.name, e.id
	`
	return r.queryEmployees(query, *serviceID)
}

func (r *Repository) GetEmployeeByID(id int64) (*domain.Employee, error) {
	employees, err := r.queryEmployees(employeeSelect+` WHERE e.id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(employees) == 0 {
		return nil, sql.ErrNoRows
	}
	return employees[0], nil
}

func insertEmployeeServices(ctx context.Context, tx *sql.Tx, employeeID int64, serviceIDs []int64) error {
	query := `INSERT INTO employee_services (employee_id, service_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	for _, serviceID := range serviceIDs {
		if _, err := tx.ExecContext(ctx, query, employeeID, serviceID); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) CreateEmployee(e *domain.Employee, serviceIDs []int64) error {
	ctx, cancel := r.transactionContext()
	defer cancel()

	workingHours, err := encodeWorkingHours(e.WorkingHours)
	if err != nil {
		return fmt.Errorf("encode working hours: %w", err)
	}

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO employees (name, email, phone, working_hours, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, version
	`
	args := []any{e.Name, e.Email, e.Phone, workingHours, e.IsActive}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&e.ID, &e.CreatedAt, &e.Version); err != nil {
		return err
	}

	if err := insertEmployeeServices(ctx, tx, e.ID, serviceIDs); err != nil {
		return err
	}

	return tx.Commit()
}

// UpdateEmployee 在 serviceIDs 不为 nil 时替换员工关联的全部服务
func (r *Repository) UpdateEmployee(e *domain.Employee, serviceIDs []int64) error {
	ctx, cancel := r.transactionContext()
	defer cancel()

	workingHours, err := encodeWorkingHours(e.WorkingHours)
	if err != nil {
		return fmt.Errorf("encode working hours: %w", err)
	}

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		UPDATE employees
		SET name = $1, email = $2, phone = $3, working_hours = $4, is_active = $5, version = version + 1
		WHERE id = $6 AND version = $7
		RETURNING version
	`
	args := []any{e.Name, e.Email, e.Phone, workingHours, e.IsActive, e.ID, e.Version}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&e.Version); err != nil {
		return err
	}

	if serviceIDs != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM employee_services WHERE employee_id = $1`, e.ID); err != nil {
			return err
		}
		if err := insertEmployeeServices(ctx, tx, e.ID, serviceIDs); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *Repository) DeleteEmployee(id int64) error {
	ctx, cancel := r.queryContext()
	defer cancel()

	result, err := r.dbpool.ExecContext(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}
