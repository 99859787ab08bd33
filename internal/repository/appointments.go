package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/sysu-ecnc-dev/nail-salon/backend/internal/domain"
)

const appointmentSelect = `
	SELECT a.id, a.customer_id, c.name, a.employee_id, e.name, a.date, a.start_time,
		a.total_duration, a.total_price, a.status, a.notes, a.created_at, a.version
	FROM appointments a
	JOIN customers c ON c.id = a.customer_id
	LEFT JOIN employees e ON e.id = a.employee_id
`

// AppointmentFilter 中为 nil 的字段不参与过滤，Limit 为 0 时不限制数量
type AppointmentFilter struct {
	Date       *domain.Day
	EmployeeID *int64
	CustomerID *int64
	Status     *domain.AppointmentStatus
	Limit      int
}

func (f AppointmentFilter) where() (string, []any) {
	conditions := make([]string, 0, 4)
	args := make([]any, 0, 5)

	if f.Date != nil {
		args = append(args, f.Date.Time)
		conditions = append(conditions, fmt.Sprintf("a.date = $%d", len(args)))
	}
	if f.EmployeeID != nil {
		args = append(args, *f.EmployeeID)
		conditions = append(conditions, fmt.Sprintf("a.employee_id = $%d", len(args)))
	}
	if f.CustomerID != nil {
		args = append(args, *f.CustomerID)
		conditions = append(conditions, fmt.Sprintf("a.customer_id = $%d", len(args)))
	}
	if f.Status != nil {
		args = append(args, string(*f.Status))
		conditions = append(conditions, fmt.Sprintf("a.status = $%d", len(args)))
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}
	clause += " ORDER BY a.date DESC, a.start_time DESC, a.id DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		clause += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	return clause, args
}

func scanAppointment(row rowScanner) (*domain.Appointment, error) {
	a := &domain.Appointment{Services: make([]domain.AppointmentService, 0)}

	var (
		employeeID   sql.NullInt64
		employeeName sql.NullString
		date         time.Time
		startTime    string
	)
	dst := []any{
		&a.ID, &a.CustomerID, &a.CustomerName, &employeeID, &employeeName, &date, &startTime,
		&a.TotalDuration, &a.TotalPrice, &a.Status, &a.Notes, &a.CreatedAt, &a.Version,
	}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}

	if employeeID.Valid {
		a.EmployeeID = &employeeID.Int64
	}
	if employeeName.Valid {
		a.EmployeeName = &employeeName.String
	}
	a.Date = domain.NewDay(date)

	clock, err := domain.ParseTimeColumn(startTime)
	if err != nil {
		return nil, fmt.Errorf("appointment %d: %w", a.ID, err)
	}
	a.StartTime = clock

	return a, nil
}

func (r *Repository) GetAppointments(filter AppointmentFilter) ([]*domain.Appointment, error) {
	ctx, cancel := r.queryContext()
	defer cancel()

	clause, args := filter.where()
	rows, err := r.dbpool.QueryContext(ctx, appointmentSelect+clause, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	appointments := make([]*domain.Appointment, 0)
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appointments = append(appointments, a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attachAppointmentServices(ctx, appointments); err != nil {
		return nil, err
	}

	return appointments, nil
}

func (r *Repository) GetAppointmentByID(id int64) (*domain.Appointment, error) {
	ctx, cancel := r.queryContext()
	defer cancel()

	a, err := scanAppointment(r.dbpool.QueryRowContext(ctx, appointmentSelect+` WHERE a.id = $1`, id))
	if err != nil {
		return nil, err
	}

	if err := r.attachAppointmentServices(ctx, []*domain.Appointment{a}); err != nil {
		return nil, err
	}

	return a, nil
}

// attachAppointmentServices 按预约时的顺序填充服务，重复的服务会出现多次
func (r *Repository) attachAppointmentServices(ctx context.Context, appointments []*domain.Appointment) error {
	if len(appointments) == 0 {
		return nil
	}

	ids := make([]int64, len(appointments))
	byID := make(map[int64]*domain.Appointment, len(appointments))
	for i, a := range appointments {
		ids[i] = a.ID
		byID[a.ID] = a
	}

	query := `
		SELECT aps.appointment_id, s.id, s.name, s.duration, s.price
		FROM appointment_services aps
		JOIN services s ON s.id = aps.service_id
		WHERE aps.appointment_id = ANY($1)
		ORDER BY aps.appointment_id, aps.position
	`
	rows, err := r.dbpool.QueryContext(ctx, query, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var appointmentID int64
		var s domain.AppointmentService
		if err := rows.Scan(&appointmentID, &s.ServiceID, &s.Name, &s.Duration, &s.Price); err != nil {
			return err
		}
		if a, ok := byID[appointmentID]; ok {
			a.Services = append(a.Services, s)
		}
	}

	return rows.Err()
}

// GetEmployeeAppointmentsOnDate 只返回冲突检测需要的字段，包含已取消的预约
func (r *Repository) GetEmployeeAppointmentsOnDate(employeeID int64, date domain.Day) ([]*domain.Appointment, error) {
	ctx, cancel := r.queryContext()
	defer cancel()

	query := `
		SELECT id, start_time, total_duration, status
		FROM appointments
		WHERE employee_id = $1 AND date = $2
		ORDER BY start_time
	`
	rows, err := r.dbpool.QueryContext(ctx, query, employeeID, date.Time)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	appointments := make([]*domain.Appointment, 0)
	for rows.Next() {
		var startTime string
		a := &domain.Appointment{EmployeeID: &employeeID, Date: date}
		if err := rows.Scan(&a.ID, &startTime, &a.TotalDuration, &a.Status); err != nil {
			return nil, err
		}
		if a.StartTime, err = domain.ParseTimeColumn(startTime); err != nil {
			return nil, fmt.Errorf("appointment %d: %w", a.ID, err)
		}
		appointments = append(appointments, a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return appointments, nil
}

func insertAppointmentServices(ctx context.Context, tx *sql.Tx, a *domain.Appointment) error {
	query := `INSERT INTO appointment_services (appointment_id, position, service_id) VALUES ($1, $2, $3)`
	for i, s := range a.Services {
		if _, err := tx.ExecContext(ctx, query, a.ID, i, s.ServiceID); err != nil {
			return err
		}
	}
	return nil
}

// CreateAppointment 在同一个事务中写入预约与其服务
func (r *Repository) CreateAppointment(a *domain.Appointment) error {
	ctx, cancel := r.transactionContext()
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO appointments (customer_id, employee_id, date, start_time, total_duration, total_price, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, version
	`
	args := []any{a.CustomerID, a.EmployeeID, a.Date.Time, a.StartTime.String(), a.TotalDuration, a.TotalPrice, a.Status, a.Notes}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&a.ID, &a.CreatedAt, &a.Version); err != nil {
		return err
	}

	if err := insertAppointmentServices(ctx, tx, a); err != nil {
		return err
	}

	return tx.Commit()
}

// UpdateAppointment 在 replaceServices 为 true 时用 a.Services 替换原有服务
func (r *Repository) UpdateAppointment(a *domain.Appointment, replaceServices bool) error {
	ctx, cancel := r.transactionContext()
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		UPDATE appointments
		SET customer_id = $1, employee_id = $2, date = $3, start_time = $4, total_duration = $5,
			total_price = $6, status = $7, notes = $8, version = version + 1
		WHERE id = $9 AND version = $10
		RETURNING version
	`
	args := []any{
		a.CustomerID, a.EmployeeID, a.Date.Time, a.StartTime.String(), a.TotalDuration,
		a.TotalPrice, a.Status, a.Notes, a.ID, a.Version,
	}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&a.Version); err != nil {
		return err
	}

	if replaceServices {
		if _, err := tx.ExecContext(ctx, `DELETE FROM appointment_services WHERE appointment_id = $1`, a.ID); err != nil {
			return err
		}
		if err := insertAppointmentServices(ctx, tx, a); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *Repository) DeleteAppointment(id int64) error {
	ctx, cancel := r.transactionContext()
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM appointment_services WHERE appointment_id = $1`, id); err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if err := expectAffected(result); err != nil {
		return err
	}

	return tx.Commit()
}
