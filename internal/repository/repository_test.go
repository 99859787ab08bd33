package repository

import (
	"database/sql"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/nail-salon/backend/internal/config"
	"github.com/sysu-ecnc-dev/nail-salon/backend/internal/domain"
)

// int64 切片由 pgx 编码为数组，sqlmock 的默认转换器不认识它
type arrayConverter struct{}

func (arrayConverter) ConvertValue(v any) (driver.Value, error) {
	if ids, ok := v.([]int64); ok {
		return ids, nil
	}
	return driver.DefaultParameterConverter.ConvertValue(v)
}

func newTestRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.ValueConverterOption(arrayConverter{}))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})

	cfg := &config.Config{}
	cfg.Database.QueryTimeout = 5
	cfg.Database.TransactionTimeout = 5

	return NewRepository(cfg, db), mock
}

var employeeColumns = []string{"id", "name", "email", "phone", "working_hours", "is_active", "created_at", "version", "count"}

func TestGetEmployeeByIDParsesWorkingHours(t *testing.T) {
	repo, mock := newTestRepository(t)
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE e.id = $1")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(employeeColumns).
			AddRow(3, "Elena", "elena@nailsalon.gr", "6900000003",
				[]byte(`{"monday":{"start":"09:00","end":"17:00","isWorking":true}}`), true, created, 1, 4))
	mock.ExpectQuery(regexp.QuoteMeta("FROM employee_services es")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"employee_id", "id", "name", "description", "duration", "price", "is_active", "created_at", "version"}).
			AddRow(3, 10, "Manicure", "", 45, 20.0, true, created, 1))

	e, err := repo.GetEmployeeByID(3)
	require.NoError(t, err)

	assert.NoError(t, e.WorkingHoursErr)
	monday, ok := e.WorkingHours.Day(domain.Monday)
	require.True(t, ok)
	assert.Equal(t, "09:00", monday.Start.String())
	assert.Equal(t, int64(4), e.AppointmentCount)
	require.Len(t, e.Services, 1)
	assert.Equal(t, "Manicure", e.Services[0].Name)
	assert.True(t, e.ProvidesService(10))
}

func TestGetEmployeeByIDKeepsBrokenWorkingHours(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE e.id = $1")).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(employeeColumns).
			AddRow(5, "Maria", "", "", []byte(`{"monday":{"start":"9am","end":"17:00","isWorking":true}}`), true, time.Now(), 1, 0))
	mock.ExpectQuery(regexp.QuoteMeta("FROM employee_services es")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"employee_id", "id", "name", "description", "duration", "price", "is_active", "created_at", "version"}))

	e, err := repo.GetEmployeeByID(5)
	require.NoError(t, err)
	assert.ErrorIs(t, e.WorkingHoursErr, domain.ErrInvalidWorkingHours)
	assert.Nil(t, e.WorkingHours)
}

func TestGetEmployeeByIDNotFound(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE e.id = $1")).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows(employeeColumns))

	_, err := repo.GetEmployeeByID(9)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestGetEmployeeAppointmentsOnDate(t *testing.T) {
	repo, mock := newTestRepository(t)
	day, err := domain.ParseDay("2025-03-10")
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE employee_id = $1 AND date = $2")).
		WithArgs(int64(2), day.Time).
		WillReturnRows(sqlmock.NewRows([]string{"id", "start_time", "total_duration", "status"}).
			AddRow(1, "10:00:00", 60, "SCHEDULED").
			AddRow(2, "13:30:00", 45, "CANCELLED"))

	appointments, err := repo.GetEmployeeAppointmentsOnDate(2, day)
	require.NoError(t, err)
	require.Len(t, appointments, 2)

	assert.Equal(t, "10:00", appointments[0].StartTime.String())
	assert.Equal(t, "11:00", appointments[0].EndTime().String())
	assert.Equal(t, domain.StatusCancelled, appointments[1].Status)
	assert.Equal(t, int64(2), *appointments[1].EmployeeID)
}

func TestCreateAppointmentWritesServicesInOrder(t *testing.T) {
	repo, mock := newTestRepository(t)
	employeeID := int64(2)
	day, err := domain.ParseDay("2025-03-10")
	require.NoError(t, err)

	a := &domain.Appointment{
		CustomerID:    1,
		EmployeeID:    &employeeID,
		Date:          day,
		StartTime:     domain.Clock(14 * 60),
		TotalDuration: 90,
		TotalPrice:    40,
		Status:        domain.StatusScheduled,
		Services: []domain.AppointmentService{
			{ServiceID: 7},
			{ServiceID: 7},
		},
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO appointments")).
		WithArgs(int64(1), employeeID, day.Time, "14:00", int32(90), 40.0, "SCHEDULED", "").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "version"}).AddRow(11, time.Now(), 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO appointment_services")).
		WithArgs(int64(11), 0, int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO appointment_services")).
		WithArgs(int64(11), 1, int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.CreateAppointment(a))
	assert.Equal(t, int64(11), a.ID)
}

func TestCreateAppointmentRollsBackOnFailure(t *testing.T) {
	repo, mock := newTestRepository(t)

	a := &domain.Appointment{
		CustomerID:    1,
		Date:          domain.NewDay(time.Now()),
		StartTime:     domain.Clock(600),
		TotalDuration: 30,
		Status:        domain.StatusScheduled,
		Services:      []domain.AppointmentService{{ServiceID: 3}},
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO appointments")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "version"}).AddRow(12, time.Now(), 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO appointment_services")).
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	assert.ErrorIs(t, repo.CreateAppointment(a), sql.ErrConnDone)
}

func TestGetAppointmentsAppliesFilters(t *testing.T) {
	repo, mock := newTestRepository(t)
	employeeID := int64(4)
	status := domain.StatusCompleted
	created := time.Now()
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE a.employee_id = $1 AND a.status = $2 ORDER BY")).
		WithArgs(employeeID, "COMPLETED").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "customer_id", "customer_name", "employee_id", "employee_name", "date", "start_time",
			"total_duration", "total_price", "status", "notes", "created_at", "version",
		}).AddRow(1, 8, "Sofia", 4, "Elena", day, "09:30:00", 45, 20.0, "COMPLETED", "", created, 2))
	mock.ExpectQuery(regexp.QuoteMeta("FROM appointment_services aps")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"appointment_id", "id", "name", "duration", "price"}).
			AddRow(1, 3, "Manicure", 45, 20.0))

	appointments, err := repo.GetAppointments(AppointmentFilter{EmployeeID: &employeeID, Status: &status})
	require.NoError(t, err)
	require.Len(t, appointments, 1)

	a := appointments[0]
	assert.Equal(t, "2025-03-10", a.Date.String())
	assert.Equal(t, "09:30", a.StartTime.String())
	assert.Equal(t, "Elena", *a.EmployeeName)
	assert.Equal(t, []int64{3}, a.ServiceIDs())
}

func TestAppointmentFilterWhere(t *testing.T) {
	clause, args := AppointmentFilter{}.where()
	assert.Equal(t, " ORDER BY a.date DESC, a.start_time DESC, a.id DESC", clause)
	assert.Empty(t, args)

	customerID := int64(5)
	clause, args = AppointmentFilter{CustomerID: &customerID, Limit: 10}.where()
	assert.Contains(t, clause, "WHERE a.customer_id = $1")
	assert.Contains(t, clause, "LIMIT $2")
	assert.Equal(t, []any{customerID, 10}, args)
}

func TestGetServicesByIDs(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM services WHERE id = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "duration", "price", "is_active", "created_at", "version"}).
			AddRow(1, "Pedicure", "", 60, 30.0, true, time.Now(), 1))

	services, err := repo.GetServicesByIDs([]int64{1, 2})
	require.NoError(t, err)
	assert.Len(t, services, 1)
	assert.Equal(t, int32(60), services[1].Duration)

	empty, err := repo.GetServicesByIDs(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestUpdateCustomerVersionMismatch(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE customers")).
		WillReturnError(sql.ErrNoRows)

	err := repo.UpdateCustomer(&domain.Customer{ID: 1, Name: "Anna", Phone: "6900000000", Version: 3})
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestDeleteServiceMissing(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM services WHERE id = $1")).
		WithArgs(int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.DeleteService(42), sql.ErrNoRows)
}
