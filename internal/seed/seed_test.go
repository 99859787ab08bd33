package seed

import (
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/nail-salon/backend/internal/config"
	"github.com/sysu-ecnc-dev/nail-salon/backend/internal/domain"
	"github.com/sysu-ecnc-dev/nail-salon/backend/internal/repository"
)

type arrayConverter struct{}

func (arrayConverter) ConvertValue(v any) (driver.Value, error) {
	if ids, ok := v.([]int64); ok {
		return ids, nil
	}
	return driver.DefaultParameterConverter.ConvertValue(v)
}

func newTestRepository(t *testing.T) (*repository.Repository, sqlmock.Sqlmock) {
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

	return repository.NewRepository(cfg, db), mock
}

var serviceColumns = []string{"id", "name", "description", "duration", "price", "is_active", "created_at", "version"}

func TestSeedDefaultServicesSkipsWhenPresent(t *testing.T) {
	repo, mock := newTestRepository(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM services ORDER BY name")).
		WillReturnRows(sqlmock.NewRows(serviceColumns).AddRow(1, "Manicure", "", 45, 20.0, true, time.Now(), 1))

	cnt, err := SeedDefaultServices(repo)
	require.NoError(t, err)
	assert.Zero(t, cnt)
}

func TestSeedDefaultServicesInsertsAll(t *testing.T) {
	repo, mock := newTestRepository(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM services ORDER BY name")).
		WillReturnRows(sqlmock.NewRows(serviceColumns))
	for i, s := range DefaultServices {
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO services")).
			WithArgs(s.Name, s.Description, s.Duration, s.Price, true).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "version"}).AddRow(i+1, time.Now(), 1))
	}

	cnt, err := SeedDefaultServices(repo)
	require.NoError(t, err)
	assert.Equal(t, len(DefaultServices), cnt)
}

func TestMondayToSaturday(t *testing.T) {
	hours := mondayToSaturday(9*60, 18*60)
	require.NoError(t, hours.Validate())

	sunday, ok := hours.Day(domain.Sunday)
	require.True(t, ok)
	assert.False(t, sunday.IsWorking)

	saturday, ok := hours.Day(domain.Saturday)
	require.True(t, ok)
	assert.True(t, saturday.IsWorking)
	assert.Equal(t, "18:00", saturday.End.String())
}

func TestSeedRandomAppointmentsNeedsData(t *testing.T) {
	repo, mock := newTestRepository(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM customers c")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "phone", "email", "notes", "preferences", "created_at", "version", "count"}))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE e.is_active")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "phone", "working_hours", "is_active", "created_at", "version", "count"}))
	mock.ExpectQuery(regexp.QuoteMeta("FROM services WHERE is_active")).
		WillReturnRows(sqlmock.NewRows(serviceColumns))

	day, err := domain.ParseDay("2025-03-10")
	require.NoError(t, err)

	_, err = SeedRandomAppointments(repo, day, 3, 30)
	assert.ErrorIs(t, err, ErrNothingToBook)
}
