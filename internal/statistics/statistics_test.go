package statistics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/nail-salon/backend/internal/domain"
)

func day(t *testing.T, s string) domain.Day {
	t.Helper()
	d, err := domain.ParseDay(s)
	require.NoError(t, err)
	return d
}

func TestComputeEmpty(t *testing.T) {
	stats := Compute(nil, time.Now())

	assert.Zero(t, stats.TotalAppointments)
	assert.Zero(t, stats.CompletionRate)
	assert.Zero(t, stats.AverageAppointmentValue)
	assert.Empty(t, stats.PopularServices)
	assert.Len(t, stats.StatusCounts, 4)
}

func TestCompute(t *testing.T) {
	// 2025-03-12 是星期三，本周从 2025-03-09 开始
	now := time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC)
	manicure := domain.AppointmentService{ServiceID: 1, Name: "Manicure", Price: 20}
	pedicure := domain.AppointmentService{ServiceID: 2, Name: "Pedicure", Price: 30}

	appointments := []*domain.Appointment{
		// 老客户，上个月第一次来
		{ID: 1, CustomerID: 10, Date: day(t, "2025-02-20"), Status: domain.StatusCompleted, TotalPrice: 20, Services: []domain.AppointmentService{manicure}},
		{ID: 2, CustomerID: 10, Date: day(t, "2025-03-12"), Status: domain.StatusCompleted, TotalPrice: 50, Services: []domain.AppointmentService{manicure, pedicure}},
		// 新客户
		{ID: 3, CustomerID: 11, Date: day(t, "2025-03-09"), Status: domain.StatusScheduled, TotalPrice: 40, Services: []domain.AppointmentService{manicure, manicure}},
		{ID: 4, CustomerID: 12, Date: day(t, "2025-03-03"), Status: domain.StatusCancelled, TotalPrice: 30, Services: []domain.AppointmentService{pedicure}},
		// 下周，只计入本月
		{ID: 5, CustomerID: 12, Date: day(t, "2025-03-20"), Status: domain.StatusNoShow, TotalPrice: 30, Services: []domain.AppointmentService{pedicure}},
	}

	stats := Compute(appointments, now)

	assert.Equal(t, 5, stats.TotalAppointments)
	assert.Equal(t, 1, stats.TodayAppointments)
	assert.InDelta(t, 90, stats.WeeklyRevenue, 0.001)
	assert.InDelta(t, 120, stats.MonthlyRevenue, 0.001)
	assert.Equal(t, 3, stats.TotalCustomers)
	assert.Equal(t, 2, stats.NewCustomersThisMonth)

	assert.Equal(t, 2, stats.StatusCounts[domain.StatusCompleted])
	assert.Equal(t, 1, stats.StatusCounts[domain.StatusCancelled])
	assert.InDelta(t, 35, stats.AverageAppointmentValue, 0.001)
	assert.InDelta(t, 40, stats.CompletionRate, 0.001)

	require.Len(t, stats.PopularServices, 2)
	assert.Equal(t, "Manicure", stats.PopularServices[0].Name)
	assert.Equal(t, 4, stats.PopularServices[0].Count)
	assert.InDelta(t, 80, stats.PopularServices[0].Revenue, 0.001)
	assert.Equal(t, 3, stats.PopularServices[1].Count)
}

func TestComputeCountsCustomersByID(t *testing.T) {
	now := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)

	appointments := make([]*domain.Appointment, 0)
	for i := range 6 {
		appointments = append(appointments, &domain.Appointment{
			ID:         int64(i + 1),
			CustomerID: int64(i%2 + 1),
			Date:       day(t, "2025-03-01"),
			Status:     domain.StatusScheduled,
		})
	}

	stats := Compute(appointments, now)
	assert.Equal(t, 2, stats.TotalCustomers)
}

func TestComputeLimitsPopularServices(t *testing.T) {
	services := make([]domain.AppointmentService, 0)
	for i := range 7 {
		services = append(services, domain.AppointmentService{ServiceID: int64(i + 1), Price: 10})
	}

	stats := Compute([]*domain.Appointment{{ID: 1, CustomerID: 1, Status: domain.StatusScheduled, Services: services}}, time.Now())
	assert.Len(t, stats.PopularServices, popularServiceLimit)
	assert.Equal(t, int64(1), stats.PopularServices[0].ServiceID)
}
