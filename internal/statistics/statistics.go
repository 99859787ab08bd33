// Package statistics 汇总仪表盘所需的预约统计数据
package statistics

import (
	"cmp"
	"slices"
	"time"

	"github.com/sysu-ecnc-dev/nail-salon/backend/internal/domain"
)

const popularServiceLimit = 5

type PopularService struct {
	ServiceID int64   `json:"serviceID"`
	Name      string  `json:"name"`
	Count     int     `json:"count"`
	Revenue   float64 `json:"revenue"`
}

type Statistics struct {
	TotalAppointments       int                              `json:"totalAppointments"`
	TodayAppointments       int                              `json:"todayAppointments"`
	WeeklyRevenue           float64                          `json:"weeklyRevenue"`
	MonthlyRevenue          float64                          `json:"monthlyRevenue"`
	TotalCustomers          int                              `json:"totalCustomers"`
	NewCustomersThisMonth   int                              `json:"newCustomersThisMonth"`
	PopularServices         []PopularService                 `json:"popularServices"`
	StatusCounts            map[domain.AppointmentStatus]int `json:"statusCounts"`
	AverageAppointmentValue float64                          `json:"averageAppointmentValue"`
	CompletionRate          float64                          `json:"completionRate"`
}

// Compute 根据全部预约计算统计数据，now 决定今天、本周（周日开始）和本月的范围。
// 已取消的预约不计入收入。
func Compute(appointments []*domain.Appointment, now time.Time) *Statistics {
	today := domain.NewDay(now).Time
	tomorrow := today.AddDate(0, 0, 1)
	weekStart := today.AddDate(0, 0, -int(today.Weekday()))
	weekEnd := weekStart.AddDate(0, 0, 7)
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, 0)

	stats := &Statistics{
		TotalAppointments: len(appointments),
		StatusCounts: map[domain.AppointmentStatus]int{
			domain.StatusScheduled: 0,
			domain.StatusCompleted: 0,
			domain.StatusCancelled: 0,
			domain.StatusNoShow:    0,
		},
		PopularServices: make([]PopularService, 0),
	}

	popular := make(map[int64]*PopularService)
	firstVisit := make(map[int64]time.Time)
	var completedRevenue float64

	for _, a := range appointments {
		date := a.Date.Time
		stats.StatusCounts[a.Status]++

		if within(date, today, tomorrow) {
			stats.TodayAppointments++
		}

		if a.Status != domain.StatusCancelled {
			if within(date, weekStart, weekEnd) {
				stats.WeeklyRevenue += a.TotalPrice
			}
			if within(date, monthStart, monthEnd) {
				stats.MonthlyRevenue += a.TotalPrice
			}
		}

		if a.Status == domain.StatusCompleted {
			completedRevenue += a.TotalPrice
		}

		if first, ok := firstVisit[a.CustomerID]; !ok || date.Before(first) {
			firstVisit[a.CustomerID] = date
		}

		for _, s := range a.Services {
			p, ok := popular[s.ServiceID]
			if !ok {
				p = &PopularService{ServiceID: s.ServiceID, Name: s.Name}
				popular[s.ServiceID] = p
			}
			p.Count++
			p.Revenue += s.Price
		}
	}

	stats.TotalCustomers = len(firstVisit)
	for _, first := range firstVisit {
		if within(first, monthStart, monthEnd) {
			stats.NewCustomersThisMonth++
		}
	}

	for _, p := range popular {
		stats.PopularServices = append(stats.PopularServices, *p)
	}
	slices.SortFunc(stats.PopularServices, func(a, b PopularService) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.ServiceID, b.ServiceID)
	})
	if len(stats.PopularServices) > popularServiceLimit {
		stats.PopularServices = stats.PopularServices[:popularServiceLimit]
	}

	if completed := stats.StatusCounts[domain.StatusCompleted]; completed > 0 {
		stats.AverageAppointmentValue = completedRevenue / float64(completed)
	}
	if stats.TotalAppointments > 0 {
		stats.CompletionRate = float64(stats.StatusCounts[domain.StatusCompleted]) / float64(stats.TotalAppointments) * 100
	}

	return stats
}

func within(t, start, end time.Time) bool {
	return !t.Before(start) && t.Before(end)
}
