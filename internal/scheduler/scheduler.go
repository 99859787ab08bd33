package scheduler

import (
	"errors"
	"fmt"
	"time"

	"github.com/sysu-ecnc-dev/nail-salon/backend/internal/domain"
)

var (
	ErrNotWorkingThisDay   = errors.New("the employee does not work on this day")
	ErrOutsideWorkingHours = errors.New("the appointment is outside the employee's working hours")
	ErrTimeConflict        = errors.New("the employee already has an appointment at this time")
	// 工作时间配置损坏时按不工作处理，errors.Is(err, ErrNotWorkingThisDay) 仍然成立
	ErrInvalidConfiguration = fmt.Errorf("%w: the employee's working hours configuration is invalid", ErrNotWorkingThisDay)
	ErrInvalidDuration      = errors.New("duration must be a positive number of minutes")
	ErrUnknownService       = errors.New("service does not exist")
)

// Booking 是一次预约校验所需的全部输入
type Booking struct {
	WorkingHours    domain.WorkingHours
	WorkingHoursErr error
	Date            time.Time
	Start           domain.Clock
	Duration        int
	// 已有预约，可以包含已取消的预约，校验时会被忽略
	Existing []*domain.Appointment
	// 修改已有预约时需要排除它自己
	ExcludeAppointmentID int64
}

// WorkingDayFor 返回员工在 date 那天的工作窗口
func WorkingDayFor(hours domain.WorkingHours, hoursErr error, date time.Time) (domain.WorkingDay, error) {
	if hoursErr != nil {
		return domain.WorkingDay{}, ErrInvalidConfiguration
	}

	day, ok := hours.Day(domain.WeekdayOf(date))
	if !ok || !day.IsWorking {
		return domain.WorkingDay{}, ErrNotWorkingThisDay
	}

	return day, nil
}

func ValidateBooking(b Booking) error {
	if b.Duration <= 0 {
		return ErrInvalidDuration
	}

	day, err := WorkingDayFor(b.WorkingHours, b.WorkingHoursErr, b.Date)
	if err != nil {
		return err
	}

	if !IsWithinWorkingHours(b.Start, b.Duration, day) {
		return ErrOutsideWorkingHours
	}

	existing := make([]*domain.Appointment, 0, len(b.Existing))
	for _, a := range ActiveAppointments(b.Existing) {
		if a.ID != b.ExcludeAppointmentID {
			existing = append(existing, a)
		}
	}
	if HasConflict(b.Start, b.Duration, existing) {
		return ErrTimeConflict
	}

	return nil
}

// ActiveAppointments 去掉已取消的预约
func ActiveAppointments(appointments []*domain.Appointment) []*domain.Appointment {
	active := make([]*domain.Appointment, 0, len(appointments))
	for _, a := range appointments {
		if a.Status != domain.StatusCancelled {
			active = append(active, a)
		}
	}
	return active
}

// Totals 按请求中的顺序累加服务时长与价格，重复的服务会被重复计算
func Totals(serviceIDs []int64, services map[int64]*domain.Service) (int32, float64, error) {
	var duration int32
	var price float64

	for _, id := range serviceIDs {
		s, ok := services[id]
		if !ok {
			return 0, 0, fmt.Errorf("%w: %d", ErrUnknownService, id)
		}
		duration += s.Duration
		price += s.Price
	}

	return duration, price, nil
}
