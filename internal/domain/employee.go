package domain

import "time"

type Employee struct {
	ID           int64        `json:"id"`
	Name         string       `json:"name"`
	Email        string       `json:"email"`
	Phone        string       `json:"phone"`
	WorkingHours WorkingHours `json:"workingHours"`
	// 数据库中保存的工作时间无法解析时不为 nil，此时 WorkingHours 为空
	WorkingHoursErr    error          `json:"-"`
	IsActive           bool           `json:"isActive"`
	Services           []*Service     `json:"services"`
	AppointmentCount   int64          `json:"appointmentCount"`
	RecentAppointments []*Appointment `json:"recentAppointments,omitempty"`
	CreatedAt          time.Time      `json:"createdAt"`
	Version            int32          `json:"-"`
}

func (e *Employee) ProvidesService(serviceID int64) bool {
	for _, s := range e.Services {
		if s.ID == serviceID {
			return true
		}
	}
	return false
}
