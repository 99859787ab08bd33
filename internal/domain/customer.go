package domain

import "time"

type Customer struct {
	ID               int64          `json:"id"`
	Name             string         `json:"name"`
	Phone            string         `json:"phone"`
	Email            string         `json:"email"`
	Notes            string         `json:"notes"`
	Preferences      string         `json:"preferences"`
	AppointmentCount int64          `json:"appointmentCount"`
	Appointments     []*Appointment `json:"appointments,omitempty"`
	CreatedAt        time.Time      `json:"createdAt"`
	Version          int32          `json:"-"`
}
