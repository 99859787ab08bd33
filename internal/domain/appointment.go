package domain

import (
	"encoding/json"
	"time"
)

type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "SCHEDULED"
	StatusCompleted AppointmentStatus = "COMPLETED"
	StatusCancelled AppointmentStatus = "CANCELLED"
	StatusNoShow    AppointmentStatus = "NO_SHOW"
)

// Day 只包含日期部分，序列化为 "2006-01-02"
type Day struct {
	time.Time
}

func NewDay(t time.Time) Day {
	return Day{Time: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

func ParseDay(s string) (Day, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Day{}, err
	}
	return Day{Time: t}, nil
}

func (d Day) String() string {
	return d.Format(DateLayout)
}

func (d Day) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Day) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDay(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

type AppointmentService struct {
	ServiceID int64   `json:"serviceID"`
	Name      string  `json:"name"`
	Duration  int32   `json:"duration"`
	Price     float64 `json:"price"`
}

type Appointment struct {
	ID            int64                `json:"id"`
	CustomerID    int64                `json:"customerID"`
	CustomerName  string               `json:"customerName"`
	EmployeeID    *int64               `json:"employeeID"` // 为 nil 时表示没有指定员工
	EmployeeName  *string              `json:"employeeName"`
	Date          Day                  `json:"date"`
	StartTime     Clock                `json:"startTime"`
	TotalDuration int32                `json:"totalDuration"`
	TotalPrice    float64              `json:"totalPrice"`
	Status        AppointmentStatus    `json:"status"`
	Notes         string               `json:"notes"`
	Services      []AppointmentService `json:"services"`
	CreatedAt     time.Time            `json:"createdAt"`
	Version       int32                `json:"-"`
}

func (a *Appointment) EndTime() Clock {
	return a.StartTime + Clock(a.TotalDuration)
}

func (a *Appointment) ServiceIDs() []int64 {
	ids := make([]int64, len(a.Services))
	for i, s := range a.Services {
		ids[i] = s.ServiceID
	}
	return ids
}
