package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/sysu-ecnc-dev/nail-salon/backend/internal/domain"
	"github.com/sysu-ecnc-dev/nail-salon/backend/internal/scheduler"
)

// 一次服务不可能超过一整天
const maxDuration = 24 * 60

const (
	reasonNotWorking           = "not working this day"
	reasonInvalidConfiguration = "invalid working hours configuration"
	reasonNoSlots              = "no available slots"
)

// PublicEmployee 是空闲时间查询中返回的员工信息，这两个接口不需要登录
type PublicEmployee struct {
	ID       int64             `json:"id"`
	Name     string            `json:"name"`
	Services []*domain.Service `json:"services"`
}

type EmployeeAvailability struct {
	Employee       PublicEmployee           `json:"employee"`
	Date           domain.Day               `json:"date"`
	Duration       int                      `json:"duration"`
	IsAvailable    bool                     `json:"isAvailable"`
	AvailableSlots []scheduler.TimeInterval `json:"availableSlots"`
	Reason         string                   `json:"reason,omitempty"`
}

type availabilityQuery struct {
	Date      domain.Day
	Duration  int
	ServiceID *int64
}

// parseAvailabilityQuery 中时长的优先级为：duration 参数、serviceId 对应服务的时长、默认时长
func (h *Handler) parseAvailabilityQuery(r *http.Request) (availabilityQuery, int, error) {
	q := availabilityQuery{
		Date:     domain.NewDay(time.Now()),
		Duration: h.config.Booking.DefaultDuration,
	}
	params := r.URL.Query()

	if s := params.Get("date"); s != "" {
		day, err := domain.ParseDay(s)
		if err != nil {
			return q, http.StatusBadRequest, errors.New("date must be in YYYY-MM-DD format")
		}
		q.Date = day
	}

	if s := params.Get("serviceId"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil || id <= 0 {
			return q, http.StatusBadRequest, errors.New("invalid serviceId")
		}
		q.ServiceID = &id
	}

	if s := params.Get("duration"); s != "" {
		duration, err := strconv.Atoi(s)
		if err != nil {
			return q, http.StatusBadRequest, errors.New("duration must be a number of minutes")
		}
		if duration < h.config.Booking.MinDuration {
			return q, http.StatusBadRequest, fmt.Errorf("duration must be at least %d minutes", h.config.Booking.MinDuration)
		}
		if duration > maxDuration {
			return q, http.StatusBadRequest, fmt.Errorf("duration must be at most %d minutes", maxDuration)
		}
		q.Duration = duration
		return q, 0, nil
	}

	if q.ServiceID != nil {
		service, err := h.repository.GetServiceByID(*q.ServiceID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return q, http.StatusNotFound, errors.New("service not found")
			}
			return q, http.StatusInternalServerError, err
		}
		q.Duration = int(service.Duration)
	}

	return q, 0, nil
}

func (h *Handler) respondAvailabilityQueryError(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status == http.StatusInternalServerError {
		h.internalServerError(w, r, err)
		return
	}
	h.errorResponse(w, r, status, err.Error())
}

// availabilityFor 计算员工在某天的空闲时段，不工作或配置有误时返回原因而不是错误
func (h *Handler) availabilityFor(e *domain.Employee, date domain.Day, duration int) (*EmployeeAvailability, error) {
	result := &EmployeeAvailability{
		Employee:       PublicEmployee{ID: e.ID, Name: e.Name, Services: e.Services},
		Date:           date,
		Duration:       duration,
		AvailableSlots: make([]scheduler.TimeInterval, 0),
	}

	day, err := scheduler.WorkingDayFor(e.WorkingHours, e.WorkingHoursErr, date.Time)
	switch {
	case errors.Is(err, scheduler.ErrInvalidConfiguration):
		result.Reason = reasonInvalidConfiguration
		h.metrics.ObserveAvailability("invalid_configuration", 0)
		return result, nil
	case errors.Is(err, scheduler.ErrNotWorkingThisDay):
		result.Reason = reasonNotWorking
		h.metrics.ObserveAvailability("not_working", 0)
		return result, nil
	case err != nil:
		return nil, err
	}

	existing, err := h.repository.GetEmployeeAppointmentsOnDate(e.ID, date)
	if err != nil {
		return nil, err
	}

	slots, err := scheduler.ComputeAvailableSlots(day, scheduler.ActiveAppointments(existing), duration, h.config.Booking.SlotGranularity)
	if err != nil {
		return nil, err
	}

	result.AvailableSlots = slots
	result.IsAvailable = len(slots) > 0
	if result.IsAvailable {
		h.metrics.ObserveAvailability("available", len(slots))
	} else {
		result.Reason = reasonNoSlots
		h.metrics.ObserveAvailability("fully_booked", 0)
	}

	return result, nil
}

func (h *Handler) GetEmployeesAvailability(w http.ResponseWriter, r *http.Request) {
	q, status, err := h.parseAvailabilityQuery(r)
	if err != nil {
		h.respondAvailabilityQueryError(w, r, status, err)
		return
	}

	employees, err := h.repository.GetActiveEmployees(q.ServiceID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	results := make([]*EmployeeAvailability, 0, len(employees))
	for _, e := range employees {
		availability, err := h.availabilityFor(e, q.Date, q.Duration)
		if err != nil {
			h.internalServerError(w, r, err)
			return
		}
		results = append(results, availability)
	}

	h.successResponse(w, r, "availability retrieved", results)
}

func (h *Handler) GetEmployeeAvailability(w http.ResponseWriter, r *http.Request) {
	employee := r.Context().Value(EmployeeCtx).(*domain.Employee)

	q, status, err := h.parseAvailabilityQuery(r)
	if err != nil {
		h.respondAvailabilityQueryError(w, r, status, err)
		return
	}

	if !employee.IsActive {
		h.badRequest(w, r, errors.New("the employee is not active"))
		return
	}

	availability, err := h.availabilityFor(employee, q.Date, q.Duration)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "availability retrieved", availability)
}
