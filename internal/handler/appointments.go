package handler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/nail-salon/backend/internal/domain"
	"github.com/sysu-ecnc-dev/nail-salon/backend/internal/lock"
	"github.com/sysu-ecnc-dev/nail-salon/backend/internal/repository"
	"github.com/sysu-ecnc-dev/nail-salon/backend/internal/scheduler"
	"github.com/sysu-ecnc-dev/nail-salon/backend/internal/utils"
)

var (
	errInactiveService  = errors.New("service is not available")
	errInactiveEmployee = errors.New("the employee is not active")
	errServiceNotOffer  = errors.New("the employee does not offer this service")
)

const statusValidation = "oneof=SCHEDULED COMPLETED CANCELLED NO_SHOW"

func parseDateAndTime(date, clock string) (domain.Day, domain.Clock, error) {
	day, err := domain.ParseDay(date)
	if err != nil {
		return domain.Day{}, 0, errors.New("date must be in YYYY-MM-DD format")
	}
	start, err := domain.ParseClock(clock)
	if err != nil {
		return domain.Day{}, 0, errors.New("time must be in HH:MM format")
	}
	return day, start, nil
}

// resolveServices 按请求顺序展开服务并计算总时长与总价，重复的服务会重复计算
func (h *Handler) resolveServices(ids []int64) ([]domain.AppointmentService, int32, float64, error) {
	services, err := h.repository.GetServicesByIDs(utils.UniqueIDs(ids))
	if err != nil {
		return nil, 0, 0, err
	}

	duration, price, err := scheduler.Totals(ids, services)
	if err != nil {
		return nil, 0, 0, err
	}

	result := make([]domain.AppointmentService, 0, len(ids))
	for _, id := range ids {
		s := services[id]
		if !s.IsActive {
			return nil, 0, 0, fmt.Errorf("%w: %s", errInactiveService, s.Name)
		}
		result = append(result, domain.AppointmentService{
			ServiceID: s.ID,
			Name:      s.Name,
			Duration:  s.Duration,
			Price:     s.Price,
		})
	}

	return result, duration, price, nil
}

// offersServices 检查员工是否提供所有预约的服务，没有关联任何服务的员工视为提供全部服务
func offersServices(employee *domain.Employee, services []domain.AppointmentService) error {
	if len(employee.Services) == 0 {
		return nil
	}
	for _, s := range services {
		if !employee.ProvidesService(s.ServiceID) {
			return fmt.Errorf("%w: %s", errServiceNotOffer, s.Name)
		}
	}
	return nil
}

// book 在员工锁内完成“检查冲突 + 写入”，避免两个请求同时通过检查
func (h *Handler) book(ctx context.Context, employee *domain.Employee, a *domain.Appointment, persist func() error) error {
	if !employee.IsActive {
		return errInactiveEmployee
	}

	release, err := h.locker.AcquireEmployee(ctx, employee.ID)
	if err != nil {
		return err
	}
	defer release()

	existing, err := h.repository.GetEmployeeAppointmentsOnDate(employee.ID, a.Date)
	if err != nil {
		return err
	}

	if err := scheduler.ValidateBooking(scheduler.Booking{
		WorkingHours:         employee.WorkingHours,
		WorkingHoursErr:      employee.WorkingHoursErr,
		Date:                 a.Date.Time,
		Start:                a.StartTime,
		Duration:             int(a.TotalDuration),
		Existing:             existing,
		ExcludeAppointmentID: a.ID,
	}); err != nil {
		return err
	}

	return persist()
}

// respondBookingError 把预约过程中的错误转换为响应，并记录预约结果
func (h *Handler) respondBookingError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	var pgErr *pgconn.PgError
	isConstraint := func(name string) bool {
		return errors.As(err, &pgErr) && pgErr.ConstraintName == name
	}

	outcome := "rejected"
	switch {
	case errors.Is(err, lock.ErrLockNotAcquired):
		outcome = "locked"
		h.conflict(w, r, err.Error())
	case errors.Is(err, scheduler.ErrInvalidConfiguration):
		outcome = "invalid_configuration"
		h.badRequest(w, r, errors.New("the employee's working hours configuration is invalid"))
	case errors.Is(err, scheduler.ErrNotWorkingThisDay):
		outcome = "not_working"
		h.badRequest(w, r, scheduler.ErrNotWorkingThisDay)
	case errors.Is(err, scheduler.ErrOutsideWorkingHours):
		outcome = "outside_hours"
		h.badRequest(w, r, scheduler.ErrOutsideWorkingHours)
	case errors.Is(err, scheduler.ErrTimeConflict), isConstraint("appointments_employee_slot_key"):
		outcome = "time_conflict"
		h.conflict(w, r, scheduler.ErrTimeConflict.Error())
	case isConstraint("appointments_customer_id_fkey"):
		h.badRequest(w, r, errors.New("customer does not exist"))
	case isConstraint("appointment_services_service_id_fkey"):
		h.badRequest(w, r, scheduler.ErrUnknownService)
	case errors.Is(err, scheduler.ErrUnknownService),
		errors.Is(err, scheduler.ErrInvalidDuration),
		errors.Is(err, errInactiveService),
		errors.Is(err, errInactiveEmployee),
		errors.Is(err, errServiceNotOffer):
		h.badRequest(w, r, err)
	case errors.Is(err, sql.ErrNoRows):
		outcome = "stale"
		h.conflict(w, r, "the appointment was modified concurrently, please retry")
	default:
		outcome = "error"
		h.internalServerError(w, r, err)
	}

	h.metrics.ObserveBooking(operation, outcome)
}

// notifyAppointment 在预约已经保存之后发送邮件，失败只记录日志
func (h *Handler) notifyAppointment(r *http.Request, mailType string, to string, a *domain.Appointment) {
	if to == "" {
		return
	}

	data := domain.AppointmentMailData{
		CustomerName:  a.CustomerName,
		Date:          a.Date.String(),
		Time:          a.StartTime.String(),
		Services:      make([]string, 0, len(a.Services)),
		TotalDuration: a.TotalDuration,
		TotalPrice:    a.TotalPrice,
	}
	if a.EmployeeName != nil {
		data.EmployeeName = *a.EmployeeName
	}
	for _, s := range a.Services {
		data.Services = append(data.Services, s.Name)
	}

	if err := h.publishMail(domain.MailMessage{Type: mailType, To: to, Data: data}); err != nil {
		slog.Error("预约邮件放入队列失败", "requestID", requestIDFrom(r), "appointmentID", a.ID, "type", mailType, "error", err)
	}
}

func (h *Handler) loadCustomer(w http.ResponseWriter, r *http.Request, id int64) (*domain.Customer, bool) {
	customer, err := h.repository.GetCustomerByID(id)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.notFound(w, r, "customer not found")
		default:
			h.internalServerError(w, r, err)
		}
		return nil, false
	}
	return customer, true
}

func (h *Handler) loadEmployee(w http.ResponseWriter, r *http.Request, id int64) (*domain.Employee, bool) {
	employee, err := h.repository.GetEmployeeByID(id)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.notFound(w, r, "employee not found")
		default:
			h.internalServerError(w, r, err)
		}
		return nil, false
	}
	return employee, true
}

func (h *Handler) GetAppointments(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	filter := repository.AppointmentFilter{}

	if s := params.Get("date"); s != "" {
		day, err := domain.ParseDay(s)
		if err != nil {
			h.badRequest(w, r, errors.New("date must be in YYYY-MM-DD format"))
			return
		}
		filter.Date = &day
	}
	for name, dst := range map[string]**int64{"employeeId": &filter.EmployeeID, "customerId": &filter.CustomerID} {
		if s := params.Get(name); s != "" {
			id, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				h.badRequest(w, r, fmt.Errorf("invalid %s", name))
				return
			}
			*dst = &id
		}
	}
	if s := params.Get("status"); s != "" {
		if err := h.validate.Var(s, statusValidation); err != nil {
			h.badRequest(w, r, errors.New("invalid status"))
			return
		}
		status := domain.AppointmentStatus(s)
		filter.Status = &status
	}

	appointments, err := h.repository.GetAppointments(filter)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "appointments retrieved", appointments)
}

func (h *Handler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	appointment := r.Context().Value(AppointmentCtx).(*domain.Appointment)
	h.successResponse(w, r, "appointment retrieved", appointment)
}

func (h *Handler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CustomerID int64   `json:"customerId" validate:"required,gt=0"`
		EmployeeID *int64  `json:"employeeId" validate:"omitempty,gt=0"`
		Date       string  `json:"date" validate:"required"`
		Time       string  `json:"time" validate:"required"`
		ServiceIDs []int64 `json:"serviceIds" validate:"required,min=1,dive,gt=0"`
		Notes      string  `json:"notes" validate:"max=1000"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	date, start, err := parseDateAndTime(req.Date, req.Time)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	customer, ok := h.loadCustomer(w, r, req.CustomerID)
	if !ok {
		return
	}

	services, duration, price, err := h.resolveServices(req.ServiceIDs)
	if err != nil {
		h.respondBookingError(w, r, "create", err)
		return
	}

	appointment := &domain.Appointment{
		CustomerID:    customer.ID,
		CustomerName:  customer.Name,
		EmployeeID:    req.EmployeeID,
		Date:          date,
		StartTime:     start,
		TotalDuration: duration,
		TotalPrice:    price,
		Status:        domain.StatusScheduled,
		Notes:         req.Notes,
		Services:      services,
	}

	persist := func() error { return h.repository.CreateAppointment(appointment) }
	if req.EmployeeID != nil {
		employee, ok := h.loadEmployee(w, r, *req.EmployeeID)
		if !ok {
			return
		}
		appointment.EmployeeName = &employee.Name
		if err = offersServices(employee, services); err == nil {
			err = h.book(r.Context(), employee, appointment, persist)
		}
	} else {
		err = persist()
	}
	if err != nil {
		h.respondBookingError(w, r, "create", err)
		return
	}

	h.metrics.ObserveBooking("create", "accepted")
	h.notifyAppointment(r, domain.MailTypeAppointmentConfirmation, customer.Email, appointment)

	h.createdResponse(w, r, "appointment created", appointment)
}

// ReplaceAppointment 修改预约的全部内容，服务会被整体替换
func (h *Handler) ReplaceAppointment(w http.ResponseWriter, r *http.Request) {
	appointment := r.Context().Value(AppointmentCtx).(*domain.Appointment)
	previousStatus := appointment.Status

	var req struct {
		CustomerID int64   `json:"customerId" validate:"required,gt=0"`
		EmployeeID *int64  `json:"employeeId" validate:"omitempty,gt=0"`
		Date       string  `json:"date" validate:"required"`
		Time       string  `json:"time" validate:"required"`
		ServiceIDs []int64 `json:"serviceIds" validate:"required,min=1,dive,gt=0"`
		Status     string  `json:"status" validate:"required,oneof=SCHEDULED COMPLETED CANCELLED NO_SHOW"`
		Notes      string  `json:"notes" validate:"max=1000"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	date, start, err := parseDateAndTime(req.Date, req.Time)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	customer, ok := h.loadCustomer(w, r, req.CustomerID)
	if !ok {
		return
	}

	services, duration, price, err := h.resolveServices(req.ServiceIDs)
	if err != nil {
		h.respondBookingError(w, r, "update", err)
		return
	}

	appointment.CustomerID = customer.ID
	appointment.CustomerName = customer.Name
	appointment.EmployeeID = req.EmployeeID
	appointment.EmployeeName = nil
	appointment.Date = date
	appointment.StartTime = start
	appointment.TotalDuration = duration
	appointment.TotalPrice = price
	appointment.Status = domain.AppointmentStatus(req.Status)
	appointment.Notes = req.Notes
	appointment.Services = services

	persist := func() error { return h.repository.UpdateAppointment(appointment, true) }
	if req.EmployeeID != nil {
		employee, ok := h.loadEmployee(w, r, *req.EmployeeID)
		if !ok {
			return
		}
		appointment.EmployeeName = &employee.Name
		if appointment.Status != domain.StatusCancelled {
			if err = offersServices(employee, services); err == nil {
				err = h.book(r.Context(), employee, appointment, persist)
			}
		} else {
			err = persist()
		}
	} else {
		err = persist()
	}
	if err != nil {
		h.respondBookingError(w, r, "update", err)
		return
	}

	h.metrics.ObserveBooking("update", "accepted")
	if previousStatus != domain.StatusCancelled && appointment.Status == domain.StatusCancelled {
		h.notifyAppointment(r, domain.MailTypeAppointmentCancelled, customer.Email, appointment)
	}

	h.successResponse(w, r, "appointment updated", appointment)
}

// UpdateAppointment 只修改日期、时间、状态与备注
func (h *Handler) UpdateAppointment(w http.ResponseWriter, r *http.Request) {
	appointment := r.Context().Value(AppointmentCtx).(*domain.Appointment)
	previousStatus := appointment.Status

	var req struct {
		Date   *string `json:"date"`
		Time   *string `json:"time"`
		Status *string `json:"status" validate:"omitempty,oneof=SCHEDULED COMPLETED CANCELLED NO_SHOW"`
		Notes  *string `json:"notes" validate:"omitempty,max=1000"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 只有时间发生变化或者重新启用已取消的预约时才需要重新检查冲突
	rescheduled := false
	if req.Date != nil {
		day, err := domain.ParseDay(*req.Date)
		if err != nil {
			h.badRequest(w, r, errors.New("date must be in YYYY-MM-DD format"))
			return
		}
		rescheduled = rescheduled || !day.Equal(appointment.Date.Time)
		appointment.Date = day
	}
	if req.Time != nil {
		start, err := domain.ParseClock(*req.Time)
		if err != nil {
			h.badRequest(w, r, errors.New("time must be in HH:MM format"))
			return
		}
		rescheduled = rescheduled || start != appointment.StartTime
		appointment.StartTime = start
	}
	if req.Status != nil {
		appointment.Status = domain.AppointmentStatus(*req.Status)
		rescheduled = rescheduled || (previousStatus == domain.StatusCancelled && appointment.Status != domain.StatusCancelled)
	}
	if req.Notes != nil {
		appointment.Notes = *req.Notes
	}

	var err error
	persist := func() error { return h.repository.UpdateAppointment(appointment, false) }
	if appointment.EmployeeID != nil && appointment.Status != domain.StatusCancelled && rescheduled {
		employee, ok := h.loadEmployee(w, r, *appointment.EmployeeID)
		if !ok {
			return
		}
		err = h.book(r.Context(), employee, appointment, persist)
	} else {
		err = persist()
	}
	if err != nil {
		h.respondBookingError(w, r, "update", err)
		return
	}

	h.metrics.ObserveBooking("update", "accepted")
	if previousStatus != domain.StatusCancelled && appointment.Status == domain.StatusCancelled {
		customer, err := h.repository.GetCustomerByID(appointment.CustomerID)
		if err != nil {
			slog.Error("无法获取顾客信息，取消邮件未发送", "requestID", requestIDFrom(r), "appointmentID", appointment.ID, "error", err)
		} else {
			h.notifyAppointment(r, domain.MailTypeAppointmentCancelled, customer.Email, appointment)
		}
	}

	h.successResponse(w, r, "appointment updated", appointment)
}

func (h *Handler) DeleteAppointment(w http.ResponseWriter, r *http.Request) {
	appointment := r.Context().Value(AppointmentCtx).(*domain.Appointment)

	if err := h.repository.DeleteAppointment(appointment.ID); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.notFound(w, r, "appointment not found")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "appointment deleted", nil)
}
