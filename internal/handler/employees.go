package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sysu-ecnc-dev/nail-salon/backend/internal/domain"
	"github.com/sysu-ecnc-dev/nail-salon/backend/internal/repository"
	"github.com/sysu-ecnc-dev/nail-salon/backend/internal/scheduler"
	"github.com/sysu-ecnc-dev/nail-salon/backend/internal/utils"
)

const recentAppointmentLimit = 10

// checkServiceIDs 确认所有服务都存在，返回去重后的 id
func (h *Handler) checkServiceIDs(ids []int64) ([]int64, error) {
	ids = utils.UniqueIDs(ids)
	services, err := h.repository.GetServicesByIDs(ids)
	if err != nil {
		return nil, err
	}
	return ids, utils.CheckServicesExist(ids, services)
}

func (h *Handler) GetAllEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.repository.GetAllEmployees()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "employees retrieved", employees)
}

func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name         string          `json:"name" validate:"required,max=100"`
		Email        string          `json:"email" validate:"omitempty,email"`
		Phone        string          `json:"phone" validate:"max=32"`
		WorkingHours json.RawMessage `json:"workingHours"`
		IsActive     *bool           `json:"isActive"`
		ServiceIDs   []int64         `json:"serviceIds" validate:"dive,gt=0"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	workingHours, err := utils.ParseWorkingHoursInput(req.WorkingHours)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	serviceIDs, err := h.checkServiceIDs(req.ServiceIDs)
	if err != nil {
		switch {
		case errors.Is(err, scheduler.ErrUnknownService):
			h.badRequest(w, r, err)
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	employee := &domain.Employee{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		WorkingHours: workingHours,
		IsActive:     true,
	}
	if req.IsActive != nil {
		employee.IsActive = *req.IsActive
	}

	if err := h.repository.CreateEmployee(employee, serviceIDs); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	created, err := h.repository.GetEmployeeByID(employee.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.createdResponse(w, r, "employee created", created)
}

func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	employee := r.Context().Value(EmployeeCtx).(*domain.Employee)

	recent, err := h.repository.GetAppointments(repository.AppointmentFilter{
		EmployeeID: &employee.ID,
		Limit:      recentAppointmentLimit,
	})
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	employee.RecentAppointments = recent

	h.successResponse(w, r, "employee retrieved", employee)
}

func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	employee := r.Context().Value(EmployeeCtx).(*domain.Employee)

	var req struct {
		Name         *string         `json:"name" validate:"omitempty,min=1,max=100"`
		Email        *string         `json:"email" validate:"omitempty,email"`
		Phone        *string         `json:"phone" validate:"omitempty,max=32"`
		WorkingHours json.RawMessage `json:"workingHours"`
		IsActive     *bool           `json:"isActive"`
		ServiceIDs   *[]int64        `json:"serviceIds" validate:"omitempty,dive,gt=0"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if req.WorkingHours != nil {
		workingHours, err := utils.ParseWorkingHoursInput(req.WorkingHours)
		if err != nil {
			h.badRequest(w, r, err)
			return
		}
		employee.WorkingHours = workingHours
		employee.WorkingHoursErr = nil
	} else if employee.WorkingHoursErr != nil {
		// 不能把损坏的配置原样写回，必须提供新的工作时间
		h.badRequest(w, r, errors.New("the stored working hours are invalid, please provide new working hours"))
		return
	}

	if req.Name != nil {
		employee.Name = *req.Name
	}
	if req.Email != nil {
		employee.Email = *req.Email
	}
	if req.Phone != nil {
		employee.Phone = *req.Phone
	}
	if req.IsActive != nil {
		employee.IsActive = *req.IsActive
	}

	var serviceIDs []int64
	if req.ServiceIDs != nil {
		ids, err := h.checkServiceIDs(*req.ServiceIDs)
		if err != nil {
			switch {
			case errors.Is(err, scheduler.ErrUnknownService):
				h.badRequest(w, r, err)
			default:
				h.internalServerError(w, r, err)
			}
			return
		}
		serviceIDs = ids
	}

	if err := h.repository.UpdateEmployee(employee, serviceIDs); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.conflict(w, r, "the employee was modified concurrently, please retry")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	updated, err := h.repository.GetEmployeeByID(employee.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "employee updated", updated)
}

func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	employee := r.Context().Value(EmployeeCtx).(*domain.Employee)

	if err := h.repository.DeleteEmployee(employee.ID); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.notFound(w, r, "employee not found")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "employee deleted", nil)
}
