package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/nail-salon/backend/internal/domain"
)

func (h *Handler) GetActiveServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.repository.GetActiveServices()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "services retrieved", services)
}

func (h *Handler) GetAllServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.repository.GetAllServices()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "services retrieved", services)
}

func (h *Handler) CreateService(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string  `json:"name" validate:"required,max=100"`
		Description string  `json:"description" validate:"max=1000"`
		Duration    int32   `json:"duration" validate:"required,gt=0,lte=720"`
		Price       float64 `json:"price" validate:"gte=0"`
		IsActive    *bool   `json:"isActive"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	service := &domain.Service{
		Name:        req.Name,
		Description: req.Description,
		Duration:    req.Duration,
		Price:       req.Price,
		IsActive:    true,
	}
	if req.IsActive != nil {
		service.IsActive = *req.IsActive
	}

	if err := h.repository.CreateService(service); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.createdResponse(w, r, "service created", service)
}

func (h *Handler) UpdateService(w http.ResponseWriter, r *http.Request) {
	service := r.Context().Value(ServiceCtx).(*domain.Service)

	var req struct {
		Name        *string  `json:"name" validate:"omitempty,min=1,max=100"`
		Description *string  `json:"description" validate:"omitempty,max=1000"`
		Duration    *int32   `json:"duration" validate:"omitempty,gt=0,lte=720"`
		Price       *float64 `json:"price" validate:"omitempty,gte=0"`
		IsActive    *bool    `json:"isActive"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if req.Name != nil {
		service.Name = *req.Name
	}
	if req.Description != nil {
		service.Description = *req.Description
	}
	if req.Duration != nil {
		service.Duration = *req.Duration
	}
	if req.Price != nil {
		service.Price = *req.Price
	}
	if req.IsActive != nil {
		service.IsActive = *req.IsActive
	}

	if err := h.repository.UpdateService(service); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.conflict(w, r, "the service was modified concurrently, please retry")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "service updated", service)
}

func (h *Handler) DeleteService(w http.ResponseWriter, r *http.Request) {
	service := r.Context().Value(ServiceCtx).(*domain.Service)

	if err := h.repository.DeleteService(service.ID); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "appointment_services_service_id_fkey":
			h.conflict(w, r, "the service is used by existing appointments, deactivate it instead")
		case errors.Is(err, sql.ErrNoRows):
			h.notFound(w, r, "service not found")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "service deleted", nil)
}
