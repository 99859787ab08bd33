package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/nail-salon/backend/internal/domain"
	"github.com/sysu-ecnc-dev/nail-salon/backend/internal/repository"
)

type customerRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Phone       string `json:"phone" validate:"required,max=32"`
	Email       string `json:"email" validate:"omitempty,email"`
	Notes       string `json:"notes" validate:"max=1000"`
	Preferences string `json:"preferences" validate:"max=1000"`
}

func (req *customerRequest) apply(c *domain.Customer) {
	c.Name = strings.TrimSpace(req.Name)
	c.Phone = strings.TrimSpace(req.Phone)
	c.Email = req.Email
	c.Notes = req.Notes
	c.Preferences = req.Preferences
}

func (h *Handler) GetAllCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.repository.GetAllCustomers()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "customers retrieved", customers)
}

func (h *Handler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerRequest

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	customer := &domain.Customer{}
	req.apply(customer)

	if err := h.repository.CreateCustomer(customer); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "customers_phone_key":
			h.conflict(w, r, "a customer with this phone number already exists")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.createdResponse(w, r, "customer created", customer)
}

func (h *Handler) SearchCustomer(w http.ResponseWriter, r *http.Request) {
	phone := strings.TrimSpace(r.URL.Query().Get("phone"))
	if phone == "" {
		h.badRequest(w, r, errors.New("phone number is required"))
		return
	}

	customer, err := h.repository.GetCustomerByPhone(phone)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.notFound(w, r, "customer not found")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	if err := h.attachCustomerAppointments(customer); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "customer found", customer)
}

func (h *Handler) attachCustomerAppointments(c *domain.Customer) error {
	appointments, err := h.repository.GetAppointments(repository.AppointmentFilter{CustomerID: &c.ID})
	if err != nil {
		return err
	}
	c.Appointments = appointments
	return nil
}

func (h *Handler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	customer := r.Context().Value(CustomerCtx).(*domain.Customer)

	if err := h.attachCustomerAppointments(customer); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "customer retrieved", customer)
}

func (h *Handler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	customer := r.Context().Value(CustomerCtx).(*domain.Customer)

	var req customerRequest

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	req.apply(customer)

	if err := h.repository.UpdateCustomer(customer); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "customers_phone_key":
			h.conflict(w, r, "another customer with this phone number already exists")
		case errors.Is(err, sql.ErrNoRows):
			h.conflict(w, r, "the customer was modified concurrently, please retry")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "customer updated", customer)
}

func (h *Handler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	customer := r.Context().Value(CustomerCtx).(*domain.Customer)

	if customer.AppointmentCount > 0 {
		h.conflict(w, r, "cannot delete a customer with existing appointments")
		return
	}

	if err := h.repository.DeleteCustomer(customer.ID); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "appointments_customer_id_fkey":
			h.conflict(w, r, "cannot delete a customer with existing appointments")
		case errors.Is(err, sql.ErrNoRows):
			h.notFound(w, r, "customer not found")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "customer deleted", nil)
}
