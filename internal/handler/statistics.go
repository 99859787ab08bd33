package handler

import (
	"net/http"
	"time"

	"github.com/sysu-ecnc-dev/nail-salon/backend/internal/repository"
	"github.com/sysu-ecnc-dev/nail-salon/backend/internal/statistics"
)

func (h *Handler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	appointments, err := h.repository.GetAppointments(repository.AppointmentFilter{})
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "statistics retrieved", statistics.Compute(appointments, time.Now()))
}
