package handlers

import (
	"net/http"
	"strings"
	"time"

	"MediCore/apperrors"
	"MediCore/middlewares"
	"MediCore/models"
	"MediCore/services"

	"github.com/gin-gonic/gin"
)

type AppointmentHandler struct {
	service services.AppointmentService
}

func NewAppointmentHandler(service services.AppointmentService) *AppointmentHandler {
	if service == nil {
		panic("handlers: NewAppointmentHandler requires an appointment service")
	}
	return &AppointmentHandler{service: service}
}

func (h *AppointmentHandler) CreateAppointment(c *gin.Context) {
	actor, err := actorFrom(c)
	if err != nil {
		middlewares.RespondError(c, err)
		return
	}
	var input services.CreateAppointmentInput
	if err := bindJSON(c, &input); err != nil {
		middlewares.RespondError(c, err)
		return
	}
	appointment, err := h.service.CreateAppointment(c.Request.Context(), actor, input)
	if err != nil {
		middlewares.RespondError(c, err)
		return
	}
	middlewares.RespondJSON(c, http.StatusCreated, appointment)
}

func (h *AppointmentHandler) GetAppointmentByID(c *gin.Context) {
	actor, err := actorFrom(c)
	if err != nil {
		middlewares.RespondError(c, err)
		return
	}
	appointment, err := h.service.GetByID(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		middlewares.RespondError(c, err)
		return
	}
	middlewares.RespondJSON(c, http.StatusOK, appointment)
}

// GetAllAppointments lists appointments visible to the caller. Query
// parameters: patientId, doctorId, status, from, to (RFC 3339).
func (h *AppointmentHandler) GetAllAppointments(c *gin.Context) {
	actor, err := actorFrom(c)
	if err != nil {
		middlewares.RespondError(c, err)
		return
	}
	page, err := pageFrom(c)
	if err != nil {
		middlewares.RespondError(c, err)
		return
	}
	filter, err := appointmentFilterFrom(c)
	if err != nil {
		middlewares.RespondError(c, err)
		return
	}
	appointments, err := h.service.List(c.Request.Context(), actor, filter, page)
	if err != nil {
		middlewares.RespondError(c, err)
		return
	}
	middlewares.RespondJSON(c, http.StatusOK, appointments)
}

func (h *AppointmentHandler) UpdateStatus(c *gin.Context) {
	actor, err := actorFrom(c)
	if err != nil {
		middlewares.RespondError(c, err)
		return
	}
	var input services.TransitionInput
	if err := bindJSON(c, &input); err != nil {
		middlewares.RespondError(c, err)
		return
	}
	appointment, err := h.service.TransitionStatus(c.Request.Context(), actor, c.Param("id"), input)
	if err != nil {
		middlewares.RespondError(c, err)
		return
	}
	middlewares.RespondJSON(c, http.StatusOK, appointment)
}

func appointmentFilterFrom(c *gin.Context) (models.AppointmentFilter, error) {
	filter := models.AppointmentFilter{
		PatientID: c.Query("patientId"),
		DoctorID:  c.Query("doctorId"),
		Status:    models.AppointmentStatus(strings.ToUpper(c.Query("status"))),
	}
	for param, dst := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
		raw := c.Query(param)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, apperrors.NewValidationError(param+" must be an RFC 3339 timestamp", err)
		}
		*dst = &t
	}
	return filter, nil
}
