package handlers

import (
	"net/http"
	"strconv"

	"MediCore/apperrors"
	"MediCore/middlewares"
	"MediCore/services"

	"github.com/gin-gonic/gin"
)

type DoctorHandler struct {
	service services.DoctorService
}

func NewDoctorHandler(service services.DoctorService) *DoctorHandler {
	if service == nil {
		panic("handlers: NewDoctorHandler requires a doctor service")
	}
	return &DoctorHandler{service: service}
}

func (h *DoctorHandler) CreateDoctor(c *gin.Context) {
	var input services.DoctorInput
	if err := bindJSON(c, &input); err != nil {
		middlewares.RespondError(c, err)
		return
	}
	doctor, err := h.service.Create(c.Request.Context(), input)
	if err != nil {
		middlewares.RespondError(c, err)
		return
	}
	middlewares.RespondJSON(c, http.StatusCreated, doctor)
}

func (h *DoctorHandler) GetDoctorByID(c *gin.Context) {
	doctor, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		middlewares.RespondError(c, err)
		return
	}
	middlewares.RespondJSON(c, http.StatusOK, doctor)
}

// GetAllDoctors lists doctors, optionally narrowed by ?specialization=.
func (h *DoctorHandler) GetAllDoctors(c *gin.Context) {
	page, err := pageFrom(c)
	if err != nil {
		middlewares.RespondError(c, err)
		return
	}
	doctors, err := h.service.List(c.Request.Context(), c.Query("specialization"), page)
	if err != nil {
		middlewares.RespondError(c, err)
		return
	}
	middlewares.RespondJSON(c, http.StatusOK, doctors)
}

func (h *DoctorHandler) UpdateDoctor(c *gin.Context) {
	var input services.DoctorInput
	if err := bindJSON(c, &input); err != nil {
		middlewares.RespondError(c, err)
		return
	}
	doctor, err := h.service.Update(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		middlewares.RespondError(c, err)
		return
	}
	middlewares.RespondJSON(c, http.StatusOK, doctor)
}

func (h *DoctorHandler) DeleteDoctor(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		middlewares.RespondError(c, err)
		return
	}
	middlewares.RespondMessage(c, http.StatusOK, "doctor deleted")
}

// GetAvailability answers ?date=YYYY-MM-DD&duration=minutes.
func (h *DoctorHandler) GetAvailability(c *gin.Context) {
	duration := services.DefaultAppointmentMinutes
	if raw := c.Query("duration"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			middlewares.RespondError(c, apperrors.NewValidationError("duration must be a whole number of minutes", err))
			return
		}
		duration = n
	}
	slots, err := h.service.Availability(c.Request.Context(), c.Param("id"), c.Query("date"), duration)
	if err != nil {
		middlewares.RespondError(c, err)
		return
	}
	if slots == nil {
		slots = []services.AvailableSlot{}
	}
	middlewares.RespondJSON(c, http.StatusOK, slots)
}
