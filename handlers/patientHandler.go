package handlers

import (
	"net/http"

	"MediCore/middlewares"
	"MediCore/services"

	"github.com/gin-gonic/gin"
)

type PatientHandler struct {
	service services.PatientService
}

func NewPatientHandler(service services.PatientService) *PatientHandler {
	if service == nil {
		panic("handlers: NewPatientHandler requires a patient service")
	}
	return &PatientHandler{service: service}
}

func (h *PatientHandler) CreatePatient(c *gin.Context) {
	var input services.PatientInput
	if err := bindJSON(c, &input); err != nil {
		middlewares.RespondError(c, err)
		return
	}
	patient, err := h.service.Create(c.Request.Context(), input)
	if err != nil {
		middlewares.RespondError(c, err)
		return
	}
	middlewares.RespondJSON(c, http.StatusCreated, patient)
}

func (h *PatientHandler) GetPatientByID(c *gin.Context) {
	actor, err := actorFrom(c)
	if err != nil {
		middlewares.RespondError(c, err)
		return
	}
	patient, err := h.service.GetByID(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		middlewares.RespondError(c, err)
		return
	}
	middlewares.RespondJSON(c, http.StatusOK, patient)
}

func (h *PatientHandler) GetAllPatients(c *gin.Context) {
	page, err := pageFrom(c)
	if err != nil {
		middlewares.RespondError(c, err)
		return
	}
	patients, err := h.service.List(c.Request.Context(), page)
	if err != nil {
		middlewares.RespondError(c, err)
		return
	}
	middlewares.RespondJSON(c, http.StatusOK, patients)
}

func (h *PatientHandler) UpdatePatient(c *gin.Context) {
	var input services.PatientInput
	if err := bindJSON(c, &input); err != nil {
		middlewares.RespondError(c, err)
		return
	}
	patient, err := h.service.Update(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		middlewares.RespondError(c, err)
		return
	}
	middlewares.RespondJSON(c, http.StatusOK, patient)
}

func (h *PatientHandler) DeletePatient(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		middlewares.RespondError(c, err)
		return
	}
	middlewares.RespondMessage(c, http.StatusOK, "patient deleted")
}
