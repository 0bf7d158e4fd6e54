package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"MediCore/middlewares"
	"MediCore/services"

	"github.com/gin-gonic/gin"
)

type PrescriptionHandler struct {
	service services.PrescriptionService
}

func NewPrescriptionHandler(service services.PrescriptionService) *PrescriptionHandler {
	if service == nil {
		panic("handlers: NewPrescriptionHandler requires a prescription service")
	}
	return &PrescriptionHandler{service: service}
}

func (h *PrescriptionHandler) AttachPrescription(c *gin.Context) {
	actor, err := actorFrom(c)
	if err != nil {
		middlewares.RespondError(c, err)
		return
	}
	var input services.PrescriptionInput
	if err := bindJSON(c, &input); err != nil {
		middlewares.RespondError(c, err)
		return
	}
	prescription, err := h.service.AttachPrescription(c.Request.Context(), actor, c.Param("id"), input)
	if err != nil {
		middlewares.RespondError(c, err)
		return
	}
	middlewares.RespondJSON(c, http.StatusCreated, prescription)
}

func (h *PrescriptionHandler) GetByAppointment(c *gin.Context) {
	actor, err := actorFrom(c)
	if err != nil {
		middlewares.RespondError(c, err)
		return
	}
	prescription, err := h.service.GetByAppointment(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		middlewares.RespondError(c, err)
		return
	}
	middlewares.RespondJSON(c, http.StatusOK, prescription)
}

func (h *PrescriptionHandler) GetPrescriptionByID(c *gin.Context) {
	actor, err := actorFrom(c)
	if err != nil {
		middlewares.RespondError(c, err)
		return
	}
	prescription, err := h.service.GetByID(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		middlewares.RespondError(c, err)
		return
	}
	middlewares.RespondJSON(c, http.StatusOK, prescription)
}

func (h *PrescriptionHandler) ListByPatient(c *gin.Context) {
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
	prescriptions, err := h.service.ListByPatient(c.Request.Context(), actor, c.Param("id"), page)
	if err != nil {
		middlewares.RespondError(c, err)
		return
	}
	middlewares.RespondJSON(c, http.StatusOK, prescriptions)
}

// DownloadPDF renders into memory first so failures still get a JSON error.
func (h *PrescriptionHandler) DownloadPDF(c *gin.Context) {
	actor, err := actorFrom(c)
	if err != nil {
		middlewares.RespondError(c, err)
		return
	}
	id := c.Param("id")
	var buf bytes.Buffer
	if err := h.service.WritePDF(c.Request.Context(), actor, id, &buf); err != nil {
		middlewares.RespondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=prescription-%s.pdf", id))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
