package controllers

import (
	"MediCore/handlers"
	"MediCore/middlewares"
	"MediCore/models"

	"github.com/gin-gonic/gin"
)

// SetupAppointmentRoutes registers booking, lifecycle and prescription routes.
func SetupAppointmentRoutes(router gin.IRouter, tokenAuth gin.HandlerFunc, appointmentHandler *handlers.AppointmentHandler, prescriptionHandler *handlers.PrescriptionHandler) {
	prescribers := middlewares.RoleAuthMiddleware(models.RoleDoctor, models.RoleAdmin)

	appointments := router.Group("/appointments", tokenAuth)
	{
		appointments.POST("", appointmentHandler.CreateAppointment)
		appointments.GET("", appointmentHandler.GetAllAppointments)
		appointments.GET("/:id", appointmentHandler.GetAppointmentByID)
		appointments.POST("/:id/status", appointmentHandler.UpdateStatus)
		appointments.POST("/:id/prescription", prescribers, prescriptionHandler.AttachPrescription)
		appointments.GET("/:id/prescription", prescriptionHandler.GetByAppointment)
	}

	prescriptions := router.Group("/prescriptions", tokenAuth)
	{
		prescriptions.GET("/:id", prescriptionHandler.GetPrescriptionByID)
		prescriptions.GET("/:id/pdf", prescriptionHandler.DownloadPDF)
	}
}
