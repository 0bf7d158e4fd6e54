package controllers

import (
	"MediCore/handlers"
	"MediCore/middlewares"
	"MediCore/models"

	"github.com/gin-gonic/gin"
)

// SetupPatientRoutes registers patient and doctor records. Every route needs
// a valid access token; record level ownership is enforced by the services.
func SetupPatientRoutes(router gin.IRouter, tokenAuth gin.HandlerFunc, patientHandler *handlers.PatientHandler, doctorHandler *handlers.DoctorHandler, prescriptionHandler *handlers.PrescriptionHandler) {
	staff := middlewares.RoleAuthMiddleware(models.RoleAdmin, models.RoleNurse)
	clinicians := middlewares.RoleAuthMiddleware(models.RoleAdmin, models.RoleNurse, models.RoleDoctor)
	admin := middlewares.RoleAuthMiddleware(models.RoleAdmin)

	patients := router.Group("/patients", tokenAuth)
	{
		patients.POST("", staff, patientHandler.CreatePatient)
		patients.GET("", clinicians, patientHandler.GetAllPatients)
		patients.GET("/:id", patientHandler.GetPatientByID)
		patients.PUT("/:id", staff, patientHandler.UpdatePatient)
		patients.DELETE("/:id", staff, patientHandler.DeletePatient)
		patients.GET("/:id/prescriptions", prescriptionHandler.ListByPatient)
	}

	doctors := router.Group("/doctors", tokenAuth)
	{
		doctors.POST("", admin, doctorHandler.CreateDoctor)
		doctors.GET("", doctorHandler.GetAllDoctors)
		doctors.GET("/:id", doctorHandler.GetDoctorByID)
		doctors.GET("/:id/availability", doctorHandler.GetAvailability)
		doctors.PUT("/:id", admin, doctorHandler.UpdateDoctor)
		doctors.DELETE("/:id", admin, doctorHandler.DeleteDoctor)
	}
}
