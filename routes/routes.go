package routes

import (
	"net/http"
	"time"

	"MediCore/cache"
	"MediCore/config"
	"MediCore/controllers"
	"MediCore/database"
	"MediCore/handlers"
	"MediCore/middlewares"
	"MediCore/repositories"
	"MediCore/services"
	"MediCore/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Dependencies are the infrastructure clients the API is built from.
type Dependencies struct {
	DB           *gorm.DB
	Cache        cache.Store
	Locker       database.Locker
	Mailer       utils.Mailer
	Tokens       *utils.TokenManager
	Location     *time.Location
	HealthChecks map[string]controllers.HealthCheck
}

// Services groups the application services behind the HTTP handlers.
type Services struct {
	Auth          services.AuthService
	Patients      services.PatientService
	Doctors       services.DoctorService
	Appointments  services.AppointmentService
	Prescriptions services.PrescriptionService
}

// BuildServices wires repositories and services over deps.
func BuildServices(deps Dependencies) Services {
	userRepo := repositories.NewUserRepository(deps.DB, deps.Cache)
	patientRepo := repositories.NewPatientRepository(deps.DB, deps.Cache)
	doctorRepo := repositories.NewDoctorRepository(deps.DB, deps.Cache)
	appointmentRepo := repositories.NewAppointmentRepository(deps.DB, deps.Cache)
	prescriptionRepo := repositories.NewPrescriptionRepository(deps.DB)

	return Services{
		Auth:          services.NewAuthService(userRepo, deps.Tokens, utils.NewResetCodeStore(deps.Cache), deps.Mailer),
		Patients:      services.NewPatientService(patientRepo, doctorRepo, userRepo),
		Doctors:       services.NewDoctorService(doctorRepo, appointmentRepo, userRepo, deps.Location),
		Appointments:  services.NewAppointmentService(appointmentRepo, patientRepo, doctorRepo, deps.Locker, deps.Mailer, deps.Location),
		Prescriptions: services.NewPrescriptionService(prescriptionRepo, appointmentRepo, patientRepo, doctorRepo),
	}
}

// SetupRoutes initializes the routes and middleware for the server
func SetupRoutes(cfg *config.AppConfig, deps Dependencies) http.Handler {
	return NewRouter(cfg, deps.Tokens, BuildServices(deps), deps.HealthChecks)
}

// NewRouter builds the gin engine around already constructed services.
func NewRouter(cfg *config.AppConfig, tokens *utils.TokenManager, svcs Services, checks map[string]controllers.HealthCheck) *gin.Engine {
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middlewares.LoggingMiddleware())
	router.Use(gin.Recovery())
	router.Use(middlewares.CorsMiddleware(middlewares.DefaultCorsConfig(cfg.CorsOrigins)))
	router.Use(middlewares.NewRateLimiterMiddleware(middlewares.RateLimiterConfig{
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		Burst:             cfg.RateLimit.Burst,
	}))

	controllers.SetupRootRoute(router, checks)

	// Everything else sits behind the API key.
	api := router.Group("", middlewares.ValidateBearerToken(cfg.GetBearerToken()))
	tokenAuth := middlewares.TokenAuthMiddleware(tokens)

	authHandler := handlers.NewAuthHandler(svcs.Auth)
	patientHandler := handlers.NewPatientHandler(svcs.Patients)
	doctorHandler := handlers.NewDoctorHandler(svcs.Doctors)
	appointmentHandler := handlers.NewAppointmentHandler(svcs.Appointments)
	prescriptionHandler := handlers.NewPrescriptionHandler(svcs.Prescriptions)

	controllers.NewAuthController(authHandler, tokenAuth).RegisterRoutes(api)
	controllers.SetupPatientRoutes(api, tokenAuth, patientHandler, doctorHandler, prescriptionHandler)
	controllers.SetupAppointmentRoutes(api, tokenAuth, appointmentHandler, prescriptionHandler)

	router.NoRoute(func(c *gin.Context) {
		middlewares.AbortWithError(c, http.StatusNotFound, "route not found")
	})

	return router
}
