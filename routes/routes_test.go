package routes_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"MediCore/config"
	"MediCore/controllers"
	"MediCore/models"
	"MediCore/routes"
	"MediCore/services"
	"MediCore/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	apiKey  = "test-api-key"
	testKey = "0123456789abcdef0123456789abcdef"
)

// The embedded interfaces panic if a route reaches an unexpected method.
type stubAuth struct{ services.AuthService }

type stubPatients struct{ services.PatientService }

type stubDoctors struct{ services.DoctorService }

func (stubDoctors) List(_ context.Context, _ string, page models.PageRequest) (models.PaginatedResponse[models.Doctor], error) {
	return models.NewPaginatedResponse([]models.Doctor{{ID: "doc-1"}}, 1, page), nil
}

type stubAppointments struct{ services.AppointmentService }

type stubPrescriptions struct{ services.PrescriptionService }

func newTestRouter(t *testing.T, checks map[string]controllers.HealthCheck) (http.Handler, *utils.TokenManager) {
	t.Helper()
	tokens, err := utils.NewTokenManager(testKey)
	require.NoError(t, err)

	cfg := &config.AppConfig{
		Env:         "test",
		BearerToken: apiKey,
		CorsOrigins: []string{"http://localhost:3000"},
		RateLimit:   config.RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000},
	}
	svcs := routes.Services{
		Auth:          stubAuth{},
		Patients:      stubPatients{},
		Doctors:       stubDoctors{},
		Appointments:  stubAppointments{},
		Prescriptions: stubPrescriptions{},
	}
	return routes.NewRouter(cfg, tokens, svcs, checks), tokens
}

func request(t *testing.T, r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)
	if token != "" {
		req.Header.Set("X-Access-Token", token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func tokenFor(t *testing.T, tokens *utils.TokenManager, role models.RoleName) string {
	t.Helper()
	token, err := tokens.GenerateAccessToken("user-"+string(role), string(role))
	require.NoError(t, err)
	return token
}

func TestRouter_Gating(t *testing.T) {
	r, tokens := newTestRouter(t, nil)

	t.Run("api key required", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/doctors", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("access token required", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, request(t, r, http.MethodGet, "/doctors", "").Code)
		assert.Equal(t, http.StatusUnauthorized, request(t, r, http.MethodGet, "/appointments", "").Code)
		assert.Equal(t, http.StatusUnauthorized, request(t, r, http.MethodGet, "/auth/user/profile", "").Code)
	})

	t.Run("any role reads doctors", func(t *testing.T) {
		w := request(t, r, http.MethodGet, "/doctors", tokenFor(t, tokens, models.RolePatient))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"doc-1"`)
	})

	t.Run("role guards", func(t *testing.T) {
		patient := tokenFor(t, tokens, models.RolePatient)
		nurse := tokenFor(t, tokens, models.RoleNurse)
		doctor := tokenFor(t, tokens, models.RoleDoctor)

		assert.Equal(t, http.StatusForbidden, request(t, r, http.MethodPost, "/doctors", nurse).Code)
		assert.Equal(t, http.StatusForbidden, request(t, r, http.MethodDelete, "/doctors/doc-1", doctor).Code)
		assert.Equal(t, http.StatusForbidden, request(t, r, http.MethodGet, "/patients", patient).Code)
		assert.Equal(t, http.StatusForbidden, request(t, r, http.MethodPost, "/patients", doctor).Code)
		assert.Equal(t, http.StatusForbidden, request(t, r, http.MethodPost, "/appointments/apt-1/prescription", nurse).Code)
		assert.Equal(t, http.StatusForbidden, request(t, r, http.MethodGet, "/auth/admin/users", doctor).Code)
	})

	t.Run("unknown route", func(t *testing.T) {
		w := request(t, r, http.MethodGet, "/nowhere", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestRouter_Health(t *testing.T) {
	r, _ := newTestRouter(t, map[string]controllers.HealthCheck{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("connection refused") },
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"redis":"down"`)
	assert.Contains(t, w.Body.String(), `"postgres":"up"`)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
