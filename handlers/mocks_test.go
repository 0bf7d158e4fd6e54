package handlers_test

import (
	"context"
	"io"

	"MediCore/models"
	"MediCore/services"

	"github.com/stretchr/testify/mock"
)

type MockAuthService struct{ mock.Mock }

func (m *MockAuthService) Register(ctx context.Context, input services.RegisterInput) (*models.User, error) {
	args := m.Called(ctx, input)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *MockAuthService) CreateUser(ctx context.Context, input services.RegisterInput) (*models.User, error) {
	args := m.Called(ctx, input)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*services.AuthResult, error) {
	args := m.Called(ctx, email, password)
	result, _ := args.Get(0).(*services.AuthResult)
	return result, args.Error(1)
}

func (m *MockAuthService) RefreshToken(ctx context.Context, refreshToken string) (*services.AuthResult, error) {
	args := m.Called(ctx, refreshToken)
	result, _ := args.Get(0).(*services.AuthResult)
	return result, args.Error(1)
}

func (m *MockAuthService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(ctx, userID)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *MockAuthService) UpdateProfile(ctx context.Context, userID string, input services.UpdateProfileInput) (*models.User, error) {
	args := m.Called(ctx, userID, input)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *MockAuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	return m.Called(ctx, userID, currentPassword, newPassword).Error(0)
}

func (m *MockAuthService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	args := m.Called(ctx, email)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) ConfirmPasswordReset(ctx context.Context, email, code, newPassword string) error {
	return m.Called(ctx, email, code, newPassword).Error(0)
}

func (m *MockAuthService) ListUsers(ctx context.Context, page models.PageRequest) (models.PaginatedResponse[models.User], error) {
	args := m.Called(ctx, page)
	return args.Get(0).(models.PaginatedResponse[models.User]), args.Error(1)
}

func (m *MockAuthService) GetUserPermissions(ctx context.Context, userID string) ([]models.Permission, error) {
	args := m.Called(ctx, userID)
	permissions, _ := args.Get(0).([]models.Permission)
	return permissions, args.Error(1)
}

type MockPatientService struct{ mock.Mock }

func (m *MockPatientService) Create(ctx context.Context, input services.PatientInput) (*models.Patient, error) {
	args := m.Called(ctx, input)
	patient, _ := args.Get(0).(*models.Patient)
	return patient, args.Error(1)
}

func (m *MockPatientService) GetByID(ctx context.Context, actor services.Actor, id string) (*models.Patient, error) {
	args := m.Called(ctx, actor, id)
	patient, _ := args.Get(0).(*models.Patient)
	return patient, args.Error(1)
}

func (m *MockPatientService) List(ctx context.Context, page models.PageRequest) (models.PaginatedResponse[models.Patient], error) {
	args := m.Called(ctx, page)
	return args.Get(0).(models.PaginatedResponse[models.Patient]), args.Error(1)
}

func (m *MockPatientService) Update(ctx context.Context, id string, input services.PatientInput) (*models.Patient, error) {
	args := m.Called(ctx, id, input)
	patient, _ := args.Get(0).(*models.Patient)
	return patient, args.Error(1)
}

func (m *MockPatientService) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type MockDoctorService struct{ mock.Mock }

func (m *MockDoctorService) Create(ctx context.Context, input services.DoctorInput) (*models.Doctor, error) {
	args := m.Called(ctx, input)
	doctor, _ := args.Get(0).(*models.Doctor)
	return doctor, args.Error(1)
}

func (m *MockDoctorService) GetByID(ctx context.Context, id string) (*models.Doctor, error) {
	args := m.Called(ctx, id)
	doctor, _ := args.Get(0).(*models.Doctor)
	return doctor, args.Error(1)
}

func (m *MockDoctorService) List(ctx context.Context, specialization string, page models.PageRequest) (models.PaginatedResponse[models.Doctor], error) {
	args := m.Called(ctx, specialization, page)
	return args.Get(0).(models.PaginatedResponse[models.Doctor]), args.Error(1)
}

func (m *MockDoctorService) Update(ctx context.Context, id string, input services.DoctorInput) (*models.Doctor, error) {
	args := m.Called(ctx, id, input)
	doctor, _ := args.Get(0).(*models.Doctor)
	return doctor, args.Error(1)
}

func (m *MockDoctorService) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockDoctorService) Availability(ctx context.Context, id, date string, duration int) ([]services.AvailableSlot, error) {
	args := m.Called(ctx, id, date, duration)
	slots, _ := args.Get(0).([]services.AvailableSlot)
	return slots, args.Error(1)
}

type MockAppointmentService struct{ mock.Mock }

func (m *MockAppointmentService) CreateAppointment(ctx context.Context, actor services.Actor, input services.CreateAppointmentInput) (*models.Appointment, error) {
	args := m.Called(ctx, actor, input)
	appointment, _ := args.Get(0).(*models.Appointment)
	return appointment, args.Error(1)
}

func (m *MockAppointmentService) TransitionStatus(ctx context.Context, actor services.Actor, appointmentID string, input services.TransitionInput) (*models.Appointment, error) {
	args := m.Called(ctx, actor, appointmentID, input)
	appointment, _ := args.Get(0).(*models.Appointment)
	return appointment, args.Error(1)
}

func (m *MockAppointmentService) GetByID(ctx context.Context, actor services.Actor, id string) (*models.Appointment, error) {
	args := m.Called(ctx, actor, id)
	appointment, _ := args.Get(0).(*models.Appointment)
	return appointment, args.Error(1)
}

func (m *MockAppointmentService) List(ctx context.Context, actor services.Actor, filter models.AppointmentFilter, page models.PageRequest) (models.PaginatedResponse[models.Appointment], error) {
	args := m.Called(ctx, actor, filter, page)
	return args.Get(0).(models.PaginatedResponse[models.Appointment]), args.Error(1)
}

type MockPrescriptionService struct{ mock.Mock }

func (m *MockPrescriptionService) AttachPrescription(ctx context.Context, actor services.Actor, appointmentID string, input services.PrescriptionInput) (*models.Prescription, error) {
	args := m.Called(ctx, actor, appointmentID, input)
	prescription, _ := args.Get(0).(*models.Prescription)
	return prescription, args.Error(1)
}

func (m *MockPrescriptionService) GetByID(ctx context.Context, actor services.Actor, id string) (*models.Prescription, error) {
	args := m.Called(ctx, actor, id)
	prescription, _ := args.Get(0).(*models.Prescription)
	return prescription, args.Error(1)
}

func (m *MockPrescriptionService) GetByAppointment(ctx context.Context, actor services.Actor, appointmentID string) (*models.Prescription, error) {
	args := m.Called(ctx, actor, appointmentID)
	prescription, _ := args.Get(0).(*models.Prescription)
	return prescription, args.Error(1)
}

func (m *MockPrescriptionService) ListByPatient(ctx context.Context, actor services.Actor, patientID string, page models.PageRequest) (models.PaginatedResponse[models.Prescription], error) {
	args := m.Called(ctx, actor, patientID, page)
	return args.Get(0).(models.PaginatedResponse[models.Prescription]), args.Error(1)
}

func (m *MockPrescriptionService) WritePDF(ctx context.Context, actor services.Actor, id string, w io.Writer) error {
	args := m.Called(ctx, actor, id, w)
	if err := args.Error(0); err != nil {
		return err
	}
	_, err := io.WriteString(w, "%PDF-1.3 test")
	return err
}
