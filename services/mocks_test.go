package services_test

import (
	"context"
	"sync"
	"time"

	"MediCore/database"
	"MediCore/models"
	"MediCore/utils"

	"github.com/stretchr/testify/mock"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetRoleByName(ctx context.Context, name models.RoleName) (*models.Role, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Role), args.Error(1)
}

func (m *MockUserRepository) UpdateUserPassword(ctx context.Context, userID, hashedPassword string) error {
	args := m.Called(ctx, userID, hashedPassword)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateUserProfile(ctx context.Context, userID, firstName, lastName string) error {
	args := m.Called(ctx, userID, firstName, lastName)
	return args.Error(0)
}

func (m *MockUserRepository) ListUsers(ctx context.Context, page models.PageRequest) ([]models.User, int64, error) {
	args := m.Called(ctx, page)
	return args.Get(0).([]models.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) GetUserPermissions(ctx context.Context, userID string) ([]models.Permission, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.Permission), args.Error(1)
}

type MockPatientRepository struct {
	mock.Mock
}

func (m *MockPatientRepository) Create(ctx context.Context, patient *models.Patient) error {
	args := m.Called(ctx, patient)
	return args.Error(0)
}

func (m *MockPatientRepository) GetByID(ctx context.Context, id string) (*models.Patient, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Patient), args.Error(1)
}

func (m *MockPatientRepository) GetByUserID(ctx context.Context, userID string) (*models.Patient, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Patient), args.Error(1)
}

func (m *MockPatientRepository) List(ctx context.Context, page models.PageRequest) ([]models.Patient, int64, error) {
	args := m.Called(ctx, page)
	return args.Get(0).([]models.Patient), args.Get(1).(int64), args.Error(2)
}

func (m *MockPatientRepository) Update(ctx context.Context, patient *models.Patient) error {
	args := m.Called(ctx, patient)
	return args.Error(0)
}

func (m *MockPatientRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockDoctorRepository struct {
	mock.Mock
}

func (m *MockDoctorRepository) Create(ctx context.Context, doctor *models.Doctor) error {
	args := m.Called(ctx, doctor)
	return args.Error(0)
}

func (m *MockDoctorRepository) GetByID(ctx context.Context, id string) (*models.Doctor, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Doctor), args.Error(1)
}

func (m *MockDoctorRepository) GetByUserID(ctx context.Context, userID string) (*models.Doctor, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Doctor), args.Error(1)
}

func (m *MockDoctorRepository) List(ctx context.Context, specialization string, page models.PageRequest) ([]models.Doctor, int64, error) {
	args := m.Called(ctx, specialization, page)
	return args.Get(0).([]models.Doctor), args.Get(1).(int64), args.Error(2)
}

func (m *MockDoctorRepository) Update(ctx context.Context, doctor *models.Doctor) error {
	args := m.Called(ctx, doctor)
	return args.Error(0)
}

func (m *MockDoctorRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockAppointmentRepository struct {
	mock.Mock
}

func (m *MockAppointmentRepository) Create(ctx context.Context, appointment *models.Appointment) error {
	args := m.Called(ctx, appointment)
	return args.Error(0)
}

func (m *MockAppointmentRepository) GetByID(ctx context.Context, id string) (*models.Appointment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) GetByIDFresh(ctx context.Context, id string) (*models.Appointment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) List(ctx context.Context, filter models.AppointmentFilter, page models.PageRequest) ([]models.Appointment, int64, error) {
	args := m.Called(ctx, filter, page)
	return args.Get(0).([]models.Appointment), args.Get(1).(int64), args.Error(2)
}

func (m *MockAppointmentRepository) FindActiveOverlapping(ctx context.Context, doctorID, patientID string, start, end time.Time) ([]models.Appointment, error) {
	args := m.Called(ctx, doctorID, patientID, start, end)
	return args.Get(0).([]models.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) ListActiveForDoctor(ctx context.Context, doctorID string, from, to time.Time) ([]models.Appointment, error) {
	args := m.Called(ctx, doctorID, from, to)
	return args.Get(0).([]models.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) Update(ctx context.Context, appointment *models.Appointment, previous models.AppointmentStatus) error {
	args := m.Called(ctx, appointment, previous)
	return args.Error(0)
}

type MockPrescriptionRepository struct {
	mock.Mock
}

func (m *MockPrescriptionRepository) Create(ctx context.Context, prescription *models.Prescription) error {
	args := m.Called(ctx, prescription)
	return args.Error(0)
}

func (m *MockPrescriptionRepository) GetByID(ctx context.Context, id string) (*models.Prescription, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Prescription), args.Error(1)
}

func (m *MockPrescriptionRepository) GetByAppointmentID(ctx context.Context, appointmentID string) (*models.Prescription, error) {
	args := m.Called(ctx, appointmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Prescription), args.Error(1)
}

func (m *MockPrescriptionRepository) ListByPatient(ctx context.Context, patientID string, page models.PageRequest) ([]models.Prescription, int64, error) {
	args := m.Called(ctx, patientID, page)
	return args.Get(0).([]models.Prescription), args.Get(1).(int64), args.Error(2)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendResetCode(ctx context.Context, to, code string) error {
	args := m.Called(ctx, to, code)
	return args.Error(0)
}

func (m *MockMailer) SendAppointmentNotice(ctx context.Context, to string, notice utils.AppointmentNotice) error {
	args := m.Called(ctx, to, notice)
	return args.Error(0)
}

// memoryLocker is an in-process database.Locker.
type memoryLocker struct {
	mu   sync.Mutex
	held map[string]bool
	keys []string
}

func newMemoryLocker() *memoryLocker {
	return &memoryLocker{held: map[string]bool{}}
}

func (l *memoryLocker) Acquire(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return nil, database.ErrLockNotAcquired
	}
	l.held[key] = true
	l.keys = append(l.keys, key)
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, key)
	}, nil
}
