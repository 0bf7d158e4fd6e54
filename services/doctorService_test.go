package services_test

import (
	"context"
	"testing"
	"time"

	"MediCore/apperrors"
	"MediCore/models"
	"MediCore/repositories"
	"MediCore/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const doctorUserID = "3f1c2d4e-5a6b-4c7d-8e9f-0a1b2c3d4e5f"

func newDoctorService(f *schedulingFixture, users *MockUserRepository) services.DoctorService {
	return services.NewDoctorService(f.doctors, f.appointments, users, time.UTC,
		services.WithClock(func() time.Time { return clinicNow }))
}

func TestDoctorService_Availability(t *testing.T) {
	ctx := context.Background()

	t.Run("free slots skip booked time", func(t *testing.T) {
		f := newSchedulingFixture()
		svc := newDoctorService(f, new(MockUserRepository))
		doctor := testDoctor()
		doctor.AvailableTimeSlots = []models.TimeSlot{{StartTime: "09:00", EndTime: "10:30"}}
		f.doctors.On("GetByID", mock.Anything, "doc-1").Return(doctor, nil)
		f.appointments.On("ListActiveForDoctor", mock.Anything, "doc-1", mock.Anything, mock.Anything).
			Return([]models.Appointment{{DateTime: mondayNine.Add(30 * time.Minute), Duration: 30, Status: models.StatusScheduled}}, nil)

		slots, err := svc.Availability(ctx, "doc-1", "2030-01-07", 30)
		require.NoError(t, err)
		require.Len(t, slots, 2)
		assert.Equal(t, mondayNine, slots[0].StartTime)
		assert.Equal(t, mondayNine.Add(time.Hour), slots[1].StartTime)
		assert.Equal(t, mondayNine.Add(90*time.Minute), slots[1].EndTime)
	})

	t.Run("days off have no slots", func(t *testing.T) {
		f := newSchedulingFixture()
		svc := newDoctorService(f, new(MockUserRepository))
		f.doctors.On("GetByID", mock.Anything, "doc-1").Return(testDoctor(), nil)

		slots, err := svc.Availability(ctx, "doc-1", "2030-01-08", 30)
		require.NoError(t, err)
		assert.Empty(t, slots)
		f.appointments.AssertNotCalled(t, "ListActiveForDoctor", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("bad input", func(t *testing.T) {
		f := newSchedulingFixture()
		svc := newDoctorService(f, new(MockUserRepository))

		_, err := svc.Availability(ctx, "doc-1", "07/01/2030", 30)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
		_, err = svc.Availability(ctx, "doc-1", "2030-01-07", 1)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})
}

func TestDoctorService_Create(t *testing.T) {
	ctx := context.Background()
	input := services.DoctorInput{
		UserID:             doctorUserID,
		Specialization:     "Cardiology",
		LicenseNumber:      "LIC-1001",
		AvailableDays:      []string{"monday", "Wednesday"},
		AvailableTimeSlots: []models.TimeSlot{{StartTime: "09:00", EndTime: "12:00"}, {StartTime: "13:00", EndTime: "17:00"}},
	}

	t.Run("creates doctor for a DOCTOR user", func(t *testing.T) {
		f := newSchedulingFixture()
		users := new(MockUserRepository)
		svc := newDoctorService(f, users)
		users.On("GetUserByID", mock.Anything, doctorUserID).Return(&models.User{ID: doctorUserID, Role: models.Role{Name: models.RoleDoctor}}, nil)
		f.doctors.On("Create", mock.Anything, mock.MatchedBy(func(d *models.Doctor) bool {
			return d.UserID == doctorUserID && d.AvailableDays[0] == "MONDAY" && d.AvailableDays[1] == "WEDNESDAY"
		})).Return(nil)

		doctor, err := svc.Create(ctx, input)
		require.NoError(t, err)
		assert.Equal(t, "Cardiology", doctor.Specialization)
	})

	t.Run("user must be a doctor", func(t *testing.T) {
		f := newSchedulingFixture()
		users := new(MockUserRepository)
		svc := newDoctorService(f, users)
		users.On("GetUserByID", mock.Anything, doctorUserID).Return(&models.User{ID: doctorUserID, Role: models.Role{Name: models.RolePatient}}, nil)

		_, err := svc.Create(ctx, input)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("duplicate license", func(t *testing.T) {
		f := newSchedulingFixture()
		users := new(MockUserRepository)
		svc := newDoctorService(f, users)
		users.On("GetUserByID", mock.Anything, doctorUserID).Return(&models.User{ID: doctorUserID, Role: models.Role{Name: models.RoleDoctor}}, nil)
		f.doctors.On("Create", mock.Anything, mock.Anything).Return(repositories.ErrDuplicate)

		_, err := svc.Create(ctx, input)
		assert.ErrorIs(t, err, apperrors.ErrConflict)
	})

	t.Run("invalid schedule", func(t *testing.T) {
		f := newSchedulingFixture()
		svc := newDoctorService(f, new(MockUserRepository))

		overlapping := input
		overlapping.AvailableTimeSlots = []models.TimeSlot{{StartTime: "09:00", EndTime: "12:00"}, {StartTime: "11:00", EndTime: "13:00"}}
		_, err := svc.Create(ctx, overlapping)
		assert.ErrorIs(t, err, apperrors.ErrValidation)

		badDay := input
		badDay.AvailableDays = []string{"FUNDAY"}
		_, err = svc.Create(ctx, badDay)
		assert.ErrorIs(t, err, apperrors.ErrValidation)

		backwards := input
		backwards.AvailableTimeSlots = []models.TimeSlot{{StartTime: "12:00", EndTime: "09:00"}}
		_, err = svc.Create(ctx, backwards)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})
}

func TestDoctorService_Delete(t *testing.T) {
	f := newSchedulingFixture()
	svc := newDoctorService(f, new(MockUserRepository))
	f.doctors.On("Delete", mock.Anything, "missing").Return(repositories.ErrNotFound)
	f.doctors.On("Delete", mock.Anything, "doc-1").Return(nil)

	assert.ErrorIs(t, svc.Delete(context.Background(), "missing"), apperrors.ErrNotFound)
	assert.NoError(t, svc.Delete(context.Background(), "doc-1"))
}
