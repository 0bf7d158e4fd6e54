package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"MediCore/apperrors"
	"MediCore/logging"
	"MediCore/models"
	"MediCore/repositories"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

const (
	MinAppointmentMinutes     = 5
	MaxAppointmentMinutes     = 240
	DefaultAppointmentMinutes = 30
)

type DoctorInput struct {
	UserID             string            `json:"userId"`
	Specialization     string            `json:"specialization"`
	LicenseNumber      string            `json:"licenseNumber"`
	Phone              string            `json:"phone"`
	ConsultationFee    float64           `json:"consultationFee"`
	AvailableDays      []string          `json:"availableDays"`
	AvailableTimeSlots []models.TimeSlot `json:"availableTimeSlots"`
}

func (i DoctorInput) Validate() error {
	weekdays := make([]interface{}, len(models.Weekdays))
	for n, day := range models.Weekdays {
		weekdays[n] = day
	}
	return validation.ValidateStruct(&i,
		validation.Field(&i.UserID, validation.Required, is.UUID),
		validation.Field(&i.Specialization, validation.Required, validation.Length(2, 100)),
		validation.Field(&i.LicenseNumber, validation.Required, validation.Length(3, 50)),
		validation.Field(&i.Phone, validation.Length(0, 30)),
		validation.Field(&i.ConsultationFee, validation.Min(0.0)),
		validation.Field(&i.AvailableDays, validation.Each(validation.In(weekdays...).Error("must be a weekday name such as MONDAY"))),
		validation.Field(&i.AvailableTimeSlots, validation.By(validateTimeSlots)),
	)
}

func validateTimeSlots(value interface{}) error {
	slots, _ := value.([]models.TimeSlot)
	day := time.Date(2000, 1, 3, 0, 0, 0, 0, time.UTC)
	for n, slot := range slots {
		from, to, err := slot.Bounds(day, time.UTC)
		if err != nil {
			return err
		}
		for _, other := range slots[n+1:] {
			oFrom, oTo, err := other.Bounds(day, time.UTC)
			if err != nil {
				return err
			}
			if from.Before(oTo) && oFrom.Before(to) {
				return fmt.Errorf("slots %s-%s and %s-%s overlap", slot.StartTime, slot.EndTime, other.StartTime, other.EndTime)
			}
		}
	}
	return nil
}

func (i DoctorInput) apply(d *models.Doctor) {
	d.Specialization = strings.TrimSpace(i.Specialization)
	d.LicenseNumber = strings.TrimSpace(i.LicenseNumber)
	d.Phone = i.Phone
	d.ConsultationFee = i.ConsultationFee
	d.AvailableDays = i.AvailableDays
	d.AvailableTimeSlots = i.AvailableTimeSlots
}

func normalizeDays(days []string) []string {
	out := make([]string, 0, len(days))
	for _, day := range days {
		out = append(out, strings.ToUpper(strings.TrimSpace(day)))
	}
	return out
}

// AvailableSlot is a free bookable interval.
type AvailableSlot struct {
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
}

type DoctorService interface {
	Create(ctx context.Context, input DoctorInput) (*models.Doctor, error)
	GetByID(ctx context.Context, id string) (*models.Doctor, error)
	List(ctx context.Context, specialization string, page models.PageRequest) (models.PaginatedResponse[models.Doctor], error)
	Update(ctx context.Context, id string, input DoctorInput) (*models.Doctor, error)
	Delete(ctx context.Context, id string) error
	// Availability lists the free start times of the doctor on date
	// (YYYY-MM-DD, clinic time zone) for an appointment of duration minutes.
	Availability(ctx context.Context, id, date string, duration int) ([]AvailableSlot, error)
}

type doctorService struct {
	doctorRepo      repositories.DoctorRepository
	appointmentRepo repositories.AppointmentRepository
	userRepo        repositories.UserRepository
	loc             *time.Location
	now             func() time.Time
}

func NewDoctorService(doctorRepo repositories.DoctorRepository, appointmentRepo repositories.AppointmentRepository, userRepo repositories.UserRepository, loc *time.Location, opts ...Option) DoctorService {
	if doctorRepo == nil || appointmentRepo == nil || userRepo == nil {
		panic("services: NewDoctorService requires doctor, appointment and user repositories")
	}
	if loc == nil {
		loc = time.UTC
	}
	return &doctorService{
		doctorRepo:      doctorRepo,
		appointmentRepo: appointmentRepo,
		userRepo:        userRepo,
		loc:             loc,
		now:             buildOptions(opts).now,
	}
}

func (s *doctorService) Create(ctx context.Context, input DoctorInput) (*models.Doctor, error) {
	input.AvailableDays = normalizeDays(input.AvailableDays)
	if err := input.Validate(); err != nil {
		return nil, apperrors.NewValidationError("invalid doctor", err)
	}
	if err := requireUserWithRole(ctx, s.userRepo, input.UserID, models.RoleDoctor); err != nil {
		return nil, err
	}

	doctor := &models.Doctor{UserID: input.UserID}
	input.apply(doctor)
	if err := s.doctorRepo.Create(ctx, doctor); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, apperrors.NewConflictError("doctor record or license number already exists")
		}
		return nil, apperrors.NewInternalError("failed to create doctor", err)
	}

	logging.FromContext(ctx).Info().Str("doctor_id", doctor.ID).Msg("doctor created")
	return doctor, nil
}

func (s *doctorService) GetByID(ctx context.Context, id string) (*models.Doctor, error) {
	doctor, err := s.doctorRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load doctor", err)
	}
	if doctor == nil {
		return nil, apperrors.NewNotFoundError("doctor not found")
	}
	return doctor, nil
}

func (s *doctorService) List(ctx context.Context, specialization string, page models.PageRequest) (models.PaginatedResponse[models.Doctor], error) {
	doctors, total, err := s.doctorRepo.List(ctx, specialization, page)
	if err != nil {
		return models.PaginatedResponse[models.Doctor]{}, apperrors.NewInternalError("failed to list doctors", err)
	}
	return models.NewPaginatedResponse(doctors, total, page), nil
}

func (s *doctorService) Update(ctx context.Context, id string, input DoctorInput) (*models.Doctor, error) {
	doctor, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	input.UserID = doctor.UserID
	input.AvailableDays = normalizeDays(input.AvailableDays)
	if err := input.Validate(); err != nil {
		return nil, apperrors.NewValidationError("invalid doctor", err)
	}

	input.apply(doctor)
	doctor.User = nil
	if err := s.doctorRepo.Update(ctx, doctor); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, apperrors.NewConflictError("license number already exists")
		}
		return nil, apperrors.NewInternalError("failed to update doctor", err)
	}
	return doctor, nil
}

func (s *doctorService) Delete(ctx context.Context, id string) error {
	if err := s.doctorRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperrors.NewNotFoundError("doctor not found")
		}
		return apperrors.NewInternalError("failed to delete doctor", err)
	}
	logging.FromContext(ctx).Info().Str("doctor_id", id).Msg("doctor deleted")
	return nil
}

func (s *doctorService) Availability(ctx context.Context, id, date string, duration int) ([]AvailableSlot, error) {
	if duration == 0 {
		duration = DefaultAppointmentMinutes
	}
	if duration < MinAppointmentMinutes || duration > MaxAppointmentMinutes {
		return nil, apperrors.NewValidationError(fmt.Sprintf("duration must be between %d and %d minutes", MinAppointmentMinutes, MaxAppointmentMinutes), nil)
	}
	day, err := time.ParseInLocation(dateLayout, date, s.loc)
	if err != nil {
		return nil, apperrors.NewValidationError("date must be formatted as YYYY-MM-DD", nil)
	}

	doctor, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	slots := []AvailableSlot{}
	if !doctor.WorksOn(day.Weekday()) {
		return slots, nil
	}

	dayEnd := day.AddDate(0, 0, 1)
	booked, err := s.appointmentRepo.ListActiveForDoctor(ctx, doctor.ID, day, dayEnd)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load appointments", err)
	}

	now := s.now()
	length := time.Duration(duration) * time.Minute
	for _, window := range doctor.AvailableTimeSlots {
		from, to, err := window.Bounds(day, s.loc)
		if err != nil {
			continue
		}
		for start := from; !start.Add(length).After(to); start = start.Add(length) {
			end := start.Add(length)
			if start.Before(now) || overlapsAny(booked, start, end) {
				continue
			}
			slots = append(slots, AvailableSlot{StartTime: start, EndTime: end})
		}
	}
	return slots, nil
}

func overlapsAny(appointments []models.Appointment, start, end time.Time) bool {
	for i := range appointments {
		if appointments[i].Overlaps(start, end) {
			return true
		}
	}
	return false
}
