package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"MediCore/apperrors"
	"MediCore/database"
	"MediCore/logging"
	"MediCore/models"
	"MediCore/repositories"
	"MediCore/utils"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type CreateAppointmentInput struct {
	PatientID string    `json:"patientId"`
	DoctorID  string    `json:"doctorId"`
	DateTime  time.Time `json:"dateTime"`
	Duration  int       `json:"duration"`
	Reason    string    `json:"reason"`
	Notes     string    `json:"notes"`
}

func (i CreateAppointmentInput) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.PatientID, validation.Required),
		validation.Field(&i.DoctorID, validation.Required),
		validation.Field(&i.DateTime, validation.Required),
		validation.Field(&i.Duration, validation.Required, validation.Min(MinAppointmentMinutes), validation.Max(MaxAppointmentMinutes)),
		validation.Field(&i.Reason, validation.Length(0, 500)),
		validation.Field(&i.Notes, validation.Length(0, 2000)),
	)
}

type TransitionInput struct {
	Status models.AppointmentStatus `json:"status"`
	Reason string                   `json:"reason"`
}

func (i TransitionInput) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.Status, validation.Required, validation.By(func(value interface{}) error {
			status, _ := value.(models.AppointmentStatus)
			if !status.IsValid() {
				return errors.New("unknown appointment status")
			}
			return nil
		})),
		validation.Field(&i.Reason, validation.Length(0, 500)),
	)
}

type AppointmentService interface {
	CreateAppointment(ctx context.Context, actor Actor, input CreateAppointmentInput) (*models.Appointment, error)
	TransitionStatus(ctx context.Context, actor Actor, appointmentID string, input TransitionInput) (*models.Appointment, error)
	GetByID(ctx context.Context, actor Actor, id string) (*models.Appointment, error)
	List(ctx context.Context, actor Actor, filter models.AppointmentFilter, page models.PageRequest) (models.PaginatedResponse[models.Appointment], error)
}

type appointmentService struct {
	appointmentRepo repositories.AppointmentRepository
	patientRepo     repositories.PatientRepository
	doctorRepo      repositories.DoctorRepository
	locker          database.Locker
	mailer          utils.Mailer
	owners          ownership
	loc             *time.Location
	now             func() time.Time
}

func NewAppointmentService(
	appointmentRepo repositories.AppointmentRepository,
	patientRepo repositories.PatientRepository,
	doctorRepo repositories.DoctorRepository,
	locker database.Locker,
	mailer utils.Mailer,
	loc *time.Location,
	opts ...Option,
) AppointmentService {
	if appointmentRepo == nil || patientRepo == nil || doctorRepo == nil {
		panic("services: NewAppointmentService requires appointment, patient and doctor repositories")
	}
	if locker == nil {
		panic("services: NewAppointmentService requires a locker")
	}
	if mailer == nil {
		panic("services: NewAppointmentService requires a mailer")
	}
	if loc == nil {
		loc = time.UTC
	}
	return &appointmentService{
		appointmentRepo: appointmentRepo,
		patientRepo:     patientRepo,
		doctorRepo:      doctorRepo,
		locker:          locker,
		mailer:          mailer,
		owners:          ownership{patientRepo: patientRepo, doctorRepo: doctorRepo},
		loc:             loc,
		now:             buildOptions(opts).now,
	}
}

func (s *appointmentService) CreateAppointment(ctx context.Context, actor Actor, input CreateAppointmentInput) (*models.Appointment, error) {
	if err := s.scopeBooking(ctx, actor, &input); err != nil {
		return nil, err
	}
	if input.Duration == 0 {
		input.Duration = DefaultAppointmentMinutes
	}
	if err := input.Validate(); err != nil {
		return nil, apperrors.NewValidationError("invalid appointment", err)
	}

	start := input.DateTime.UTC()
	end := start.Add(time.Duration(input.Duration) * time.Minute)
	if !start.After(s.now()) {
		return nil, apperrors.NewValidationError("appointment must be in the future", nil)
	}

	patient, err := s.patientRepo.GetByID(ctx, input.PatientID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load patient", err)
	}
	if patient == nil {
		return nil, apperrors.NewNotFoundError("patient not found")
	}
	doctor, err := s.doctorRepo.GetByID(ctx, input.DoctorID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load doctor", err)
	}
	if doctor == nil {
		return nil, apperrors.NewNotFoundError("doctor not found")
	}
	if _, ok := doctor.SlotContaining(start, end, s.loc); !ok {
		return nil, apperrors.NewValidationError("requested time is outside the doctor's available time slots", nil)
	}

	releaseDoctor, err := s.lock(ctx, "appointment_lock:doctor:"+doctor.ID)
	if err != nil {
		return nil, err
	}
	defer releaseDoctor()
	releasePatient, err := s.lock(ctx, "appointment_lock:patient:"+patient.ID)
	if err != nil {
		return nil, err
	}
	defer releasePatient()

	clashes, err := s.appointmentRepo.FindActiveOverlapping(ctx, doctor.ID, patient.ID, start, end)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to check overlapping appointments", err)
	}
	for _, clash := range clashes {
		if clash.DoctorID == doctor.ID {
			return nil, apperrors.NewConflictError("doctor already has an appointment at that time")
		}
	}
	if len(clashes) > 0 {
		return nil, apperrors.NewConflictError("patient already has an appointment at that time")
	}

	appointment := &models.Appointment{
		PatientID: patient.ID,
		DoctorID:  doctor.ID,
		DateTime:  start,
		Duration:  input.Duration,
		Status:    models.StatusScheduled,
		Reason:    strings.TrimSpace(input.Reason),
		Notes:     strings.TrimSpace(input.Notes),
	}
	if err := s.appointmentRepo.Create(ctx, appointment); err != nil {
		return nil, apperrors.NewInternalError("failed to create appointment", err)
	}

	logging.FromContext(ctx).Info().
		Str("appointment_id", appointment.ID).
		Str("doctor_id", doctor.ID).
		Str("patient_id", patient.ID).
		Time("date_time", start).
		Msg("appointment scheduled")
	return appointment, nil
}

// scopeBooking pins the patient of a PATIENT actor and the doctor of a
// DOCTOR actor to their own records.
func (s *appointmentService) scopeBooking(ctx context.Context, actor Actor, input *CreateAppointmentInput) error {
	switch actor.Role {
	case models.RoleAdmin, models.RoleNurse:
		return nil
	case models.RolePatient:
		patient, err := s.owners.patientOf(ctx, actor)
		if err != nil {
			return err
		}
		if input.PatientID != "" && input.PatientID != patient.ID {
			return apperrors.NewForbiddenError("patients may only book for themselves")
		}
		input.PatientID = patient.ID
		return nil
	case models.RoleDoctor:
		doctor, err := s.owners.doctorOf(ctx, actor)
		if err != nil {
			return err
		}
		if input.DoctorID != "" && input.DoctorID != doctor.ID {
			return apperrors.NewForbiddenError("doctors may only book into their own calendar")
		}
		input.DoctorID = doctor.ID
		return nil
	default:
		return apperrors.NewForbiddenError("role is not allowed to book appointments")
	}
}

func (s *appointmentService) lock(ctx context.Context, key string) (func(), error) {
	release, err := s.locker.Acquire(ctx, key)
	if err != nil {
		if errors.Is(err, database.ErrLockNotAcquired) {
			return nil, apperrors.NewConflictError("calendar is being updated, please retry")
		}
		return nil, apperrors.NewInternalError("failed to acquire lock", err)
	}
	return release, nil
}

func (s *appointmentService) TransitionStatus(ctx context.Context, actor Actor, appointmentID string, input TransitionInput) (*models.Appointment, error) {
	input.Status = models.AppointmentStatus(strings.ToUpper(strings.TrimSpace(string(input.Status))))
	if err := input.Validate(); err != nil {
		return nil, apperrors.NewValidationError("invalid status change", err)
	}

	release, err := s.lock(ctx, "appointment_lock:"+appointmentID)
	if err != nil {
		return nil, err
	}
	defer release()

	appointment, err := s.loadFresh(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if err := s.owners.checkAppointment(ctx, actor, appointment); err != nil {
		return nil, err
	}
	if appointment.Status == input.Status {
		return appointment, nil
	}
	if !appointment.Status.CanTransitionTo(input.Status) {
		return nil, apperrors.NewInvalidTransitionError(string(appointment.Status), string(input.Status))
	}
	if !models.RoleMaySet(actor.Role, input.Status) {
		return nil, apperrors.NewForbiddenError(fmt.Sprintf("%s may not set status %s", actor.Role, input.Status))
	}

	previous := appointment.Status
	if _, err := appointment.Transition(input.Status, s.now()); err != nil {
		return nil, err
	}

	reason := strings.TrimSpace(input.Reason)
	if reason != "" {
		switch input.Status {
		case models.StatusCancelled, models.StatusNoShow:
			appointment.CancellationReason = reason
		default:
			appointment.Notes = reason
		}
	}
	if err := s.appointmentRepo.Update(ctx, appointment, previous); err != nil {
		if errors.Is(err, repositories.ErrStale) {
			return nil, apperrors.NewConflictError("appointment was changed by another request, please retry")
		}
		return nil, apperrors.NewInternalError("failed to update appointment", err)
	}

	logging.FromContext(ctx).Info().
		Str("appointment_id", appointment.ID).
		Str("from", string(previous)).
		Str("to", string(appointment.Status)).
		Str("actor_role", string(actor.Role)).
		Msg("appointment status changed")

	if appointment.Status == models.StatusConfirmed || appointment.Status == models.StatusCancelled {
		s.notify(ctx, appointment)
	}
	return appointment, nil
}

// notify emails the patient about a status change. Failures are logged only.
func (s *appointmentService) notify(ctx context.Context, appointment *models.Appointment) {
	log := logging.FromContext(ctx)

	patient := appointment.Patient
	if patient == nil || patient.User == nil {
		p, err := s.patientRepo.GetByID(ctx, appointment.PatientID)
		if err != nil || p == nil || p.User == nil {
			log.Warn().Err(err).Str("appointment_id", appointment.ID).Msg("no recipient for appointment notice")
			return
		}
		patient = p
	}
	doctorName := "your doctor"
	doctor := appointment.Doctor
	if doctor == nil || doctor.User == nil {
		if d, err := s.doctorRepo.GetByID(ctx, appointment.DoctorID); err == nil && d != nil {
			doctor = d
		}
	}
	if doctor != nil && doctor.User != nil {
		doctorName = "Dr. " + doctor.User.LastName
	}

	notice := utils.AppointmentNotice{
		RecipientName: patient.User.FirstName,
		DoctorName:    doctorName,
		DateTime:      appointment.DateTime,
		Duration:      appointment.Duration,
		Status:        string(appointment.Status),
		Reason:        appointment.CancellationReason,
	}
	if err := s.mailer.SendAppointmentNotice(ctx, patient.User.Email, notice); err != nil {
		log.Error().Err(err).Str("appointment_id", appointment.ID).Msg("failed to send appointment notice")
	}
}

func (s *appointmentService) load(ctx context.Context, id string) (*models.Appointment, error) {
	return s.found(s.appointmentRepo.GetByID(ctx, id))
}

// loadFresh reads past the cache; status changes decide on it.
func (s *appointmentService) loadFresh(ctx context.Context, id string) (*models.Appointment, error) {
	return s.found(s.appointmentRepo.GetByIDFresh(ctx, id))
}

func (s *appointmentService) found(appointment *models.Appointment, err error) (*models.Appointment, error) {
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load appointment", err)
	}
	if appointment == nil {
		return nil, apperrors.NewNotFoundError("appointment not found")
	}
	return appointment, nil
}

func (s *appointmentService) GetByID(ctx context.Context, actor Actor, id string) (*models.Appointment, error) {
	appointment, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.owners.checkAppointment(ctx, actor, appointment); err != nil {
		return nil, err
	}
	return appointment, nil
}

func (s *appointmentService) List(ctx context.Context, actor Actor, filter models.AppointmentFilter, page models.PageRequest) (models.PaginatedResponse[models.Appointment], error) {
	empty := models.PaginatedResponse[models.Appointment]{}
	if filter.Status != "" && !filter.Status.IsValid() {
		return empty, apperrors.NewValidationError("unknown appointment status "+string(filter.Status), nil)
	}

	switch actor.Role {
	case models.RolePatient:
		patient, err := s.owners.patientOf(ctx, actor)
		if err != nil {
			return empty, err
		}
		filter.PatientID = patient.ID
	case models.RoleDoctor:
		doctor, err := s.owners.doctorOf(ctx, actor)
		if err != nil {
			return empty, err
		}
		filter.DoctorID = doctor.ID
	}

	appointments, total, err := s.appointmentRepo.List(ctx, filter, page)
	if err != nil {
		return empty, apperrors.NewInternalError("failed to list appointments", err)
	}
	return models.NewPaginatedResponse(appointments, total, page), nil
}
