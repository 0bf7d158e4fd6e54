package services

import (
	"context"
	"errors"
	"io"
	"strings"

	"MediCore/apperrors"
	"MediCore/logging"
	"MediCore/models"
	"MediCore/repositories"
	"MediCore/utils"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type PrescriptionInput struct {
	Medications []models.Medication `json:"medications"`
	Diagnosis   string              `json:"diagnosis"`
	Notes       string              `json:"notes"`
}

func (i PrescriptionInput) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.Medications, validation.Required.Error("at least one medication is required"), validation.Each(validation.By(validateMedication))),
		validation.Field(&i.Diagnosis, validation.Required, validation.Length(1, 2000)),
		validation.Field(&i.Notes, validation.Length(0, 2000)),
	)
}

func validateMedication(value interface{}) error {
	m, _ := value.(models.Medication)
	return validation.ValidateStruct(&m,
		validation.Field(&m.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&m.Dosage, validation.Required, validation.Length(1, 100)),
		validation.Field(&m.Frequency, validation.Required, validation.Length(1, 100)),
		validation.Field(&m.Duration, validation.Length(0, 100)),
		validation.Field(&m.Instructions, validation.Length(0, 500)),
	)
}

type PrescriptionService interface {
	AttachPrescription(ctx context.Context, actor Actor, appointmentID string, input PrescriptionInput) (*models.Prescription, error)
	GetByID(ctx context.Context, actor Actor, id string) (*models.Prescription, error)
	GetByAppointment(ctx context.Context, actor Actor, appointmentID string) (*models.Prescription, error)
	ListByPatient(ctx context.Context, actor Actor, patientID string, page models.PageRequest) (models.PaginatedResponse[models.Prescription], error)
	WritePDF(ctx context.Context, actor Actor, id string, w io.Writer) error
}

type prescriptionService struct {
	prescriptionRepo repositories.PrescriptionRepository
	appointmentRepo  repositories.AppointmentRepository
	patientRepo      repositories.PatientRepository
	doctorRepo       repositories.DoctorRepository
	owners           ownership
}

func NewPrescriptionService(
	prescriptionRepo repositories.PrescriptionRepository,
	appointmentRepo repositories.AppointmentRepository,
	patientRepo repositories.PatientRepository,
	doctorRepo repositories.DoctorRepository,
) PrescriptionService {
	if prescriptionRepo == nil || appointmentRepo == nil || patientRepo == nil || doctorRepo == nil {
		panic("services: NewPrescriptionService requires prescription, appointment, patient and doctor repositories")
	}
	return &prescriptionService{
		prescriptionRepo: prescriptionRepo,
		appointmentRepo:  appointmentRepo,
		patientRepo:      patientRepo,
		doctorRepo:       doctorRepo,
		owners:           ownership{patientRepo: patientRepo, doctorRepo: doctorRepo},
	}
}

// AttachPrescription records the prescription of a completed appointment.
// Only the appointment's doctor or an admin may write it, and only once.
func (s *prescriptionService) AttachPrescription(ctx context.Context, actor Actor, appointmentID string, input PrescriptionInput) (*models.Prescription, error) {
	if actor.Role != models.RoleDoctor && actor.Role != models.RoleAdmin {
		return nil, apperrors.NewForbiddenError("only doctors and admins may write prescriptions")
	}
	if err := input.Validate(); err != nil {
		return nil, apperrors.NewValidationError("invalid prescription", err)
	}

	appointment, err := s.appointmentRepo.GetByIDFresh(ctx, appointmentID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load appointment", err)
	}
	if appointment == nil {
		return nil, apperrors.NewNotFoundError("appointment not found")
	}
	if err := s.owners.checkAppointment(ctx, actor, appointment); err != nil {
		return nil, err
	}
	if appointment.Status != models.StatusCompleted {
		return nil, apperrors.NewConflictError("prescriptions can only be attached to completed appointments")
	}

	existing, err := s.prescriptionRepo.GetByAppointmentID(ctx, appointment.ID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to check existing prescription", err)
	}
	if existing != nil {
		return nil, apperrors.NewConflictError("appointment already has a prescription")
	}

	prescription := &models.Prescription{
		AppointmentID: appointment.ID,
		PatientID:     appointment.PatientID,
		DoctorID:      appointment.DoctorID,
		Medications:   input.Medications,
		Diagnosis:     strings.TrimSpace(input.Diagnosis),
		Notes:         strings.TrimSpace(input.Notes),
	}
	if err := s.prescriptionRepo.Create(ctx, prescription); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, apperrors.NewConflictError("appointment already has a prescription")
		}
		return nil, apperrors.NewInternalError("failed to create prescription", err)
	}

	logging.FromContext(ctx).Info().
		Str("prescription_id", prescription.ID).
		Str("appointment_id", appointment.ID).
		Int("medications", len(prescription.Medications)).
		Msg("prescription attached")
	return prescription, nil
}

func (s *prescriptionService) GetByID(ctx context.Context, actor Actor, id string) (*models.Prescription, error) {
	prescription, err := s.prescriptionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load prescription", err)
	}
	if prescription == nil {
		return nil, apperrors.NewNotFoundError("prescription not found")
	}
	if err := s.owners.checkPatientRecords(ctx, actor, prescription.PatientID); err != nil {
		return nil, err
	}
	return prescription, nil
}

func (s *prescriptionService) GetByAppointment(ctx context.Context, actor Actor, appointmentID string) (*models.Prescription, error) {
	prescription, err := s.prescriptionRepo.GetByAppointmentID(ctx, appointmentID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load prescription", err)
	}
	if prescription == nil {
		return nil, apperrors.NewNotFoundError("prescription not found")
	}
	if err := s.owners.checkPatientRecords(ctx, actor, prescription.PatientID); err != nil {
		return nil, err
	}
	return prescription, nil
}

func (s *prescriptionService) ListByPatient(ctx context.Context, actor Actor, patientID string, page models.PageRequest) (models.PaginatedResponse[models.Prescription], error) {
	if err := s.owners.checkPatientRecords(ctx, actor, patientID); err != nil {
		return models.PaginatedResponse[models.Prescription]{}, err
	}
	prescriptions, total, err := s.prescriptionRepo.ListByPatient(ctx, patientID, page)
	if err != nil {
		return models.PaginatedResponse[models.Prescription]{}, apperrors.NewInternalError("failed to list prescriptions", err)
	}
	return models.NewPaginatedResponse(prescriptions, total, page), nil
}

func (s *prescriptionService) WritePDF(ctx context.Context, actor Actor, id string, w io.Writer) error {
	prescription, err := s.GetByID(ctx, actor, id)
	if err != nil {
		return err
	}

	doc := utils.PrescriptionDocument{
		Prescription: *prescription,
		IssuedAt:     prescription.CreatedAt,
	}
	if patient, err := s.patientRepo.GetByID(ctx, prescription.PatientID); err == nil && patient != nil && patient.User != nil {
		doc.PatientName = patient.User.FirstName + " " + patient.User.LastName
	}
	if doctor, err := s.doctorRepo.GetByID(ctx, prescription.DoctorID); err == nil && doctor != nil {
		doc.Specialty = doctor.Specialization
		doc.License = doctor.LicenseNumber
		if doctor.User != nil {
			doc.DoctorName = "Dr. " + doctor.User.FirstName + " " + doctor.User.LastName
		}
	}

	if err := utils.WritePrescriptionPDF(w, doc); err != nil {
		return apperrors.NewInternalError("failed to render prescription", err)
	}
	return nil
}
