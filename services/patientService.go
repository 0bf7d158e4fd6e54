package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"MediCore/apperrors"
	"MediCore/logging"
	"MediCore/models"
	"MediCore/repositories"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

const dateLayout = "2006-01-02"

type PatientInput struct {
	UserID           string                  `json:"userId"`
	DateOfBirth      string                  `json:"dateOfBirth"`
	Gender           string                  `json:"gender"`
	Phone            string                  `json:"phone"`
	Address          string                  `json:"address"`
	BloodGroup       string                  `json:"bloodGroup"`
	Allergies        []string                `json:"allergies"`
	MedicalHistory   []string                `json:"medicalHistory"`
	EmergencyContact models.EmergencyContact `json:"emergencyContact"`
}

var bloodGroups = []interface{}{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}

func (i PatientInput) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.UserID, validation.Required, is.UUID),
		validation.Field(&i.DateOfBirth, validation.Required, validation.Date(dateLayout).Max(time.Now())),
		validation.Field(&i.Gender, validation.Required, validation.In(models.GenderMale, models.GenderFemale, models.GenderOther)),
		validation.Field(&i.Phone, validation.Length(0, 30)),
		validation.Field(&i.Address, validation.Length(0, 255)),
		validation.Field(&i.BloodGroup, validation.In(bloodGroups...)),
		validation.Field(&i.EmergencyContact, validation.By(func(value interface{}) error {
			contact, _ := value.(models.EmergencyContact)
			if contact.Name == "" && contact.Phone == "" {
				return nil
			}
			return validation.ValidateStruct(&contact,
				validation.Field(&contact.Name, validation.Required),
				validation.Field(&contact.Phone, validation.Required, validation.Length(3, 30)),
			)
		})),
	)
}

func (i PatientInput) apply(p *models.Patient) {
	p.DateOfBirth = i.DateOfBirth
	p.Gender = strings.ToUpper(i.Gender)
	p.Phone = i.Phone
	p.Address = i.Address
	p.BloodGroup = i.BloodGroup
	p.Allergies = i.Allergies
	p.MedicalHistory = i.MedicalHistory
	p.EmergencyContact = i.EmergencyContact
}

type PatientService interface {
	Create(ctx context.Context, input PatientInput) (*models.Patient, error)
	GetByID(ctx context.Context, actor Actor, id string) (*models.Patient, error)
	List(ctx context.Context, page models.PageRequest) (models.PaginatedResponse[models.Patient], error)
	Update(ctx context.Context, id string, input PatientInput) (*models.Patient, error)
	Delete(ctx context.Context, id string) error
}

type patientService struct {
	patientRepo repositories.PatientRepository
	userRepo    repositories.UserRepository
	owners      ownership
}

func NewPatientService(patientRepo repositories.PatientRepository, doctorRepo repositories.DoctorRepository, userRepo repositories.UserRepository) PatientService {
	if patientRepo == nil || doctorRepo == nil || userRepo == nil {
		panic("services: NewPatientService requires patient, doctor and user repositories")
	}
	return &patientService{
		patientRepo: patientRepo,
		userRepo:    userRepo,
		owners:      ownership{patientRepo: patientRepo, doctorRepo: doctorRepo},
	}
}

func (s *patientService) Create(ctx context.Context, input PatientInput) (*models.Patient, error) {
	input.Gender = strings.ToUpper(strings.TrimSpace(input.Gender))
	if err := input.Validate(); err != nil {
		return nil, apperrors.NewValidationError("invalid patient", err)
	}
	if err := requireUserWithRole(ctx, s.userRepo, input.UserID, models.RolePatient); err != nil {
		return nil, err
	}

	patient := &models.Patient{UserID: input.UserID}
	input.apply(patient)
	if err := s.patientRepo.Create(ctx, patient); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, apperrors.NewConflictError("user already has a patient record")
		}
		return nil, apperrors.NewInternalError("failed to create patient", err)
	}

	logging.FromContext(ctx).Info().Str("patient_id", patient.ID).Msg("patient created")
	return patient, nil
}

func (s *patientService) GetByID(ctx context.Context, actor Actor, id string) (*models.Patient, error) {
	if err := s.owners.checkPatientRecords(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.get(ctx, id)
}

func (s *patientService) get(ctx context.Context, id string) (*models.Patient, error) {
	patient, err := s.patientRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load patient", err)
	}
	if patient == nil {
		return nil, apperrors.NewNotFoundError("patient not found")
	}
	return patient, nil
}

func (s *patientService) List(ctx context.Context, page models.PageRequest) (models.PaginatedResponse[models.Patient], error) {
	patients, total, err := s.patientRepo.List(ctx, page)
	if err != nil {
		return models.PaginatedResponse[models.Patient]{}, apperrors.NewInternalError("failed to list patients", err)
	}
	return models.NewPaginatedResponse(patients, total, page), nil
}

func (s *patientService) Update(ctx context.Context, id string, input PatientInput) (*models.Patient, error) {
	patient, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	input.UserID = patient.UserID
	input.Gender = strings.ToUpper(strings.TrimSpace(input.Gender))
	if err := input.Validate(); err != nil {
		return nil, apperrors.NewValidationError("invalid patient", err)
	}

	input.apply(patient)
	patient.User = nil
	if err := s.patientRepo.Update(ctx, patient); err != nil {
		return nil, apperrors.NewInternalError("failed to update patient", err)
	}
	return patient, nil
}

func (s *patientService) Delete(ctx context.Context, id string) error {
	if err := s.patientRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperrors.NewNotFoundError("patient not found")
		}
		return apperrors.NewInternalError("failed to delete patient", err)
	}
	logging.FromContext(ctx).Info().Str("patient_id", id).Msg("patient deleted")
	return nil
}

// requireUserWithRole checks that userID names an existing account of role.
func requireUserWithRole(ctx context.Context, userRepo repositories.UserRepository, userID string, role models.RoleName) error {
	user, err := userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return apperrors.NewInternalError("failed to load user", err)
	}
	if user == nil {
		return apperrors.NewNotFoundError("user not found")
	}
	if !user.HasRole(role) {
		return apperrors.NewValidationError("user must have role "+string(role), nil)
	}
	return nil
}
