package repositories

import (
	"context"
	"errors"
	"fmt"

	"MediCore/models"

	"gorm.io/gorm"
)

type PrescriptionRepository interface {
	// Create returns ErrDuplicate when the appointment already has a prescription.
	Create(ctx context.Context, prescription *models.Prescription) error
	GetByID(ctx context.Context, id string) (*models.Prescription, error)
	GetByAppointmentID(ctx context.Context, appointmentID string) (*models.Prescription, error)
	ListByPatient(ctx context.Context, patientID string, page models.PageRequest) ([]models.Prescription, int64, error)
}

type prescriptionRepository struct {
	db *gorm.DB
}

func NewPrescriptionRepository(db *gorm.DB) PrescriptionRepository {
	return &prescriptionRepository{db: db}
}

func (r *prescriptionRepository) Create(ctx context.Context, prescription *models.Prescription) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	err := r.db.WithContext(ctx).Omit("Appointment", "Patient", "Doctor").Create(prescription).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create prescription: %w", err)
	}
	return nil
}

func (r *prescriptionRepository) GetByID(ctx context.Context, id string) (*models.Prescription, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *prescriptionRepository) GetByAppointmentID(ctx context.Context, appointmentID string) (*models.Prescription, error) {
	return r.first(ctx, "appointment_id = ?", appointmentID)
}

func (r *prescriptionRepository) first(ctx context.Context, query string, arg string) (*models.Prescription, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var prescription models.Prescription
	if err := r.db.WithContext(ctx).First(&prescription, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get prescription: %w", err)
	}
	return &prescription, nil
}

func (r *prescriptionRepository) ListByPatient(ctx context.Context, patientID string, page models.PageRequest) ([]models.Prescription, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	page = page.Normalize()
	query := r.db.WithContext(ctx).Model(&models.Prescription{}).Where("patient_id = ?", patientID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count prescriptions: %w", err)
	}

	var prescriptions []models.Prescription
	err := query.
		Order("created_at DESC").
		Offset(page.Offset()).
		Limit(page.PageSize).
		Find(&prescriptions).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list prescriptions: %w", err)
	}
	return prescriptions, total, nil
}
