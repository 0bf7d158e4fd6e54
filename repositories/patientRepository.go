package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"MediCore/cache"
	"MediCore/logging"
	"MediCore/models"

	"gorm.io/gorm"
)

const (
	PatientCacheExpiry = 7 * 24 * time.Hour
)

type PatientRepository interface {
	Create(ctx context.Context, patient *models.Patient) error
	GetByID(ctx context.Context, id string) (*models.Patient, error)
	GetByUserID(ctx context.Context, userID string) (*models.Patient, error)
	List(ctx context.Context, page models.PageRequest) ([]models.Patient, int64, error)
	Update(ctx context.Context, patient *models.Patient) error
	Delete(ctx context.Context, id string) error
}

type patientRepository struct {
	db    *gorm.DB
	cache cache.Store
}

func NewPatientRepository(db *gorm.DB, cache cache.Store) PatientRepository {
	return &patientRepository{db: db, cache: cache}
}

func (r *patientRepository) Create(ctx context.Context, patient *models.Patient) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if err := r.db.WithContext(ctx).Omit("User").Create(patient).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create patient: %w", err)
	}
	dropCache(ctx, r.cache, nil, "patients_cache:*")
	return nil
}

func (r *patientRepository) GetByID(ctx context.Context, id string) (*models.Patient, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	cacheKey := r.getPatientCacheKey(id)
	var cached models.Patient
	if err := cache.GetJSON(ctx, r.cache, cacheKey, &cached); err == nil {
		return &cached, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		logging.FromContext(ctx).Warn().Err(err).Str("key", cacheKey).Msg("failed to get patient from cache")
	}

	var patient models.Patient
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("User.Role").
		First(&patient, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}

	if err := cache.SetJSON(ctx, r.cache, cacheKey, patient, PatientCacheExpiry); err != nil {
		logging.FromContext(ctx).Warn().Err(err).Str("key", cacheKey).Msg("failed to set patient in cache")
	}
	return &patient, nil
}

func (r *patientRepository) GetByUserID(ctx context.Context, userID string) (*models.Patient, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var patient models.Patient
	err := r.db.WithContext(ctx).Preload("User").First(&patient, "user_id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get patient by user: %w", err)
	}
	return &patient, nil
}

func (r *patientRepository) List(ctx context.Context, page models.PageRequest) ([]models.Patient, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	page = page.Normalize()
	cacheKey := fmt.Sprintf("patients_cache:%d:%d", page.Page, page.PageSize)
	var cached cachedPage[models.Patient]
	if err := cache.GetJSON(ctx, r.cache, cacheKey, &cached); err == nil {
		return cached.Rows, cached.Total, nil
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Patient{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count patients: %w", err)
	}

	var patients []models.Patient
	err := r.db.WithContext(ctx).
		Preload("User").
		Order("created_at DESC").
		Offset(page.Offset()).
		Limit(page.PageSize).
		Find(&patients).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list patients: %w", err)
	}

	if err := cache.SetJSON(ctx, r.cache, cacheKey, cachedPage[models.Patient]{Rows: patients, Total: total}, listCacheExpiry); err != nil {
		logging.FromContext(ctx).Warn().Err(err).Str("key", cacheKey).Msg("failed to set patients in cache")
	}
	return patients, total, nil
}

func (r *patientRepository) Update(ctx context.Context, patient *models.Patient) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Omit("User", "UserID", "CreatedAt").Save(patient).Error
	})
	if err != nil {
		return fmt.Errorf("failed to update patient: %w", err)
	}
	r.invalidate(ctx, patient.ID)
	return nil
}

func (r *patientRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result := r.db.WithContext(ctx).Delete(&models.Patient{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete patient: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	r.invalidate(ctx, id)
	return nil
}

func (r *patientRepository) invalidate(ctx context.Context, id string) {
	dropCache(ctx, r.cache, []string{r.getPatientCacheKey(id)}, "patients_cache:*", appointmentCachePattern)
}

func (r *patientRepository) getPatientCacheKey(id string) string {
	return fmt.Sprintf("patient_cache:%s", id)
}
