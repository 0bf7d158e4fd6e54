package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"MediCore/cache"
	"MediCore/logging"
	"MediCore/models"

	"gorm.io/gorm"
)

const (
	DoctorCacheExpiry = 7 * 24 * time.Hour
)

type DoctorRepository interface {
	Create(ctx context.Context, doctor *models.Doctor) error
	GetByID(ctx context.Context, id string) (*models.Doctor, error)
	GetByUserID(ctx context.Context, userID string) (*models.Doctor, error)
	List(ctx context.Context, specialization string, page models.PageRequest) ([]models.Doctor, int64, error)
	Update(ctx context.Context, doctor *models.Doctor) error
	Delete(ctx context.Context, id string) error
}

type doctorRepository struct {
	db    *gorm.DB
	cache cache.Store
}

func NewDoctorRepository(db *gorm.DB, cache cache.Store) DoctorRepository {
	return &doctorRepository{db: db, cache: cache}
}

func (r *doctorRepository) Create(ctx context.Context, doctor *models.Doctor) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if err := r.db.WithContext(ctx).Omit("User").Create(doctor).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create doctor: %w", err)
	}
	dropCache(ctx, r.cache, nil, "doctors_cache:*")
	return nil
}

func (r *doctorRepository) GetByID(ctx context.Context, id string) (*models.Doctor, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	cacheKey := r.getDoctorCacheKey(id)
	var cached models.Doctor
	if err := cache.GetJSON(ctx, r.cache, cacheKey, &cached); err == nil {
		return &cached, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		logging.FromContext(ctx).Warn().Err(err).Str("key", cacheKey).Msg("failed to get doctor from cache")
	}

	var doctor models.Doctor
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("User.Role").
		First(&doctor, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get doctor: %w", err)
	}

	if err := cache.SetJSON(ctx, r.cache, cacheKey, doctor, DoctorCacheExpiry); err != nil {
		logging.FromContext(ctx).Warn().Err(err).Str("key", cacheKey).Msg("failed to set doctor in cache")
	}
	return &doctor, nil
}

func (r *doctorRepository) GetByUserID(ctx context.Context, userID string) (*models.Doctor, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var doctor models.Doctor
	err := r.db.WithContext(ctx).Preload("User").First(&doctor, "user_id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get doctor by user: %w", err)
	}
	return &doctor, nil
}

func (r *doctorRepository) List(ctx context.Context, specialization string, page models.PageRequest) ([]models.Doctor, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	page = page.Normalize()
	specialization = strings.TrimSpace(specialization)
	cacheKey := fmt.Sprintf("doctors_cache:%s:%d:%d", strings.ToLower(specialization), page.Page, page.PageSize)
	var cached cachedPage[models.Doctor]
	if err := cache.GetJSON(ctx, r.cache, cacheKey, &cached); err == nil {
		return cached.Rows, cached.Total, nil
	}

	query := r.db.WithContext(ctx).Model(&models.Doctor{})
	if specialization != "" {
		query = query.Where("LOWER(specialization) = LOWER(?)", specialization)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count doctors: %w", err)
	}

	var doctors []models.Doctor
	err := query.
		Preload("User").
		Order("created_at DESC").
		Offset(page.Offset()).
		Limit(page.PageSize).
		Find(&doctors).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list doctors: %w", err)
	}

	if err := cache.SetJSON(ctx, r.cache, cacheKey, cachedPage[models.Doctor]{Rows: doctors, Total: total}, listCacheExpiry); err != nil {
		logging.FromContext(ctx).Warn().Err(err).Str("key", cacheKey).Msg("failed to set doctors in cache")
	}
	return doctors, total, nil
}

func (r *doctorRepository) Update(ctx context.Context, doctor *models.Doctor) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	err := r.db.WithContext(ctx).Omit("User", "UserID", "CreatedAt").Save(doctor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to update doctor: %w", err)
	}
	r.invalidate(ctx, doctor.ID)
	return nil
}

func (r *doctorRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result := r.db.WithContext(ctx).Delete(&models.Doctor{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete doctor: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	r.invalidate(ctx, id)
	return nil
}

func (r *doctorRepository) invalidate(ctx context.Context, id string) {
	dropCache(ctx, r.cache, []string{r.getDoctorCacheKey(id)}, "doctors_cache:*", appointmentCachePattern)
}

func (r *doctorRepository) getDoctorCacheKey(id string) string {
	return fmt.Sprintf("doctor_cache:%s", id)
}
