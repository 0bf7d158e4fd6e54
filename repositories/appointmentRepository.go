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
	AppointmentCacheExpiry = 24 * time.Hour
)

type AppointmentRepository interface {
	Create(ctx context.Context, appointment *models.Appointment) error
	GetByID(ctx context.Context, id string) (*models.Appointment, error)
	// GetByIDFresh reads from the database, skipping the cache, and refreshes
	// the cached copy.
	GetByIDFresh(ctx context.Context, id string) (*models.Appointment, error)
	List(ctx context.Context, filter models.AppointmentFilter, page models.PageRequest) ([]models.Appointment, int64, error)
	// FindActiveOverlapping returns active appointments of the doctor or the
	// patient whose interval intersects [start, end).
	FindActiveOverlapping(ctx context.Context, doctorID, patientID string, start, end time.Time) ([]models.Appointment, error)
	ListActiveForDoctor(ctx context.Context, doctorID string, from, to time.Time) ([]models.Appointment, error)
	// Update writes the appointment only while its stored status is still
	// previous, returning ErrStale otherwise.
	Update(ctx context.Context, appointment *models.Appointment, previous models.AppointmentStatus) error
}

type appointmentRepository struct {
	db    *gorm.DB
	cache cache.Store
}

func NewAppointmentRepository(db *gorm.DB, cache cache.Store) AppointmentRepository {
	return &appointmentRepository{db: db, cache: cache}
}

func (r *appointmentRepository) Create(ctx context.Context, appointment *models.Appointment) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if err := r.db.WithContext(ctx).Omit("Patient", "Doctor").Create(appointment).Error; err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) GetByID(ctx context.Context, id string) (*models.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	cacheKey := r.getAppointmentCacheKey(id)
	var cached models.Appointment
	if err := cache.GetJSON(ctx, r.cache, cacheKey, &cached); err == nil {
		return &cached, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		logging.FromContext(ctx).Warn().Err(err).Str("key", cacheKey).Msg("failed to get appointment from cache")
	}
	return r.fetch(ctx, id)
}

func (r *appointmentRepository) GetByIDFresh(ctx context.Context, id string) (*models.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return r.fetch(ctx, id)
}

func (r *appointmentRepository) fetch(ctx context.Context, id string) (*models.Appointment, error) {
	cacheKey := r.getAppointmentCacheKey(id)
	var appointment models.Appointment
	err := r.db.WithContext(ctx).
		Preload("Patient.User").
		Preload("Doctor.User").
		First(&appointment, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}

	if err := cache.SetJSON(ctx, r.cache, cacheKey, appointment, AppointmentCacheExpiry); err != nil {
		logging.FromContext(ctx).Warn().Err(err).Str("key", cacheKey).Msg("failed to set appointment in cache")
	}
	return &appointment, nil
}

func (r *appointmentRepository) List(ctx context.Context, filter models.AppointmentFilter, page models.PageRequest) ([]models.Appointment, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	page = page.Normalize()
	query := r.db.WithContext(ctx).Model(&models.Appointment{})
	if filter.PatientID != "" {
		query = query.Where("patient_id = ?", filter.PatientID)
	}
	if filter.DoctorID != "" {
		query = query.Where("doctor_id = ?", filter.DoctorID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.From != nil {
		query = query.Where("date_time >= ?", filter.From.UTC())
	}
	if filter.To != nil {
		query = query.Where("date_time < ?", filter.To.UTC())
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count appointments: %w", err)
	}

	var appointments []models.Appointment
	err := query.
		Order("date_time ASC").
		Offset(page.Offset()).
		Limit(page.PageSize).
		Find(&appointments).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, total, nil
}

func (r *appointmentRepository) FindActiveOverlapping(ctx context.Context, doctorID, patientID string, start, end time.Time) ([]models.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var appointments []models.Appointment
	err := r.db.WithContext(ctx).
		Where("(doctor_id = ? OR patient_id = ?)", doctorID, patientID).
		Where("status IN ?", models.ActiveStatuses).
		Where("date_time < ? AND date_time + (duration * interval '1 minute') > ?", end.UTC(), start.UTC()).
		Find(&appointments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find overlapping appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) ListActiveForDoctor(ctx context.Context, doctorID string, from, to time.Time) ([]models.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var appointments []models.Appointment
	err := r.db.WithContext(ctx).
		Where("doctor_id = ?", doctorID).
		Where("status IN ?", models.ActiveStatuses).
		Where("date_time < ? AND date_time + (duration * interval '1 minute') > ?", to.UTC(), from.UTC()).
		Order("date_time ASC").
		Find(&appointments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list doctor appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) Update(ctx context.Context, appointment *models.Appointment, previous models.AppointmentStatus) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result := r.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("id = ? AND status = ?", appointment.ID, previous).
		Updates(map[string]interface{}{
			"status":              appointment.Status,
			"notes":               appointment.Notes,
			"cancellation_reason": appointment.CancellationReason,
			"confirmed_at":        appointment.ConfirmedAt,
			"completed_at":        appointment.CompletedAt,
			"cancelled_at":        appointment.CancelledAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update appointment: %w", result.Error)
	}
	// Cached copies are stale either way.
	dropCache(ctx, r.cache, []string{r.getAppointmentCacheKey(appointment.ID)})
	if result.RowsAffected == 0 {
		return ErrStale
	}
	return nil
}

func (r *appointmentRepository) getAppointmentCacheKey(id string) string {
	return fmt.Sprintf("appointment_cache:%s", id)
}
