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
	UserCacheExpiry = 7 * 24 * time.Hour
	queryTimeout    = 5 * time.Second
	listCacheExpiry = 10 * time.Minute
)

// ErrDuplicate is returned when a unique constraint rejects a write.
var ErrDuplicate = errors.New("duplicate record")

// ErrNotFound is returned by writes that matched no row.
var ErrNotFound = errors.New("record not found")

// ErrStale is returned when a guarded write finds the row changed since it was read.
var ErrStale = errors.New("record changed concurrently")

// appointmentCachePattern matches cached appointments, which embed patient,
// doctor and user records.
const appointmentCachePattern = "appointment_cache:*"

// dropCache removes keys and key patterns after a committed write. The write
// already succeeded, so failures are logged and the entries left to expire.
func dropCache(ctx context.Context, store cache.Store, keys []string, patterns ...string) {
	log := logging.FromContext(ctx)
	if len(keys) > 0 {
		if err := store.Delete(ctx, keys...); err != nil {
			log.Warn().Err(err).Strs("keys", keys).Msg("failed to invalidate cache")
		}
	}
	for _, pattern := range patterns {
		if err := store.DeleteAll(ctx, pattern); err != nil {
			log.Warn().Err(err).Str("pattern", pattern).Msg("failed to invalidate cache")
		}
	}
}

// cachedPage is the cache representation of one listing page.
type cachedPage[T any] struct {
	Rows  []T   `json:"rows"`
	Total int64 `json:"total"`
}

type UserRepository interface {
	EmailExists(ctx context.Context, email string) (bool, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	GetRoleByName(ctx context.Context, name models.RoleName) (*models.Role, error)
	UpdateUserPassword(ctx context.Context, userID, hashedPassword string) error
	UpdateUserProfile(ctx context.Context, userID, firstName, lastName string) error
	ListUsers(ctx context.Context, page models.PageRequest) ([]models.User, int64, error)
	GetUserPermissions(ctx context.Context, userID string) ([]models.Permission, error)
}

type userRepository struct {
	db    *gorm.DB
	cache cache.Store
}

func NewUserRepository(db *gorm.DB, cache cache.Store) UserRepository {
	return &userRepository{db: db, cache: cache}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *userRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", normalizeEmail(email)).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}
	return count > 0, nil
}

// GetUserByEmail loads the user with its password hash. It never reads the
// cache because cached users carry no hash.
func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var user models.User
	err := r.db.WithContext(ctx).
		Preload("Role").
		Where("email = ?", normalizeEmail(email)).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

func (r *userRepository) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	cacheKey := r.getUserCacheKey(userID)
	var cached models.User
	if err := cache.GetJSON(ctx, r.cache, cacheKey, &cached); err == nil {
		return &cached, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		logging.FromContext(ctx).Warn().Err(err).Str("key", cacheKey).Msg("failed to get user from cache")
	}

	var user models.User
	err := r.db.WithContext(ctx).
		Preload("Role").
		First(&user, "id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := cache.SetJSON(ctx, r.cache, cacheKey, user, UserCacheExpiry); err != nil {
		logging.FromContext(ctx).Warn().Err(err).Str("key", cacheKey).Msg("failed to set user in cache")
	}
	return &user, nil
}

func (r *userRepository) CreateUser(ctx context.Context, user *models.User) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	user.Email = normalizeEmail(user.Email)
	if err := r.db.WithContext(ctx).Omit("Role").Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	dropCache(ctx, r.cache, nil, "users_cache:*")
	return nil
}

func (r *userRepository) GetRoleByName(ctx context.Context, name models.RoleName) (*models.Role, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var role models.Role
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get role: %w", err)
	}
	return &role, nil
}

func (r *userRepository) UpdateUserPassword(ctx context.Context, userID, hashedPassword string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("password", hashedPassword).Error; err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	dropCache(ctx, r.cache, []string{r.getUserCacheKey(userID)})
	return nil
}

func (r *userRepository) UpdateUserProfile(ctx context.Context, userID, firstName, lastName string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"first_name": firstName,
		"last_name":  lastName,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	// Names are embedded in cached patients, doctors and appointments too.
	dropCache(ctx, r.cache, []string{r.getUserCacheKey(userID)},
		"users_cache:*", "patient_cache:*", "patients_cache:*", "doctor_cache:*", "doctors_cache:*", appointmentCachePattern)
	return nil
}

func (r *userRepository) ListUsers(ctx context.Context, page models.PageRequest) ([]models.User, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	page = page.Normalize()
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	var users []models.User
	err := r.db.WithContext(ctx).
		Preload("Role").
		Order("created_at DESC").
		Offset(page.Offset()).
		Limit(page.PageSize).
		Find(&users).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

func (r *userRepository) GetUserPermissions(ctx context.Context, userID string) ([]models.Permission, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var permissions []models.Permission
	err := r.db.WithContext(ctx).
		Joins("JOIN role_permissions rp ON permissions.id = rp.permission_id").
		Joins("JOIN users u ON u.role_id = rp.role_id").
		Where("u.id = ?", userID).
		Find(&permissions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get permissions: %w", err)
	}
	return permissions, nil
}

func (r *userRepository) getUserCacheKey(identifier string) string {
	return fmt.Sprintf("user_cache:%s", identifier)
}
