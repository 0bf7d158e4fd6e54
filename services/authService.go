package services

import (
	"context"
	"errors"
	"strings"

	"MediCore/apperrors"
	"MediCore/logging"
	"MediCore/models"
	"MediCore/repositories"
	"MediCore/utils"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"golang.org/x/sync/singleflight"
)

// PasswordResetRequestedMessage is returned for every reset request,
// whether or not the email belongs to an account.
const PasswordResetRequestedMessage = "If an account exists for that email, a reset code has been sent."

var errInvalidResetCode = apperrors.NewValidationError("invalid or expired reset code", nil)

type RegisterInput struct {
	Email     string          `json:"email"`
	Password  string          `json:"password"`
	FirstName string          `json:"firstName"`
	LastName  string          `json:"lastName"`
	Role      models.RoleName `json:"role"`
}

func (i RegisterInput) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.Email, utils.EmailRules...),
		validation.Field(&i.Password, validation.Required, utils.PasswordRule),
		validation.Field(&i.FirstName, validation.Required, validation.Length(1, 100)),
		validation.Field(&i.LastName, validation.Required, validation.Length(1, 100)),
		validation.Field(&i.Role, validation.By(func(value interface{}) error {
			role, _ := value.(models.RoleName)
			if role != "" && !role.IsValid() {
				return errors.New("must be one of ADMIN, DOCTOR, PATIENT, NURSE")
			}
			return nil
		})),
	)
}

type UpdateProfileInput struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (i UpdateProfileInput) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.FirstName, validation.Required, validation.Length(1, 100)),
		validation.Field(&i.LastName, validation.Required, validation.Length(1, 100)),
	)
}

// AuthResult is a successful login or token refresh.
type AuthResult struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

type AuthService interface {
	// Register creates a PATIENT account.
	Register(ctx context.Context, input RegisterInput) (*models.User, error)
	// CreateUser creates an account with any role.
	CreateUser(ctx context.Context, input RegisterInput) (*models.User, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	RefreshToken(ctx context.Context, refreshToken string) (*AuthResult, error)
	GetProfile(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*models.User, error)
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error
	RequestPasswordReset(ctx context.Context, email string) (string, error)
	ConfirmPasswordReset(ctx context.Context, email, code, newPassword string) error
	ListUsers(ctx context.Context, page models.PageRequest) (models.PaginatedResponse[models.User], error)
	GetUserPermissions(ctx context.Context, userID string) ([]models.Permission, error)
}

type authService struct {
	userRepo   repositories.UserRepository
	tokens     *utils.TokenManager
	resetCodes *utils.ResetCodeStore
	mailer     utils.Mailer
	resets     singleflight.Group
}

func NewAuthService(userRepo repositories.UserRepository, tokens *utils.TokenManager, resetCodes *utils.ResetCodeStore, mailer utils.Mailer) AuthService {
	if userRepo == nil {
		panic("services: NewAuthService requires a user repository")
	}
	if tokens == nil {
		panic("services: NewAuthService requires a token manager")
	}
	if resetCodes == nil {
		panic("services: NewAuthService requires a reset code store")
	}
	if mailer == nil {
		panic("services: NewAuthService requires a mailer")
	}
	return &authService{userRepo: userRepo, tokens: tokens, resetCodes: resetCodes, mailer: mailer}
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	input.Role = models.RolePatient
	return s.CreateUser(ctx, input)
}

func (s *authService) CreateUser(ctx context.Context, input RegisterInput) (*models.User, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if input.Role == "" {
		input.Role = models.RolePatient
	}
	if err := input.Validate(); err != nil {
		return nil, apperrors.NewValidationError("invalid registration", err)
	}

	exists, err := s.userRepo.EmailExists(ctx, input.Email)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to check email", err)
	}
	if exists {
		return nil, apperrors.NewConflictError("email already registered")
	}

	role, err := s.userRepo.GetRoleByName(ctx, input.Role)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load role", err)
	}
	if role == nil {
		return nil, apperrors.NewValidationError("unknown role "+string(input.Role), nil)
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to hash password", err)
	}

	user := &models.User{
		Email:     input.Email,
		Password:  hashed,
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		RoleID:    role.ID,
	}
	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, apperrors.NewConflictError("email already registered")
		}
		return nil, apperrors.NewInternalError("failed to create user", err)
	}
	user.Role = *role
	user.Password = ""

	logging.FromContext(ctx).Info().Str("user_id", user.ID).Str("role", string(role.Name)).Msg("user registered")
	return user, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	invalid := apperrors.NewUnauthorizedError("invalid email or password")

	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load user", err)
	}
	if user == nil {
		utils.BurnPasswordCheck(password)
		return nil, invalid
	}
	if !utils.CheckPassword(user.Password, password) {
		return nil, invalid
	}
	return s.issue(user)
}

func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*AuthResult, error) {
	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperrors.NewUnauthorizedError("invalid refresh token")
	}
	user, err := s.userRepo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load user", err)
	}
	if user == nil {
		return nil, apperrors.NewUnauthorizedError("invalid refresh token")
	}
	return s.issue(user)
}

func (s *authService) issue(user *models.User) (*AuthResult, error) {
	access, refresh, err := s.tokens.GenerateTokens(user.ID, string(user.Role.Name))
	if err != nil {
		return nil, apperrors.NewInternalError("failed to generate tokens", err)
	}
	safe := *user
	safe.Password = ""
	return &AuthResult{User: &safe, AccessToken: access, RefreshToken: refresh}, nil
}

func (s *authService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load user", err)
	}
	if user == nil {
		return nil, apperrors.NewNotFoundError("user not found")
	}
	return user, nil
}

func (s *authService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*models.User, error) {
	if err := input.Validate(); err != nil {
		return nil, apperrors.NewValidationError("invalid profile", err)
	}
	if _, err := s.GetProfile(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.userRepo.UpdateUserProfile(ctx, userID, strings.TrimSpace(input.FirstName), strings.TrimSpace(input.LastName)); err != nil {
		return nil, apperrors.NewInternalError("failed to update profile", err)
	}
	return s.GetProfile(ctx, userID)
}

func (s *authService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if err := validation.Validate(newPassword, validation.Required, utils.PasswordRule); err != nil {
		return apperrors.NewValidationError("invalid new password", err)
	}

	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		return err
	}
	// the cached profile carries no hash
	user, err := s.userRepo.GetUserByEmail(ctx, profile.Email)
	if err != nil {
		return apperrors.NewInternalError("failed to load user", err)
	}
	if user == nil || !utils.CheckPassword(user.Password, currentPassword) {
		return apperrors.NewUnauthorizedError("current password is incorrect")
	}

	hashed, err := utils.HashPassword(newPassword)
	if err != nil {
		return apperrors.NewInternalError("failed to hash password", err)
	}
	if err := s.userRepo.UpdateUserPassword(ctx, userID, hashed); err != nil {
		return apperrors.NewInternalError("failed to update password", err)
	}
	return nil
}

// RequestPasswordReset issues a reset code when the email belongs to an
// account. The returned message never reveals whether it does. Concurrent
// requests for one email share a single in-flight send.
func (s *authService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := utils.ValidateEmail(email); err != nil {
		return "", apperrors.NewValidationError("invalid email", err)
	}

	detached := context.WithoutCancel(ctx)
	s.resets.Do(email, func() (interface{}, error) {
		s.sendResetCode(detached, email)
		return nil, nil
	})
	return PasswordResetRequestedMessage, nil
}

func (s *authService) sendResetCode(ctx context.Context, email string) {
	log := logging.FromContext(ctx)

	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		log.Error().Err(err).Msg("password reset: failed to load user")
		return
	}
	if user == nil {
		log.Info().Msg("password reset requested for unknown email")
		return
	}

	code, err := utils.GenerateResetCode()
	if err != nil {
		log.Error().Err(err).Msg("password reset: failed to generate code")
		return
	}
	if err := s.resetCodes.Set(ctx, email, code); err != nil {
		log.Error().Err(err).Msg("password reset: failed to store code")
		return
	}
	if err := s.mailer.SendResetCode(ctx, user.Email, code); err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("password reset: failed to send email")
		return
	}
	log.Info().Str("user_id", user.ID).Msg("password reset code sent")
}

func (s *authService) ConfirmPasswordReset(ctx context.Context, email, code, newPassword string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := utils.ValidateEmail(email); err != nil {
		return errInvalidResetCode
	}
	if err := validation.Validate(code, validation.Required, utils.ResetCodeRule); err != nil {
		return errInvalidResetCode
	}
	if err := validation.Validate(newPassword, validation.Required, utils.PasswordRule); err != nil {
		return apperrors.NewValidationError("invalid new password", err)
	}

	ok, err := s.resetCodes.Verify(ctx, email, code)
	if err != nil {
		return apperrors.NewInternalError("failed to verify reset code", err)
	}
	if !ok {
		return errInvalidResetCode
	}

	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return apperrors.NewInternalError("failed to load user", err)
	}
	if user == nil {
		_ = s.resetCodes.Delete(ctx, email)
		return errInvalidResetCode
	}

	hashed, err := utils.HashPassword(newPassword)
	if err != nil {
		return apperrors.NewInternalError("failed to hash password", err)
	}
	if err := s.userRepo.UpdateUserPassword(ctx, user.ID, hashed); err != nil {
		return apperrors.NewInternalError("failed to update password", err)
	}
	if err := s.resetCodes.Delete(ctx, email); err != nil {
		logging.FromContext(ctx).Warn().Err(err).Msg("failed to delete used reset code")
	}

	logging.FromContext(ctx).Info().Str("user_id", user.ID).Msg("password reset completed")
	return nil
}

func (s *authService) ListUsers(ctx context.Context, page models.PageRequest) (models.PaginatedResponse[models.User], error) {
	users, total, err := s.userRepo.ListUsers(ctx, page)
	if err != nil {
		return models.PaginatedResponse[models.User]{}, apperrors.NewInternalError("failed to list users", err)
	}
	return models.NewPaginatedResponse(users, total, page), nil
}

func (s *authService) GetUserPermissions(ctx context.Context, userID string) ([]models.Permission, error) {
	permissions, err := s.userRepo.GetUserPermissions(ctx, userID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load permissions", err)
	}
	return permissions, nil
}
