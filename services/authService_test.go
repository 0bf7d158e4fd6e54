package services_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"MediCore/apperrors"
	"MediCore/cache"
	"MediCore/models"
	"MediCore/services"
	"MediCore/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSymmetricKey = "0123456789abcdef0123456789abcdef"

type authFixture struct {
	users   *MockUserRepository
	mailer  *MockMailer
	codes   *utils.ResetCodeStore
	tokens  *utils.TokenManager
	service services.AuthService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	tokens, err := utils.NewTokenManager(testSymmetricKey)
	require.NoError(t, err)

	f := &authFixture{
		users:  new(MockUserRepository),
		mailer: new(MockMailer),
		codes:  utils.NewResetCodeStore(cache.NewMemory()),
		tokens: tokens,
	}
	f.service = services.NewAuthService(f.users, f.tokens, f.codes, f.mailer)
	return f
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	h, err := utils.HashPassword(password)
	require.NoError(t, err)
	return h
}

func TestAuthService_RequestPasswordReset(t *testing.T) {
	t.Run("same answer for known and unknown emails", func(t *testing.T) {
		f := newAuthFixture(t)
		user := &models.User{ID: "user-1", Email: "jane@example.com"}
		f.users.On("GetUserByEmail", mock.Anything, "jane@example.com").Return(user, nil)
		f.users.On("GetUserByEmail", mock.Anything, "nobody@example.com").Return(nil, nil)
		f.mailer.On("SendResetCode", mock.Anything, "jane@example.com", mock.AnythingOfType("string")).Return(nil)

		known, err := f.service.RequestPasswordReset(context.Background(), "Jane@Example.com")
		require.NoError(t, err)
		unknown, err := f.service.RequestPasswordReset(context.Background(), "nobody@example.com")
		require.NoError(t, err)

		assert.Equal(t, known, unknown)
		assert.Equal(t, services.PasswordResetRequestedMessage, known)
		f.mailer.AssertNumberOfCalls(t, "SendResetCode", 1)
	})

	t.Run("send failure is not surfaced", func(t *testing.T) {
		f := newAuthFixture(t)
		f.users.On("GetUserByEmail", mock.Anything, "jane@example.com").Return(&models.User{ID: "user-1", Email: "jane@example.com"}, nil)
		f.mailer.On("SendResetCode", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp down"))

		msg, err := f.service.RequestPasswordReset(context.Background(), "jane@example.com")
		require.NoError(t, err)
		assert.Equal(t, services.PasswordResetRequestedMessage, msg)
	})

	t.Run("repository failure is not surfaced", func(t *testing.T) {
		f := newAuthFixture(t)
		f.users.On("GetUserByEmail", mock.Anything, "jane@example.com").Return(nil, errors.New("db down"))

		msg, err := f.service.RequestPasswordReset(context.Background(), "jane@example.com")
		require.NoError(t, err)
		assert.Equal(t, services.PasswordResetRequestedMessage, msg)
	})

	t.Run("malformed email is a validation error", func(t *testing.T) {
		f := newAuthFixture(t)
		_, err := f.service.RequestPasswordReset(context.Background(), "not-an-email")
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("concurrent requests are collapsed while in flight", func(t *testing.T) {
		f := newAuthFixture(t)
		started := make(chan struct{}, 10)
		release := make(chan struct{})
		f.users.On("GetUserByEmail", mock.Anything, "jane@example.com").Return(&models.User{ID: "user-1", Email: "jane@example.com"}, nil)
		f.mailer.On("SendResetCode", mock.Anything, "jane@example.com", mock.Anything).
			Run(func(mock.Arguments) {
				started <- struct{}{}
				<-release
			}).
			Return(nil)

		var wg sync.WaitGroup
		results := make([]string, 2)
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[0], _ = f.service.RequestPasswordReset(context.Background(), "jane@example.com")
		}()
		<-started

		wg.Add(1)
		go func() {
			defer wg.Done()
			results[1], _ = f.service.RequestPasswordReset(context.Background(), "jane@example.com")
		}()
		time.Sleep(50 * time.Millisecond)
		close(release)
		wg.Wait()

		assert.Equal(t, results[0], results[1])
		f.mailer.AssertNumberOfCalls(t, "SendResetCode", 1)

		_, err := f.service.RequestPasswordReset(context.Background(), "jane@example.com")
		require.NoError(t, err)
		f.mailer.AssertNumberOfCalls(t, "SendResetCode", 2)
	})
}

func TestAuthService_ConfirmPasswordReset(t *testing.T) {
	ctx := context.Background()

	t.Run("valid code updates password once", func(t *testing.T) {
		f := newAuthFixture(t)
		require.NoError(t, f.codes.Set(ctx, "jane@example.com", "123456"))
		f.users.On("GetUserByEmail", mock.Anything, "jane@example.com").Return(&models.User{ID: "user-1", Email: "jane@example.com"}, nil)
		f.users.On("UpdateUserPassword", mock.Anything, "user-1", mock.MatchedBy(func(hash string) bool {
			return utils.CheckPassword(hash, "N3w!Password")
		})).Return(nil).Once()

		require.NoError(t, f.service.ConfirmPasswordReset(ctx, "jane@example.com", "123456", "N3w!Password"))

		err := f.service.ConfirmPasswordReset(ctx, "jane@example.com", "123456", "N3w!Password")
		assert.ErrorIs(t, err, apperrors.ErrValidation)
		assert.Equal(t, "invalid or expired reset code", apperrors.PublicMessage(err))
		f.users.AssertExpectations(t)
	})

	t.Run("wrong code and unknown email look the same", func(t *testing.T) {
		f := newAuthFixture(t)
		require.NoError(t, f.codes.Set(ctx, "jane@example.com", "123456"))

		wrong := f.service.ConfirmPasswordReset(ctx, "jane@example.com", "654321", "N3w!Password")
		unknown := f.service.ConfirmPasswordReset(ctx, "nobody@example.com", "123456", "N3w!Password")
		malformed := f.service.ConfirmPasswordReset(ctx, "jane@example.com", "12", "N3w!Password")

		assert.Equal(t, apperrors.PublicMessage(wrong), apperrors.PublicMessage(unknown))
		assert.Equal(t, apperrors.PublicMessage(wrong), apperrors.PublicMessage(malformed))
		f.users.AssertNotCalled(t, "UpdateUserPassword", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("correct code refused after too many wrong ones", func(t *testing.T) {
		f := newAuthFixture(t)
		require.NoError(t, f.codes.Set(ctx, "jane@example.com", "004999"))

		for i := 0; i < utils.MaxResetAttempts; i++ {
			err := f.service.ConfirmPasswordReset(ctx, "jane@example.com", fmt.Sprintf("%06d", i), "N3w!Password")
			require.ErrorIs(t, err, apperrors.ErrValidation)
		}

		err := f.service.ConfirmPasswordReset(ctx, "jane@example.com", "004999", "N3w!Password")
		assert.ErrorIs(t, err, apperrors.ErrValidation)
		assert.Equal(t, "invalid or expired reset code", apperrors.PublicMessage(err))
		f.users.AssertNotCalled(t, "UpdateUserPassword", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("weak password is rejected", func(t *testing.T) {
		f := newAuthFixture(t)
		err := f.service.ConfirmPasswordReset(ctx, "jane@example.com", "123456", "weak")
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	user := &models.User{
		ID:       "user-1",
		Email:    "jane@example.com",
		Password: hashed(t, "Str0ng!Pass"),
		Role:     models.Role{Name: models.RoleDoctor},
	}
	f.users.On("GetUserByEmail", mock.Anything, "jane@example.com").Return(user, nil)
	f.users.On("GetUserByEmail", mock.Anything, "nobody@example.com").Return(nil, nil)
	f.users.On("GetUserByID", mock.Anything, "user-1").Return(user, nil)

	result, err := f.service.Login(ctx, "jane@example.com", "Str0ng!Pass")
	require.NoError(t, err)
	assert.Empty(t, result.User.Password)

	claims, err := f.tokens.ValidateAccessToken(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "DOCTOR", claims.Role)

	refreshed, err := f.service.RefreshToken(ctx, result.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	_, err = f.service.RefreshToken(ctx, result.AccessToken)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	_, err = f.service.Login(ctx, "jane@example.com", "wrong")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	_, err = f.service.Login(ctx, "nobody@example.com", "Str0ng!Pass")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("public registration always creates patients", func(t *testing.T) {
		f := newAuthFixture(t)
		role := &models.Role{ID: 3, Name: models.RolePatient}
		f.users.On("EmailExists", mock.Anything, "new@example.com").Return(false, nil)
		f.users.On("GetRoleByName", mock.Anything, models.RolePatient).Return(role, nil)
		f.users.On("CreateUser", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
			return u.RoleID == 3 && u.Email == "new@example.com" && utils.CheckPassword(u.Password, "Str0ng!Pass")
		})).Return(nil)

		user, err := f.service.Register(ctx, services.RegisterInput{
			Email:     " New@Example.com",
			Password:  "Str0ng!Pass",
			FirstName: "New",
			LastName:  "Patient",
			Role:      models.RoleAdmin,
		})
		require.NoError(t, err)
		assert.Equal(t, models.RolePatient, user.Role.Name)
		assert.Empty(t, user.Password)
		f.users.AssertExpectations(t)
	})

	t.Run("duplicate email", func(t *testing.T) {
		f := newAuthFixture(t)
		f.users.On("EmailExists", mock.Anything, "jane@example.com").Return(true, nil)

		_, err := f.service.Register(ctx, services.RegisterInput{
			Email: "jane@example.com", Password: "Str0ng!Pass", FirstName: "Jane", LastName: "Doe",
		})
		assert.ErrorIs(t, err, apperrors.ErrConflict)
	})

	t.Run("weak password", func(t *testing.T) {
		f := newAuthFixture(t)
		_, err := f.service.Register(ctx, services.RegisterInput{
			Email: "jane@example.com", Password: "password", FirstName: "Jane", LastName: "Doe",
		})
		assert.ErrorIs(t, err, apperrors.ErrValidation)
		f.users.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
	})
}

func TestAuthService_ChangePassword(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	profile := &models.User{ID: "user-1", Email: "jane@example.com"}
	withHash := &models.User{ID: "user-1", Email: "jane@example.com", Password: hashed(t, "Old!Passw0rd")}
	f.users.On("GetUserByID", mock.Anything, "user-1").Return(profile, nil)
	f.users.On("GetUserByEmail", mock.Anything, "jane@example.com").Return(withHash, nil)
	f.users.On("UpdateUserPassword", mock.Anything, "user-1", mock.Anything).Return(nil).Once()

	err := f.service.ChangePassword(ctx, "user-1", "wrong", "N3w!Password")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	require.NoError(t, f.service.ChangePassword(ctx, "user-1", "Old!Passw0rd", "N3w!Password"))
	f.users.AssertExpectations(t)
}

func TestNewAuthService_PanicsWithoutCollaborators(t *testing.T) {
	tokens, err := utils.NewTokenManager(testSymmetricKey)
	require.NoError(t, err)
	codes := utils.NewResetCodeStore(cache.NewMemory())

	assert.Panics(t, func() { services.NewAuthService(nil, tokens, codes, new(MockMailer)) })
	assert.Panics(t, func() { services.NewAuthService(new(MockUserRepository), nil, codes, new(MockMailer)) })
	assert.Panics(t, func() { services.NewAuthService(new(MockUserRepository), tokens, nil, new(MockMailer)) })
	assert.Panics(t, func() { services.NewAuthService(new(MockUserRepository), tokens, codes, nil) })
}
