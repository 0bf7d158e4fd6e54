package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/o1egl/paseto"
)

const (
	AccessTokenExpiry  = 24 * time.Hour
	RefreshTokenExpiry = 7 * 24 * time.Hour
)

// Token kinds carried in the claims so a refresh token cannot be replayed as
// an access token.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var (
	ErrTokenExpired            = errors.New("token expired")
	ErrTokenWrongType          = errors.New("wrong token type")
	ErrInsufficientPermissions = errors.New("insufficient permissions")
)

// TokenClaims struct represents the data in the token.
type TokenClaims struct {
	UserID string    `json:"userId"`
	Role   string    `json:"role"`
	Type   string    `json:"type"`
	Expiry time.Time `json:"expiry"`
}

// TokenManager issues and validates PASETO v2 local tokens.
type TokenManager struct {
	key []byte
	now func() time.Time
}

// NewTokenManager requires a 32 byte symmetric key.
func NewTokenManager(symmetricKey string) (*TokenManager, error) {
	if len(symmetricKey) != 32 {
		return nil, fmt.Errorf("symmetric key must be 32 bytes long, got %d", len(symmetricKey))
	}
	return &TokenManager{key: []byte(symmetricKey), now: time.Now}, nil
}

// WithClock replaces the time source.
func (m *TokenManager) WithClock(now func() time.Time) *TokenManager {
	m.now = now
	return m
}

// GenerateTokens generates both the access token and refresh token for the given user ID and role.
func (m *TokenManager) GenerateTokens(userID, role string) (accessToken, refreshToken string, err error) {
	accessToken, err = m.generate(userID, role, TokenTypeAccess, AccessTokenExpiry)
	if err != nil {
		return "", "", err
	}
	refreshToken, err = m.generate(userID, role, TokenTypeRefresh, RefreshTokenExpiry)
	if err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

// GenerateAccessToken generates only the access token for a user.
func (m *TokenManager) GenerateAccessToken(userID, role string) (string, error) {
	return m.generate(userID, role, TokenTypeAccess, AccessTokenExpiry)
}

func (m *TokenManager) generate(userID, role, kind string, expiry time.Duration) (string, error) {
	claims := TokenClaims{
		UserID: userID,
		Role:   role,
		Type:   kind,
		Expiry: m.now().Add(expiry),
	}
	token, err := paseto.NewV2().Encrypt(m.key, claims, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return token, nil
}

// ValidateAccessToken checks an access token and, when roles are given, that
// the holder has one of them.
func (m *TokenManager) ValidateAccessToken(token string, requiredRoles ...string) (*TokenClaims, error) {
	return m.validate(token, TokenTypeAccess, requiredRoles...)
}

// ValidateRefreshToken checks a refresh token.
func (m *TokenManager) ValidateRefreshToken(token string) (*TokenClaims, error) {
	return m.validate(token, TokenTypeRefresh)
}

func (m *TokenManager) validate(token, kind string, requiredRoles ...string) (*TokenClaims, error) {
	var claims TokenClaims
	if err := paseto.NewV2().Decrypt(token, m.key, &claims, nil); err != nil {
		return nil, fmt.Errorf("failed to decrypt token: %w", err)
	}
	if m.now().After(claims.Expiry) {
		return nil, ErrTokenExpired
	}
	if claims.Type != kind {
		return nil, ErrTokenWrongType
	}
	if len(requiredRoles) == 0 {
		return &claims, nil
	}
	for _, role := range requiredRoles {
		if claims.Role == role {
			return &claims, nil
		}
	}
	return nil, ErrInsufficientPermissions
}
