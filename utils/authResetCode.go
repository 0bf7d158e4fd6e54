package utils

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"MediCore/cache"
)

const (
	// ResetCodeExpiry is how long a password reset code stays valid.
	ResetCodeExpiry = 15 * time.Minute
	// MaxResetAttempts is how many wrong codes an email may submit per
	// ResetCodeExpiry window. Reaching it discards the pending code.
	MaxResetAttempts = 5
)

// GenerateResetCode generates a random 6-digit reset code.
func GenerateResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("failed to generate reset code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// ResetCodeStore keeps pending reset codes in the cache, keyed by email.
type ResetCodeStore struct {
	store cache.Store
	ttl   time.Duration
}

func NewResetCodeStore(store cache.Store) *ResetCodeStore {
	if store == nil {
		panic("utils: NewResetCodeStore requires a cache store")
	}
	return &ResetCodeStore{store: store, ttl: ResetCodeExpiry}
}

func resetCodeKey(email string) string {
	return "reset_code:" + strings.ToLower(strings.TrimSpace(email))
}

// The counter survives reissued codes so requesting a new code does not
// grant new guesses.
func resetAttemptsKey(email string) string {
	return "reset_code_attempts:" + strings.ToLower(strings.TrimSpace(email))
}

// Set stores code for email, replacing any previous code.
func (s *ResetCodeStore) Set(ctx context.Context, email, code string) error {
	return s.store.Set(ctx, resetCodeKey(email), code, s.ttl)
}

// Verify reports whether code matches the pending code for email. Every
// wrong code counts as a failed attempt; once MaxResetAttempts is reached the
// pending code is dropped and Verify refuses until the counter expires.
func (s *ResetCodeStore) Verify(ctx context.Context, email, code string) (bool, error) {
	attemptsKey := resetAttemptsKey(email)
	raw, err := s.store.Get(ctx, attemptsKey)
	if err != nil {
		return false, err
	}
	if n, _ := strconv.Atoi(raw); n >= MaxResetAttempts {
		return false, s.store.Delete(ctx, resetCodeKey(email))
	}

	stored, err := s.store.Get(ctx, resetCodeKey(email))
	if err != nil {
		return false, err
	}
	if stored == "" {
		return false, nil
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) == 1 {
		return true, nil
	}

	attempts, err := s.store.Incr(ctx, attemptsKey, s.ttl)
	if err != nil {
		return false, err
	}
	if attempts >= MaxResetAttempts {
		return false, s.store.Delete(ctx, resetCodeKey(email))
	}
	return false, nil
}

// Delete drops the pending code for email and its failed attempts.
func (s *ResetCodeStore) Delete(ctx context.Context, email string) error {
	return s.store.Delete(ctx, resetCodeKey(email), resetAttemptsKey(email))
}
