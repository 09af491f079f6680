package service

import (
	"context"
	"errors"
	"time"

	"github.com/spec-kit/storefront-service/internal/auth"
	"github.com/spec-kit/storefront-service/internal/repository"
)

// DefaultOTPTTL is how long an issued code stays valid.
const DefaultOTPTTL = 10 * time.Minute

// OTPService issues and verifies one-time codes stored on the user row.
type OTPService struct {
	users    repository.UserRepository
	ttl      time.Duration
	now      func() time.Time
	generate func() (string, error)
}

// NewOTPService builds the service. A non-positive ttl selects DefaultOTPTTL.
func NewOTPService(users repository.UserRepository, ttl time.Duration) *OTPService {
	if ttl <= 0 {
		ttl = DefaultOTPTTL
	}
	return &OTPService{users: users, ttl: ttl, now: time.Now, generate: auth.GenerateOTP}
}

// TTL returns the validity window of issued codes.
func (s *OTPService) TTL() time.Duration {
	return s.ttl
}

// Issue generates a fresh code for the user, replacing any pending one.
func (s *OTPService) Issue(ctx context.Context, userID string) (string, time.Time, error) {
	code, err := s.generate()
	if err != nil {
		return "", time.Time{}, err
	}
	expiresAt := s.now().Add(s.ttl)
	if err := s.users.SetOTP(ctx, userID, code, expiresAt); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", time.Time{}, ErrNotFound
		}
		return "", time.Time{}, err
	}
	return code, expiresAt, nil
}

// Verify consumes the pending code when it matches and has not expired.
// A failed attempt leaves the pending code in place.
func (s *OTPService) Verify(ctx context.Context, userID, code string) error {
	err := s.users.ConsumeOTP(ctx, userID, func(stored *string, expires *time.Time) error {
		if stored == nil || expires == nil || *stored != code {
			return ErrOTPMismatch
		}
		if !s.now().Before(*expires) {
			return ErrOTPExpired
		}
		return nil
	})
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
