package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/storefront-service/internal/auth"
	"github.com/spec-kit/storefront-service/internal/cache"
	"github.com/spec-kit/storefront-service/internal/config"
	"github.com/spec-kit/storefront-service/internal/domain"
	"github.com/spec-kit/storefront-service/internal/notify"
	"github.com/spec-kit/storefront-service/internal/repository"
)

// SignupInput carries the fields accepted on shopper registration.
type SignupInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

// AuthResult is returned by flows that end in a session.
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

// AuthService coordinates registration, OTP verification and login flows.
type AuthService struct {
	users          repository.UserRepository
	otp            *OTPService
	tokenMgr       *auth.TokenManager
	mailer         notify.Mailer
	cooldown       cache.Cooldown
	logger         *zap.Logger
	bcryptCost     int
	resendCooldown time.Duration
	// compared against when the email is unknown so both signin failures cost one bcrypt run
	dummyHash string
}

// AuthDependencies encapsulates collaborators for auth service.
type AuthDependencies struct {
	UserRepo repository.UserRepository
	Mailer   notify.Mailer
	Cooldown cache.Cooldown
	Logger   *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, tokens *auth.TokenManager, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cooldown := deps.Cooldown
	if cooldown == nil {
		cooldown = cache.NewMemoryCooldown()
	}
	dummyHash, _ := auth.HashPassword("storefront-unknown-account", cfg.Auth.BcryptCost)
	return &AuthService{
		users:          deps.UserRepo,
		otp:            NewOTPService(deps.UserRepo, cfg.Auth.OTPTTL()),
		tokenMgr:       tokens,
		mailer:         deps.Mailer,
		cooldown:       cooldown,
		logger:         logger,
		bcryptCost:     cfg.Auth.BcryptCost,
		resendCooldown: cfg.Auth.OTPResendCooldown(),
		dummyHash:      dummyHash,
	}
}

// OTP exposes the underlying OTP service.
func (s *AuthService) OTP() *OTPService {
	return s.otp
}

// SignupUser creates a shopper account and mails its first OTP.
// When delivery fails the stored user is returned together with ErrOTPDelivery.
func (s *AuthService) SignupUser(ctx context.Context, in SignupInput) (*domain.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = NormalizeEmail(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)

	var missing []string
	if in.Name == "" {
		missing = append(missing, "name")
	}
	if in.Email == "" {
		missing = append(missing, "email")
	}
	if in.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return nil, missingFields(missing...)
	}
	if !strings.Contains(in.Email, "@") {
		return nil, invalidField("email", "invalid email address")
	}

	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return nil, ErrDuplicateEmail
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
	}
	if in.Phone != "" {
		phone := in.Phone
		user.Phone = &phone
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}

	if err := s.issueAndSend(ctx, user); err != nil {
		return user, err
	}
	// Signup counts as the first send for the resend cooldown.
	if _, err := s.cooldown.Acquire(ctx, cooldownKey(user.Email), s.resendCooldown); err != nil {
		s.logger.Warn("otp cooldown unavailable", zap.Error(err))
	}
	return user, nil
}

// VerifyOTP consumes the pending code of the account and opens a session.
func (s *AuthService) VerifyOTP(ctx context.Context, email, code string) (*AuthResult, error) {
	email = NormalizeEmail(email)
	var missing []string
	if email == "" {
		missing = append(missing, "email")
	}
	if code == "" {
		missing = append(missing, "otp")
	}
	if len(missing) > 0 {
		return nil, missingFields(missing...)
	}

	user, err := s.lookup(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := s.otp.Verify(ctx, user.ID, code); err != nil {
		return nil, err
	}
	if err := s.users.MarkVerified(ctx, user.ID); err != nil {
		return nil, err
	}
	user.IsVerified = true
	user.OTPCode = nil
	user.OTPExpires = nil

	return s.session(user)
}

// SigninUser checks the password and opens a session. It does not require a verified account.
func (s *AuthService) SigninUser(ctx context.Context, email, password string) (*AuthResult, error) {
	email = NormalizeEmail(email)
	var missing []string
	if email == "" {
		missing = append(missing, "email")
	}
	if password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return nil, missingFields(missing...)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			auth.CheckPassword(s.dummyHash, password)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return s.session(user)
}

// ResendOTP reissues and mails a code, at most once per cooldown window per address.
func (s *AuthService) ResendOTP(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	if email == "" {
		return missingFields("email")
	}

	user, err := s.lookup(ctx, email)
	if err != nil {
		return err
	}

	ok, err := s.cooldown.Acquire(ctx, cooldownKey(email), s.resendCooldown)
	if err != nil {
		s.logger.Warn("otp cooldown unavailable", zap.Error(err))
	} else if !ok {
		return ErrTooManyRequests
	}
	return s.issueAndSend(ctx, user)
}

func (s *AuthService) lookup(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	return user, err
}

// issueAndSend commits the new code before mailing it.
func (s *AuthService) issueAndSend(ctx context.Context, user *domain.User) error {
	code, expiresAt, err := s.otp.Issue(ctx, user.ID)
	if err != nil {
		return err
	}
	user.OTPCode = &code
	user.OTPExpires = &expiresAt

	body, err := notify.RenderOTPEmail(code, s.otp.TTL())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOTPDelivery, err)
	}
	if err := s.mailer.Send(ctx, user.Email, notify.OTPSubject, body); err != nil {
		s.logger.Error("otp delivery failed", zap.String("user_id", user.ID), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrOTPDelivery, err)
	}
	return nil
}

func (s *AuthService) session(user *domain.User) (*AuthResult, error) {
	token, exp, err := s.tokenMgr.GenerateToken(domain.Subject{
		ID:    user.ID,
		Email: user.Email,
		Type:  domain.SubjectTypeUser,
		Role:  domain.RoleUser,
	})
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, ExpiresAt: exp, User: user}, nil
}

// NormalizeEmail trims and lowercases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func cooldownKey(email string) string {
	return "otp:" + email
}
