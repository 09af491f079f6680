package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/storefront-service/internal/auth"
	"github.com/spec-kit/storefront-service/internal/config"
	"github.com/spec-kit/storefront-service/internal/domain"
	"github.com/spec-kit/storefront-service/internal/repository"
)

// CreateAdminInput carries the fields for a new back-office account.
type CreateAdminInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
	Role     domain.Role
}

// UpdateAdminInput carries the editable profile fields. All are required.
type UpdateAdminInput struct {
	Name  string
	Email string
	Phone string
}

// AdminAuthResult is returned by SigninAdmin.
type AdminAuthResult struct {
	Token     string
	ExpiresAt time.Time
	Admin     *domain.Admin
}

// AdminService manages back-office accounts.
type AdminService struct {
	admins     repository.AdminRepository
	tokenMgr   *auth.TokenManager
	logger     *zap.Logger
	bcryptCost int
	dummyHash  string
}

// NewAdminService builds the service.
func NewAdminService(cfg config.Config, tokens *auth.TokenManager, admins repository.AdminRepository, logger *zap.Logger) *AdminService {
	if logger == nil {
		logger = zap.NewNop()
	}
	dummyHash, _ := auth.HashPassword("storefront-unknown-admin", cfg.Auth.BcryptCost)
	return &AdminService{
		admins:     admins,
		tokenMgr:   tokens,
		logger:     logger,
		bcryptCost: cfg.Auth.BcryptCost,
		dummyHash:  dummyHash,
	}
}

// SigninAdmin authenticates an admin and issues a role-bearing token.
func (s *AdminService) SigninAdmin(ctx context.Context, email, password string) (*AdminAuthResult, error) {
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

	admin, err := s.admins.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			auth.CheckPassword(s.dummyHash, password)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPassword(admin.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	token, exp, err := s.tokenMgr.GenerateToken(domain.Subject{
		ID:    admin.ID,
		Email: admin.Email,
		Type:  domain.SubjectTypeAdmin,
		Role:  admin.Role,
	})
	if err != nil {
		return nil, err
	}
	return &AdminAuthResult{Token: token, ExpiresAt: exp, Admin: admin}, nil
}

// CreateAdmin stores a new admin. Only a SUPERADMIN caller may create accounts.
func (s *AdminService) CreateAdmin(ctx context.Context, caller domain.Subject, in CreateAdminInput) (*domain.Admin, error) {
	if !isSuperAdmin(caller) {
		return nil, ErrForbidden
	}

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
	if in.Role == "" {
		in.Role = domain.RoleAdmin
	}
	if !in.Role.IsAdmin() {
		return nil, invalidField("role", "role must be ADMIN or SUPERADMIN")
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	admin := &domain.Admin{
		Name:         in.Name,
		Email:        in.Email,
		Phone:        optional(in.Phone),
		PasswordHash: hash,
		Role:         in.Role,
	}
	if err := s.admins.Create(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	s.logger.Info("admin created", zap.String("admin_id", admin.ID), zap.String("role", string(admin.Role)), zap.String("by", caller.ID))
	return admin, nil
}

// UpdateAdmin replaces the profile fields of an admin.
func (s *AdminService) UpdateAdmin(ctx context.Context, id string, in UpdateAdminInput) (*domain.Admin, error) {
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
	if in.Phone == "" {
		missing = append(missing, "phone")
	}
	if len(missing) > 0 {
		return nil, missingFields(missing...)
	}

	admin, err := s.admins.GetByID(ctx, id)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	admin.Name = in.Name
	admin.Email = in.Email
	admin.Phone = optional(in.Phone)
	if err := s.admins.Update(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateEmail
		}
		return nil, wrapNotFound(err)
	}
	return admin, nil
}

// ListAdmins returns every admin account.
func (s *AdminService) ListAdmins(ctx context.Context) ([]domain.Admin, error) {
	return s.admins.List(ctx)
}

// GetAdmin returns one admin account.
func (s *AdminService) GetAdmin(ctx context.Context, id string) (*domain.Admin, error) {
	admin, err := s.admins.GetByID(ctx, id)
	return admin, wrapNotFound(err)
}

// DeleteAdmin removes a non-superadmin account. The caller must be a SUPERADMIN
// and SUPERADMIN targets are never removed.
func (s *AdminService) DeleteAdmin(ctx context.Context, caller domain.Subject, id string) error {
	target, err := s.admins.GetByID(ctx, id)
	if err != nil {
		return wrapNotFound(err)
	}
	if target.Role == domain.RoleSuperAdmin {
		return ErrForbidden
	}
	if !isSuperAdmin(caller) {
		return ErrForbidden
	}
	if err := s.admins.DeleteNonSuperAdmin(ctx, id); err != nil {
		return wrapNotFound(err)
	}
	s.logger.Info("admin deleted", zap.String("admin_id", id), zap.String("by", caller.ID))
	return nil
}

// BootstrapSuperAdmin creates the configured SUPERADMIN when it does not exist yet.
func (s *AdminService) BootstrapSuperAdmin(ctx context.Context, cfg config.AuthConfig) error {
	email := NormalizeEmail(cfg.SuperAdminEmail)
	if email == "" || cfg.SuperAdminPassword == "" {
		return nil
	}
	if _, err := s.admins.GetByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	hash, err := auth.HashPassword(cfg.SuperAdminPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	name := strings.TrimSpace(cfg.SuperAdminName)
	if name == "" {
		name = "Super Admin"
	}
	admin := &domain.Admin{Name: name, Email: email, PasswordHash: hash, Role: domain.RoleSuperAdmin}
	if err := s.admins.Create(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil
		}
		return err
	}
	s.logger.Info("superadmin bootstrapped", zap.String("admin_id", admin.ID))
	return nil
}

func isSuperAdmin(s domain.Subject) bool {
	return s.Type == domain.SubjectTypeAdmin && s.Role == domain.RoleSuperAdmin
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func wrapNotFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
