package repository

import (
	"context"
	"time"

	"github.com/spec-kit/storefront-service/internal/domain"
)

// OTPCheck inspects the stored OTP pair while the row is locked.
// Returning nil lets the caller's code be consumed.
type OTPCheck func(code *string, expires *time.Time) error

// UserRepository defines persistence access for shopper accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Delete(ctx context.Context, id string) (*domain.User, error)
	SetOTP(ctx context.Context, id, code string, expiresAt time.Time) error
	ConsumeOTP(ctx context.Context, id string, check OTPCheck) error
	MarkVerified(ctx context.Context, id string) error
}

const userColumns = `id, name, email, phone, password_hash, role, otp_code, otp_expires, is_verified, created_at, updated_at`

type userRepository struct {
	db DB
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(db DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (name, email, phone, password_hash, role)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, is_verified, created_at, updated_at`

	if user.Role == "" {
		user.Role = domain.RoleUser
	}
	err := r.db.QueryRow(ctx, query,
		user.Name,
		user.Email,
		user.Phone,
		user.PasswordHash,
		user.Role,
	).Scan(&user.ID, &user.IsVerified, &user.CreatedAt, &user.UpdatedAt)
	return mapError(err)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	return scanUser(r.db.QueryRow(ctx, query, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email=$1`
	return scanUser(r.db.QueryRow(ctx, query, email))
}

func (r *userRepository) List(ctx context.Context) ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

func (r *userRepository) Delete(ctx context.Context, id string) (*domain.User, error) {
	query := `DELETE FROM users WHERE id=$1 RETURNING ` + userColumns
	return scanUser(r.db.QueryRow(ctx, query, id))
}

// SetOTP stores a new pending code, replacing any previous one.
func (r *userRepository) SetOTP(ctx context.Context, id, code string, expiresAt time.Time) error {
	const query = `
        UPDATE users SET otp_code=$1, otp_expires=$2, updated_at=NOW()
        WHERE id=$3`

	cmd, err := r.db.Exec(ctx, query, code, expiresAt, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ConsumeOTP locks the user row, runs check against the stored pair and clears
// both columns when check passes. A concurrent SetOTP waits for the lock.
func (r *userRepository) ConsumeOTP(ctx context.Context, id string, check OTPCheck) error {
	const (
		selectQuery = `SELECT otp_code, otp_expires FROM users WHERE id=$1 FOR UPDATE`
		clearQuery  = `UPDATE users SET otp_code=NULL, otp_expires=NULL, updated_at=NOW() WHERE id=$1`
	)

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}

	var (
		code    *string
		expires *time.Time
	)
	if err := tx.QueryRow(ctx, selectQuery, id).Scan(&code, &expires); err != nil {
		_ = tx.Rollback(ctx)
		return mapError(err)
	}
	if err := check(code, expires); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if _, err := tx.Exec(ctx, clearQuery, id); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

func (r *userRepository) MarkVerified(ctx context.Context, id string) error {
	const query = `UPDATE users SET is_verified=TRUE, updated_at=NOW() WHERE id=$1`

	cmd, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Phone,
		&user.PasswordHash,
		&user.Role,
		&user.OTPCode,
		&user.OTPExpires,
		&user.IsVerified,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, mapError(err)
	}
	return &user, nil
}
