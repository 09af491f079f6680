// Package testutil provides in-memory collaborators for service and handler tests.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/storefront-service/internal/domain"
	"github.com/spec-kit/storefront-service/internal/repository"
)

// UserRepo is a goroutine-safe in-memory repository.UserRepository.
type UserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
	now   func() time.Time

	// CreateErr, when set, is returned by Create.
	CreateErr error
}

// NewUserRepo returns an empty repository.
func NewUserRepo() *UserRepo {
	return &UserRepo{users: make(map[string]*domain.User), now: time.Now}
}

func (r *UserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.CreateErr != nil {
		return r.CreateErr
	}
	for _, u := range r.users {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	if user.Role == "" {
		user.Role = domain.RoleUser
	}
	user.ID = uuid.NewString()
	user.CreatedAt = r.now()
	user.UpdatedAt = user.CreatedAt
	r.users[user.ID] = cloneUser(user)
	return nil
}

func (r *UserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepo) List(_ context.Context) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *UserRepo) Delete(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	delete(r.users, id)
	return u, nil
}

func (r *UserRepo) SetOTP(_ context.Context, id, code string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.OTPCode = &code
	u.OTPExpires = &expiresAt
	return nil
}

// ConsumeOTP holds the repository lock across check, mirroring the row lock.
func (r *UserRepo) ConsumeOTP(_ context.Context, id string, check repository.OTPCheck) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	if err := check(u.OTPCode, u.OTPExpires); err != nil {
		return err
	}
	u.OTPCode = nil
	u.OTPExpires = nil
	return nil
}

func (r *UserRepo) MarkVerified(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.IsVerified = true
	return nil
}

// Stored returns a copy of the row for id.
func (r *UserRepo) Stored(id string) (*domain.User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, false
	}
	return cloneUser(u), true
}

func cloneUser(u *domain.User) *domain.User {
	c := *u
	if u.Phone != nil {
		p := *u.Phone
		c.Phone = &p
	}
	if u.OTPCode != nil {
		code := *u.OTPCode
		c.OTPCode = &code
	}
	if u.OTPExpires != nil {
		exp := *u.OTPExpires
		c.OTPExpires = &exp
	}
	return &c
}

// AdminRepo is a goroutine-safe in-memory repository.AdminRepository.
type AdminRepo struct {
	mu     sync.Mutex
	admins map[string]*domain.Admin
	seq    int
}

// NewAdminRepo returns an empty repository.
func NewAdminRepo() *AdminRepo {
	return &AdminRepo{admins: make(map[string]*domain.Admin)}
}

func (r *AdminRepo) Create(_ context.Context, admin *domain.Admin) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.emailTaken(admin.Email, "") {
		return repository.ErrDuplicate
	}
	r.seq++
	admin.ID = uuid.NewString()
	admin.CreatedAt = time.Unix(int64(r.seq), 0)
	admin.UpdatedAt = admin.CreatedAt
	c := *admin
	r.admins[admin.ID] = &c
	return nil
}

func (r *AdminRepo) Update(_ context.Context, admin *domain.Admin) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.admins[admin.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if r.emailTaken(admin.Email, admin.ID) {
		return repository.ErrDuplicate
	}
	stored.Name = admin.Name
	stored.Email = admin.Email
	stored.Phone = admin.Phone
	stored.UpdatedAt = time.Now()
	admin.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *AdminRepo) GetByID(_ context.Context, id string) (*domain.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.admins[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *a
	return &c, nil
}

func (r *AdminRepo) GetByEmail(_ context.Context, email string) (*domain.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.admins {
		if a.Email == email {
			c := *a
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *AdminRepo) List(_ context.Context) ([]domain.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Admin, 0, len(r.admins))
	for _, a := range r.admins {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *AdminRepo) DeleteNonSuperAdmin(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.admins[id]
	if !ok || a.Role == domain.RoleSuperAdmin {
		return repository.ErrNotFound
	}
	delete(r.admins, id)
	return nil
}

func (r *AdminRepo) emailTaken(email, exceptID string) bool {
	for id, a := range r.admins {
		if a.Email == email && id != exceptID {
			return true
		}
	}
	return false
}

// ProductRepo is a goroutine-safe in-memory repository.ProductRepository.
type ProductRepo struct {
	mu       sync.Mutex
	products map[string]*domain.Product
}

// NewProductRepo returns an empty repository.
func NewProductRepo() *ProductRepo {
	return &ProductRepo{products: make(map[string]*domain.Product)}
}

func (r *ProductRepo) Create(_ context.Context, p *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.serialTaken(p.SlNo, "") {
		return repository.ErrDuplicate
	}
	p.ID = uuid.NewString()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	r.products[p.ID] = cloneProduct(p)
	return nil
}

func (r *ProductRepo) Update(_ context.Context, p *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[p.ID]; !ok {
		return repository.ErrNotFound
	}
	if r.serialTaken(p.SlNo, p.ID) {
		return repository.ErrDuplicate
	}
	p.UpdatedAt = time.Now()
	r.products[p.ID] = cloneProduct(p)
	return nil
}

func (r *ProductRepo) GetByID(_ context.Context, id string) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneProduct(p), nil
}

func (r *ProductRepo) GetBySlNo(_ context.Context, slNo int) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.SlNo == slNo {
			return cloneProduct(p), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *ProductRepo) List(_ context.Context) ([]domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, *cloneProduct(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SlNo < out[j].SlNo })
	return out, nil
}

func (r *ProductRepo) Delete(_ context.Context, id string) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	delete(r.products, id)
	return p, nil
}

func (r *ProductRepo) serialTaken(slNo int, exceptID string) bool {
	for id, p := range r.products {
		if p.SlNo == slNo && id != exceptID {
			return true
		}
	}
	return false
}

func cloneProduct(p *domain.Product) *domain.Product {
	c := *p
	c.Images = append([]string{}, p.Images...)
	c.Sizes = append([]string{}, p.Sizes...)
	c.Colors = append([]string{}, p.Colors...)
	return &c
}
