package repository

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/storefront-service/internal/domain"
)

func TestAdminRepository_DeleteNonSuperAdmin(t *testing.T) {
	mock := newMockPool(t)
	repo := NewAdminRepository(mock)

	mock.ExpectExec(`DELETE FROM admins WHERE id=\$1 AND role <> 'SUPERADMIN'`).WithArgs("a-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`DELETE FROM admins WHERE id=\$1 AND role <> 'SUPERADMIN'`).WithArgs("root").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.NoError(t, repo.DeleteNonSuperAdmin(context.Background(), "a-1"))
	assert.ErrorIs(t, repo.DeleteNonSuperAdmin(context.Background(), "root"), ErrNotFound)
}

func TestAdminRepository_List(t *testing.T) {
	mock := newMockPool(t)
	repo := NewAdminRepository(mock)
	now := time.Now()

	mock.ExpectQuery(`SELECT .+ FROM admins ORDER BY created_at`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "email", "phone", "password_hash", "role", "created_at", "updated_at"}).
			AddRow("a-1", "Root", "root@x.com", strPtr("1"), "h1", domain.RoleSuperAdmin, now, now).
			AddRow("a-2", "Ops", "ops@x.com", strPtr("2"), "h2", domain.RoleAdmin, now, now))

	admins, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, admins, 2)
	assert.Equal(t, domain.RoleSuperAdmin, admins[0].Role)
	assert.Equal(t, "ops@x.com", admins[1].Email)
}
