package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alexvite/curriculum-vitae/internal/domain"
	"github.com/alexvite/curriculum-vitae/internal/identity"
	sqlitedb "github.com/alexvite/curriculum-vitae/internal/pkg/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	ctx := context.Background()

	db, err := sqlitedb.Open(ctx, filepath.Join(t.TempDir(), "cv.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, sqlitedb.Migrate(db))
	return NewRepository(db)
}

func newUser(email string, roles ...domain.RoleName) *domain.User {
	return &domain.User{
		ID:       uuid.NewString(),
		Email:    email,
		Password: "hash",
		Roles:    roles,
	}
}

func TestRepository_CreateAndGetUser(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	user := newUser("alex@example.com", domain.RoleUser)
	require.NoError(t, repo.CreateUser(ctx, user))
	assert.False(t, user.CreatedAt.IsZero())

	byID, err := repo.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alex@example.com", byID.Email)
	assert.Equal(t, "hash", byID.Password)
	assert.Equal(t, []domain.RoleName{domain.RoleUser}, byID.Roles)

	byEmail, err := repo.GetUserByEmail(ctx, "alex@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	_, err = repo.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, identity.ErrUserNotFound)
}

func TestRepository_CreateUserDuplicateEmail(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateUser(ctx, newUser("alex@example.com", domain.RoleUser)))

	err := repo.CreateUser(ctx, newUser("alex@example.com", domain.RoleUser))
	assert.ErrorIs(t, err, identity.ErrEmailExists)
}

func TestRepository_CreateUserUnknownRoleRollsBack(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	user := newUser("alex@example.com", domain.RoleName("superuser"))
	err := repo.CreateUser(ctx, user)
	assert.ErrorIs(t, err, identity.ErrInvalidRole)

	_, err = repo.GetUserByID(ctx, user.ID)
	assert.ErrorIs(t, err, identity.ErrUserNotFound)
}

func TestRepository_SetUserRoles(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	user := newUser("alex@example.com", domain.RoleUser)
	require.NoError(t, repo.CreateUser(ctx, user))

	require.NoError(t, repo.SetUserRoles(ctx, user.ID, []domain.RoleName{domain.RoleAdmin, domain.RoleUser}))
	roles, err := repo.GetUserRoles(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []domain.RoleName{domain.RoleAdmin, domain.RoleUser}, roles)

	require.NoError(t, repo.SetUserRoles(ctx, user.ID, []domain.RoleName{domain.RoleUser}))
	roles, err = repo.GetUserRoles(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []domain.RoleName{domain.RoleUser}, roles)

	err = repo.SetUserRoles(ctx, uuid.NewString(), []domain.RoleName{domain.RoleUser})
	assert.ErrorIs(t, err, identity.ErrUserNotFound)
}

func TestRepository_ListUsers(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateUser(ctx, newUser("b@example.com", domain.RoleUser)))
	require.NoError(t, repo.CreateUser(ctx, newUser("a@example.com", domain.RoleUser, domain.RoleAdmin)))

	all, err := repo.ListUsers(ctx, identity.UserFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a@example.com", all[0].Email)
	assert.Equal(t, []domain.RoleName{domain.RoleAdmin, domain.RoleUser}, all[0].Roles)

	admin := domain.RoleAdmin
	admins, err := repo.ListUsers(ctx, identity.UserFilter{Role: &admin})
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, "a@example.com", admins[0].Email)
}

func TestRepository_EnsureRoles(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.EnsureRoles(ctx, []domain.RoleName{domain.RoleUser, domain.RoleAdmin}))
	require.NoError(t, repo.EnsureRoles(ctx, []domain.RoleName{domain.RoleAdmin}))

	var count int
	require.NoError(t, repo.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM roles`).Scan(&count))
	assert.Equal(t, 2, count)
}
