// Package postgres provides PostgreSQL implementation of the identity repository.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alexvite/curriculum-vitae/internal/domain"
	"github.com/alexvite/curriculum-vitae/internal/identity"
	pgutil "github.com/alexvite/curriculum-vitae/internal/pkg/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository implements the identity.Repository interface using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func rollback(ctx context.Context, tx pgx.Tx) {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		slog.Error("failed to rollback transaction", "error", err)
	}
}

func roleNames(roles []domain.RoleName) []string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return names
}

func insertRoles(ctx context.Context, tx pgx.Tx, userID string, roles []domain.RoleName) error {
	if len(roles) == 0 {
		return nil
	}
	query := `
		INSERT INTO user_roles (user_id, role_id)
		SELECT $1, id FROM roles WHERE name = ANY($2)
		ON CONFLICT DO NOTHING
	`
	result, err := tx.Exec(ctx, query, userID, roleNames(roles))
	if err != nil {
		return fmt.Errorf("insert user roles: %w", err)
	}
	if result.RowsAffected() == 0 {
		return identity.ErrInvalidRole
	}
	return nil
}

// CreateUser creates a new user and its role grants.
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	query := `
		INSERT INTO users (id, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at
	`
	err = tx.QueryRow(ctx, query, user.ID, user.Email, user.Password).
		Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if pgutil.IsUniqueViolation(err) {
			return identity.ErrEmailExists
		}
		return fmt.Errorf("create user: %w", err)
	}

	if err := insertRoles(ctx, tx, user.ID, user.Roles); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

const selectUser = `
	SELECT id, email, password_hash, created_at, updated_at
	FROM users
`

func (r *Repository) getUser(ctx context.Context, where string, arg any) (*domain.User, error) {
	var user domain.User
	err := r.db.QueryRow(ctx, selectUser+where, arg).Scan(
		&user.ID,
		&user.Email,
		&user.Password,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, identity.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	roles, err := r.GetUserRoles(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.Roles = roles

	return &user, nil
}

// GetUserByID retrieves a user by ID.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getUser(ctx, ` WHERE id::text = $1`, id)
}

// GetUserByEmail retrieves a user by email.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getUser(ctx, ` WHERE email = $1`, email)
}

// ListUsers retrieves users ordered by email.
func (r *Repository) ListUsers(ctx context.Context, filter identity.UserFilter) ([]domain.User, error) {
	query := selectUser
	var args []any
	if filter.Role != nil {
		query += `
			WHERE id IN (
				SELECT ur.user_id FROM user_roles ur
				JOIN roles ro ON ro.id = ur.role_id
				WHERE ro.name = $1
			)`
		args = append(args, string(*filter.Role))
	}
	query += ` ORDER BY email`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(&user.ID, &user.Email, &user.Password, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	for i := range users {
		roles, err := r.GetUserRoles(ctx, users[i].ID)
		if err != nil {
			return nil, err
		}
		users[i].Roles = roles
	}

	return users, nil
}

// GetUserRoles retrieves role names granted to a user.
func (r *Repository) GetUserRoles(ctx context.Context, userID string) ([]domain.RoleName, error) {
	query := `
		SELECT ro.name
		FROM user_roles ur
		JOIN roles ro ON ro.id = ur.role_id
		WHERE ur.user_id::text = $1
		ORDER BY ro.name
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("get user roles: %w", err)
	}
	defer rows.Close()

	roles := make([]domain.RoleName, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		roles = append(roles, domain.RoleName(name))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate roles: %w", err)
	}
	return roles, nil
}

// SetUserRoles replaces role grants of a user.
func (r *Repository) SetUserRoles(ctx context.Context, userID string, roles []domain.RoleName) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	result, err := tx.Exec(ctx, `UPDATE users SET updated_at = NOW() WHERE id::text = $1`, userID)
	if err != nil {
		return fmt.Errorf("touch user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return identity.ErrUserNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM user_roles WHERE user_id::text = $1`, userID); err != nil {
		return fmt.Errorf("delete user roles: %w", err)
	}

	if err := insertRoles(ctx, tx, userID, roles); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// EnsureRoles inserts roles that do not exist yet.
func (r *Repository) EnsureRoles(ctx context.Context, roles []domain.RoleName) error {
	query := `
		INSERT INTO roles (name)
		SELECT unnest($1::text[])
		ON CONFLICT (name) DO NOTHING
	`
	if _, err := r.db.Exec(ctx, query, roleNames(roles)); err != nil {
		return fmt.Errorf("ensure roles: %w", err)
	}
	return nil
}
