// Package sqlite provides SQLite implementation of the identity repository.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alexvite/curriculum-vitae/internal/domain"
	"github.com/alexvite/curriculum-vitae/internal/identity"
	sqlitedb "github.com/alexvite/curriculum-vitae/internal/pkg/sqlite"
)

// Repository implements the identity.Repository interface using SQLite.
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

// NewRepository creates a new SQLite repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

func rollback(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		slog.Error("failed to rollback transaction", "error", err)
	}
}

func insertRoles(ctx context.Context, tx *sql.Tx, userID string, roles []domain.RoleName) error {
	for _, role := range roles {
		result, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO user_roles (user_id, role_id)
			SELECT ?, id FROM roles WHERE name = ?
		`, userID, string(role))
		if err != nil {
			return fmt.Errorf("insert user role: %w", err)
		}
		if n, err := result.RowsAffected(); err == nil && n == 0 {
			var exists bool
			if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM roles WHERE name = ?)`, string(role)).Scan(&exists); err != nil {
				return fmt.Errorf("check role: %w", err)
			}
			if !exists {
				return identity.ErrInvalidRole
			}
		}
	}
	return nil
}

// CreateUser creates a new user and its role grants.
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(tx)

	now := r.now().UTC()
	ts := now.Format(time.RFC3339Nano)
	_, err = tx.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, user.ID, user.Email, user.Password, ts, ts)
	if err != nil {
		if sqlitedb.IsUniqueViolation(err) {
			return identity.ErrEmailExists
		}
		return fmt.Errorf("create user: %w", err)
	}

	if err := insertRoles(ctx, tx, user.ID, user.Roles); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

const selectUser = `
	SELECT id, email, password_hash, created_at, updated_at
	FROM users
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		user                 domain.User
		createdAt, updatedAt string
	)
	if err := row.Scan(&user.ID, &user.Email, &user.Password, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if user.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if user.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &user, nil
}

func (r *Repository) getUser(ctx context.Context, where string, arg any) (*domain.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, selectUser+where, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, identity.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	roles, err := r.GetUserRoles(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.Roles = roles

	return user, nil
}

// GetUserByID retrieves a user by ID.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getUser(ctx, ` WHERE id = ?`, id)
}

// GetUserByEmail retrieves a user by email.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getUser(ctx, ` WHERE email = ?`, email)
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
				WHERE ro.name = ?
			)`
		args = append(args, string(*filter.Role))
	}
	query += ` ORDER BY email`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	// release the single connection before loading roles
	rows.Close()

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
	rows, err := r.db.QueryContext(ctx, `
		SELECT ro.name
		FROM user_roles ur
		JOIN roles ro ON ro.id = ur.role_id
		WHERE ur.user_id = ?
		ORDER BY ro.name
	`, userID)
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
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(tx)

	result, err := tx.ExecContext(ctx, `UPDATE users SET updated_at = ? WHERE id = ?`,
		r.now().UTC().Format(time.RFC3339Nano), userID)
	if err != nil {
		return fmt.Errorf("touch user: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("touch user: %w", err)
	} else if n == 0 {
		return identity.ErrUserNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM user_roles WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("delete user roles: %w", err)
	}

	if err := insertRoles(ctx, tx, userID, roles); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// EnsureRoles inserts roles that do not exist yet.
func (r *Repository) EnsureRoles(ctx context.Context, roles []domain.RoleName) error {
	for _, role := range roles {
		if _, err := r.db.ExecContext(ctx, `INSERT OR IGNORE INTO roles (name) VALUES (?)`, string(role)); err != nil {
			return fmt.Errorf("ensure roles: %w", err)
		}
	}
	return nil
}
