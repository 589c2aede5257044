package identity

import (
	"context"

	"github.com/alexvite/curriculum-vitae/internal/domain"
)

// Repository defines the interface for identity data operations.
type Repository interface {
	// CreateUser stores user together with user.Roles in one transaction.
	// It returns ErrEmailExists when the email is taken.
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	ListUsers(ctx context.Context, filter UserFilter) ([]domain.User, error)

	GetUserRoles(ctx context.Context, userID string) ([]domain.RoleName, error)
	// SetUserRoles replaces all role grants of a user.
	SetUserRoles(ctx context.Context, userID string, roles []domain.RoleName) error
	// EnsureRoles creates any missing roles.
	EnsureRoles(ctx context.Context, roles []domain.RoleName) error
}

// UserFilter represents filter criteria for listing users.
type UserFilter struct {
	Role *domain.RoleName
}
