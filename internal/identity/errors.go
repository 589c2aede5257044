package identity

import "github.com/alexvite/curriculum-vitae/internal/domain"

// Identity errors.
var (
	ErrUserNotFound       = domain.NewError(domain.ErrNotFound, "user not found")
	ErrEmailExists        = domain.NewError(domain.ErrConflict, "email already registered")
	ErrInvalidCredentials = domain.NewError(domain.ErrUnauthorized, "invalid email or password")
	ErrInvalidToken       = domain.NewError(domain.ErrUnauthorized, "invalid or expired token")
	ErrInvalidRole        = domain.NewError(domain.ErrValidation, "invalid role")
)
