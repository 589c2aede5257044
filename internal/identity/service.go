// Package identity provides user registration, authentication and role management.
package identity

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/alexvite/curriculum-vitae/internal/domain"
	"github.com/alexvite/curriculum-vitae/internal/pkg/ctxlog"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/cases"
)

// Claims is the authenticated principal carried by a token.
type Claims struct {
	UserID string
	Email  string
	Roles  []domain.RoleName
}

// Authenticator issues and verifies bearer tokens.
type Authenticator interface {
	GenerateToken(ctx context.Context, user *domain.User) (string, error)
	ValidateToken(ctx context.Context, token string) (*Claims, error)
}

// Service implements identity business logic.
type Service struct {
	repo         Repository
	auth         Authenticator
	passwordCost int
}

// NewService creates a new identity service.
func NewService(repo Repository, auth Authenticator) *Service {
	return &Service{
		repo:         repo,
		auth:         auth,
		passwordCost: bcrypt.DefaultCost,
	}
}

// normalizeEmail trims and case-folds email so lookups are case-insensitive.
// A Caser is stateful, so each call gets its own.
func normalizeEmail(email string) string {
	return cases.Fold().String(strings.TrimSpace(email))
}

// RegisterInput represents registration data.
type RegisterInput struct {
	Email    string
	Password string
}

// Register creates a user holding the user role.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	return s.createUser(ctx, input.Email, input.Password, []domain.RoleName{domain.RoleUser})
}

func (s *Service) createUser(ctx context.Context, email, password string, roles []domain.RoleName) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.passwordCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		ID:       uuid.NewString(),
		Email:    normalizeEmail(email),
		Password: string(hash),
		Roles:    roles,
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, ErrEmailExists) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	registrations.Inc()

	ctxlog.FromContext(ctx).Info("user registered", "user_id", user.ID)
	return user, nil
}

// Authenticate verifies credentials and returns a signed bearer token.
func (s *Service) Authenticate(ctx context.Context, email, password string) (string, error) {
	user, err := s.repo.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			recordLogin("invalid_credentials")
			return "", ErrInvalidCredentials
		}
		recordLogin("error")
		return "", fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		recordLogin("invalid_credentials")
		ctxlog.FromContext(ctx).Info("login rejected", "user_id", user.ID)
		return "", ErrInvalidCredentials
	}

	token, err := s.auth.GenerateToken(ctx, user)
	if err != nil {
		recordLogin("error")
		return "", fmt.Errorf("generate token: %w", err)
	}
	recordLogin("success")

	return token, nil
}

// ValidateToken checks token and returns its user id with the roles the user
// holds now, so role changes apply before the token expires.
func (s *Service) ValidateToken(ctx context.Context, token string) (string, []domain.RoleName, error) {
	claims, err := s.auth.ValidateToken(ctx, token)
	if err != nil {
		return "", nil, err
	}

	user, err := s.repo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", nil, ErrInvalidToken
		}
		return "", nil, fmt.Errorf("load token user: %w", err)
	}
	return user.ID, user.Roles, nil
}

// GetUserByID returns a user with roles.
func (s *Service) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.GetUserByID(ctx, id)
}

// ListUsers returns users matching filter.
func (s *Service) ListUsers(ctx context.Context, filter UserFilter) ([]domain.User, error) {
	if filter.Role != nil && !filter.Role.IsValid() {
		return nil, ErrInvalidRole
	}

	users, err := s.repo.ListUsers(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// SetUserRoles replaces the roles of a user and returns the updated user.
func (s *Service) SetUserRoles(ctx context.Context, userID string, roles []domain.RoleName) (*domain.User, error) {
	if len(roles) == 0 {
		return nil, ErrInvalidRole
	}
	for _, role := range roles {
		if !role.IsValid() {
			return nil, ErrInvalidRole
		}
	}
	roles = slices.Compact(slices.Sorted(slices.Values(roles)))

	if err := s.repo.SetUserRoles(ctx, userID, roles); err != nil {
		return nil, err
	}

	ctxlog.FromContext(ctx).Info("user roles updated", "user_id", userID, "roles", roles)
	return s.repo.GetUserByID(ctx, userID)
}

// EnsureAdmin makes sure an account with email exists and holds the admin role.
// An existing account keeps its password.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) error {
	if err := s.repo.EnsureRoles(ctx, []domain.RoleName{domain.RoleUser, domain.RoleAdmin}); err != nil {
		return fmt.Errorf("ensure roles: %w", err)
	}

	user, err := s.repo.GetUserByEmail(ctx, normalizeEmail(email))
	switch {
	case errors.Is(err, ErrUserNotFound):
		if _, err := s.createUser(ctx, email, password, []domain.RoleName{domain.RoleAdmin, domain.RoleUser}); err != nil {
			return fmt.Errorf("create admin: %w", err)
		}
		ctxlog.FromContext(ctx).Info("admin account created", "email", normalizeEmail(email))
		return nil
	case err != nil:
		return fmt.Errorf("get admin: %w", err)
	}

	if user.HasRole(domain.RoleAdmin) {
		return nil
	}
	if _, err := s.SetUserRoles(ctx, user.ID, append(user.Roles, domain.RoleAdmin)); err != nil {
		return fmt.Errorf("grant admin: %w", err)
	}
	return nil
}
