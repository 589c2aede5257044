// Package jwt provides an HS256 JWT implementation of identity.Authenticator.
package jwt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexvite/curriculum-vitae/internal/domain"
	"github.com/alexvite/curriculum-vitae/internal/identity"
	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Config holds token settings.
type Config struct {
	SecretKey           string
	Issuer              string
	AccessTokenDuration time.Duration
}

// claims is the token payload.
type claims struct {
	Email string            `json:"email"`
	Roles []domain.RoleName `json:"roles"`
	jwtlib.RegisteredClaims
}

// Authenticator signs and verifies access tokens.
type Authenticator struct {
	secret   []byte
	issuer   string
	duration time.Duration
	now      func() time.Time
}

// NewAuthenticator creates a new JWT authenticator.
func NewAuthenticator(cfg Config) (*Authenticator, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("jwt secret key is required")
	}
	if cfg.AccessTokenDuration <= 0 {
		return nil, errors.New("jwt access token duration must be positive")
	}
	return &Authenticator{
		secret:   []byte(cfg.SecretKey),
		issuer:   cfg.Issuer,
		duration: cfg.AccessTokenDuration,
		now:      time.Now,
	}, nil
}

// GenerateToken issues an access token for user.
func (a *Authenticator) GenerateToken(_ context.Context, user *domain.User) (string, error) {
	now := a.now()
	c := claims{
		Email: user.Email,
		Roles: user.Roles,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    a.issuer,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(a.duration)),
			ID:        uuid.NewString(),
		},
	}

	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, c).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// ValidateToken verifies signature, issuer and expiry of token.
// Every failure is reported as identity.ErrInvalidToken.
func (a *Authenticator) ValidateToken(_ context.Context, token string) (*identity.Claims, error) {
	opts := []jwtlib.ParserOption{
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithTimeFunc(a.now),
	}
	if a.issuer != "" {
		opts = append(opts, jwtlib.WithIssuer(a.issuer))
	}

	var c claims
	parsed, err := jwtlib.ParseWithClaims(token, &c, func(*jwtlib.Token) (interface{}, error) {
		return a.secret, nil
	}, opts...)
	if err != nil || !parsed.Valid || c.Subject == "" {
		return nil, identity.ErrInvalidToken
	}

	return &identity.Claims{
		UserID: c.Subject,
		Email:  c.Email,
		Roles:  c.Roles,
	}, nil
}
