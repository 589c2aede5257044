package contact

import (
	"errors"

	"github.com/alexvite/curriculum-vitae/internal/domain"
)

// Field limits.
const (
	MaxNameLength    = 100
	MaxEmailLength   = 255
	MaxMessageLength = 5000
)

// Contact errors.
var (
	ErrNameRequired    = domain.NewError(domain.ErrValidation, "name is required")
	ErrNameTooLong     = domain.NewError(domain.ErrValidation, "name must be at most 100 characters")
	ErrInvalidEmail    = domain.NewError(domain.ErrValidation, "email must be a valid address")
	ErrMessageRequired = domain.NewError(domain.ErrValidation, "message is required")
	ErrMessageTooLong  = domain.NewError(domain.ErrValidation, "message must be at most 5000 characters")

	ErrUnavailable    = errors.New("contact form is not configured")
	ErrDeliveryFailed = errors.New("failed to send email")
)
