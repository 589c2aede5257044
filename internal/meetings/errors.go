package meetings

import "github.com/alexvite/curriculum-vitae/internal/domain"

// Field limits.
const (
	MaxTitleLength       = 255
	MaxParticipants      = 100
	MaxParticipantLength = 255
)

// Meeting errors.
var (
	ErrMeetingNotFound     = domain.NewError(domain.ErrNotFound, "meeting not found")
	ErrTitleRequired       = domain.NewError(domain.ErrValidation, "title is required")
	ErrTitleTooLong        = domain.NewError(domain.ErrValidation, "title must be at most 255 characters")
	ErrDateRequired        = domain.NewError(domain.ErrValidation, "date is required")
	ErrInvalidTime         = domain.NewError(domain.ErrValidation, "time must be HH:MM")
	ErrInvalidLevel        = domain.NewError(domain.ErrValidation, "level must be one of Team, Department, Company")
	ErrTooManyParticipants = domain.NewError(domain.ErrValidation, "at most 100 participants allowed")
	ErrParticipantTooLong  = domain.NewError(domain.ErrValidation, "participant must be at most 255 characters")
	ErrInvalidID           = domain.NewError(domain.ErrValidation, "invalid meeting id")
)
