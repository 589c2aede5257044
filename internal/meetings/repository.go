package meetings

import (
	"context"

	"github.com/alexvite/curriculum-vitae/internal/domain"
)

// Repository defines the interface for meeting data operations.
// Get, Update and Delete return ErrMeetingNotFound when no row has the given id.
type Repository interface {
	ListMeetings(ctx context.Context) ([]domain.Meeting, error)
	GetMeeting(ctx context.Context, id int64) (*domain.Meeting, error)
	CreateMeeting(ctx context.Context, meeting *domain.Meeting) error
	UpdateMeeting(ctx context.Context, meeting *domain.Meeting) error
	DeleteMeeting(ctx context.Context, id int64) error
}
