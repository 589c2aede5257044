// Package meetings provides HTTP handlers and business logic for managing meetings.
package meetings

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/alexvite/curriculum-vitae/internal/domain"
	"github.com/alexvite/curriculum-vitae/internal/pkg/ctxlog"
	"golang.org/x/text/unicode/norm"
)

// Service implements meeting business logic.
type Service struct {
	repo Repository
}

// NewService creates a new meetings service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// MeetingInput holds the client-writable fields of a meeting.
type MeetingInput struct {
	Title        string
	Description  *string
	Date         domain.Date
	Time         *string
	Level        *domain.MeetingLevel
	Participants []string
}

// clockLayouts are the accepted start time formats; seconds are dropped.
var clockLayouts = []string{domain.ClockLayout, "15:04:05"}

func (in MeetingInput) normalize() (MeetingInput, error) {
	in.Title = norm.NFC.String(strings.TrimSpace(in.Title))
	if in.Title == "" {
		return in, ErrTitleRequired
	}
	if utf8.RuneCountInString(in.Title) > MaxTitleLength {
		return in, ErrTitleTooLong
	}
	if in.Date.IsZero() {
		return in, ErrDateRequired
	}

	var err error
	if in.Time, err = normalizeTime(in.Time); err != nil {
		return in, err
	}
	if in.Level, err = normalizeLevel(in.Level); err != nil {
		return in, err
	}
	if in.Participants, err = normalizeParticipants(in.Participants); err != nil {
		return in, err
	}
	return in, nil
}

func normalizeTime(clock *string) (*string, error) {
	if clock == nil || strings.TrimSpace(*clock) == "" {
		return nil, nil
	}
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, strings.TrimSpace(*clock)); err == nil {
			formatted := t.Format(domain.ClockLayout)
			return &formatted, nil
		}
	}
	return nil, ErrInvalidTime
}

func normalizeLevel(level *domain.MeetingLevel) (*domain.MeetingLevel, error) {
	if level == nil {
		return nil, nil
	}
	l := domain.MeetingLevel(strings.TrimSpace(string(*level)))
	if l == "" {
		return nil, nil
	}
	if !l.IsValid() {
		return nil, ErrInvalidLevel
	}
	return &l, nil
}

// normalizeParticipants trims names and drops blank entries.
func normalizeParticipants(names []string) ([]string, error) {
	result := make([]string, 0, len(names))
	for _, name := range names {
		name = norm.NFC.String(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if utf8.RuneCountInString(name) > MaxParticipantLength {
			return nil, ErrParticipantTooLong
		}
		result = append(result, name)
	}
	if len(result) > MaxParticipants {
		return nil, ErrTooManyParticipants
	}
	return result, nil
}

// ListMeetings returns all meetings ordered by date, start time and id.
// Meetings without a start time come first within a day.
func (s *Service) ListMeetings(ctx context.Context) ([]domain.Meeting, error) {
	meetings, err := s.repo.ListMeetings(ctx)
	recordOperation("list", err)
	if err != nil {
		return nil, fmt.Errorf("list meetings: %w", err)
	}
	if meetings == nil {
		meetings = make([]domain.Meeting, 0)
	}
	return meetings, nil
}

// GetMeeting returns the meeting with the given id.
func (s *Service) GetMeeting(ctx context.Context, id int64) (*domain.Meeting, error) {
	meeting, err := s.repo.GetMeeting(ctx, id)
	recordOperation("get", err)
	if err != nil {
		return nil, err
	}
	return meeting, nil
}

// CreateMeeting validates input and stores a new meeting with a generated id.
// creatorID is the authenticated caller; empty leaves the creator unset.
func (s *Service) CreateMeeting(ctx context.Context, creatorID string, input MeetingInput) (*domain.Meeting, error) {
	input, err := input.normalize()
	if err != nil {
		recordOperation("create", err)
		return nil, err
	}

	meeting := &domain.Meeting{
		Title:        input.Title,
		Description:  input.Description,
		Date:         input.Date,
		Time:         input.Time,
		Level:        input.Level,
		Participants: input.Participants,
	}
	if creatorID != "" {
		meeting.CreatorID = &creatorID
	}
	if err := s.repo.CreateMeeting(ctx, meeting); err != nil {
		recordOperation("create", err)
		return nil, fmt.Errorf("create meeting: %w", err)
	}
	recordOperation("create", nil)

	ctxlog.FromContext(ctx).Info("meeting created", "meeting_id", meeting.ID)
	return meeting, nil
}

// UpdateMeeting overwrites every client-writable field of an existing meeting.
// Omitted optional fields are cleared. The creator is kept.
func (s *Service) UpdateMeeting(ctx context.Context, id int64, input MeetingInput) (*domain.Meeting, error) {
	input, err := input.normalize()
	if err != nil {
		recordOperation("update", err)
		return nil, err
	}

	meeting, err := s.repo.GetMeeting(ctx, id)
	if err != nil {
		recordOperation("update", err)
		return nil, err
	}

	meeting.Title = input.Title
	meeting.Description = input.Description
	meeting.Date = input.Date
	meeting.Time = input.Time
	meeting.Level = input.Level
	meeting.Participants = input.Participants

	if err := s.repo.UpdateMeeting(ctx, meeting); err != nil {
		recordOperation("update", err)
		return nil, fmt.Errorf("update meeting: %w", err)
	}
	recordOperation("update", nil)

	ctxlog.FromContext(ctx).Info("meeting updated", "meeting_id", meeting.ID)
	return meeting, nil
}

// DeleteMeeting removes the meeting with the given id.
func (s *Service) DeleteMeeting(ctx context.Context, id int64) error {
	err := s.repo.DeleteMeeting(ctx, id)
	recordOperation("delete", err)
	if err != nil {
		return err
	}

	ctxlog.FromContext(ctx).Info("meeting deleted", "meeting_id", id)
	return nil
}
