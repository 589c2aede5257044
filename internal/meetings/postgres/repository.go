// Package postgres provides PostgreSQL implementation of the meetings repository.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexvite/curriculum-vitae/internal/domain"
	"github.com/alexvite/curriculum-vitae/internal/meetings"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository implements the meetings.Repository interface using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const selectMeeting = `
	SELECT id, title, description, date, start_time, level, participants,
		creator_id::text, created_at, updated_at
	FROM meetings
`

func scanMeeting(row pgx.Row) (*domain.Meeting, error) {
	var (
		meeting domain.Meeting
		date    time.Time
		level   *string
	)
	err := row.Scan(
		&meeting.ID,
		&meeting.Title,
		&meeting.Description,
		&date,
		&meeting.Time,
		&level,
		&meeting.Participants,
		&meeting.CreatorID,
		&meeting.CreatedAt,
		&meeting.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	meeting.Date = domain.DateOf(date)
	meeting.Level = (*domain.MeetingLevel)(level)
	if meeting.Participants == nil {
		meeting.Participants = []string{}
	}
	return &meeting, nil
}

// participants returns a non-nil list for the NOT NULL array column.
func participants(meeting *domain.Meeting) []string {
	if meeting.Participants == nil {
		return []string{}
	}
	return meeting.Participants
}

// ListMeetings retrieves all meetings ordered by date, start time and id.
func (r *Repository) ListMeetings(ctx context.Context) ([]domain.Meeting, error) {
	rows, err := r.db.Query(ctx, selectMeeting+` ORDER BY date, start_time NULLS FIRST, id`)
	if err != nil {
		return nil, fmt.Errorf("list meetings: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Meeting, 0)
	for rows.Next() {
		meeting, err := scanMeeting(rows)
		if err != nil {
			return nil, fmt.Errorf("scan meeting: %w", err)
		}
		result = append(result, *meeting)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate meetings: %w", err)
	}
	return result, nil
}

// GetMeeting retrieves a meeting by its ID.
func (r *Repository) GetMeeting(ctx context.Context, id int64) (*domain.Meeting, error) {
	meeting, err := scanMeeting(r.db.QueryRow(ctx, selectMeeting+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, meetings.ErrMeetingNotFound
		}
		return nil, fmt.Errorf("get meeting by id: %w", err)
	}
	return meeting, nil
}

// CreateMeeting inserts a meeting and fills in its generated fields.
func (r *Repository) CreateMeeting(ctx context.Context, meeting *domain.Meeting) error {
	query := `
		INSERT INTO meetings (title, description, date, start_time, level, participants, creator_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7::text::uuid)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		meeting.Title,
		meeting.Description,
		meeting.Date.Time(),
		meeting.Time,
		(*string)(meeting.Level),
		participants(meeting),
		meeting.CreatorID,
	).Scan(&meeting.ID, &meeting.CreatedAt, &meeting.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create meeting: %w", err)
	}
	return nil
}

// UpdateMeeting overwrites the client-writable fields. The creator is not changed.
func (r *Repository) UpdateMeeting(ctx context.Context, meeting *domain.Meeting) error {
	query := `
		UPDATE meetings
		SET title = $2, description = $3, date = $4, start_time = $5, level = $6,
			participants = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query,
		meeting.ID,
		meeting.Title,
		meeting.Description,
		meeting.Date.Time(),
		meeting.Time,
		(*string)(meeting.Level),
		participants(meeting),
	).Scan(&meeting.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return meetings.ErrMeetingNotFound
		}
		return fmt.Errorf("update meeting: %w", err)
	}
	return nil
}

// DeleteMeeting deletes a meeting.
func (r *Repository) DeleteMeeting(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM meetings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete meeting: %w", err)
	}
	if result.RowsAffected() == 0 {
		return meetings.ErrMeetingNotFound
	}
	return nil
}
