// Package sqlite provides SQLite implementation of the meetings repository.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/alexvite/curriculum-vitae/internal/domain"
	"github.com/alexvite/curriculum-vitae/internal/meetings"
)

// Repository implements the meetings.Repository interface using SQLite.
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

// NewRepository creates a new SQLite repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

const selectMeeting = `
	SELECT id, title, description, date, start_time, level, participants,
		creator_id, created_at, updated_at
	FROM meetings
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMeeting(row rowScanner) (*domain.Meeting, error) {
	var (
		meeting              domain.Meeting
		date                 string
		level                *string
		participants         string
		createdAt, updatedAt string
	)
	err := row.Scan(
		&meeting.ID,
		&meeting.Title,
		&meeting.Description,
		&date,
		&meeting.Time,
		&level,
		&participants,
		&meeting.CreatorID,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	meeting.Level = (*domain.MeetingLevel)(level)
	if err := json.Unmarshal([]byte(participants), &meeting.Participants); err != nil {
		return nil, fmt.Errorf("decode participants: %w", err)
	}
	if meeting.Participants == nil {
		meeting.Participants = []string{}
	}

	if meeting.Date, err = domain.ParseDate(date); err != nil {
		return nil, err
	}
	if meeting.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if meeting.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &meeting, nil
}

// encodeParticipants stores the list as a JSON array; nil becomes [].
func encodeParticipants(names []string) (string, error) {
	if names == nil {
		names = []string{}
	}
	data, err := json.Marshal(names)
	if err != nil {
		return "", fmt.Errorf("encode participants: %w", err)
	}
	return string(data), nil
}

func (r *Repository) timestamp() (time.Time, string) {
	t := r.now().UTC()
	return t, t.Format(time.RFC3339Nano)
}

// ListMeetings retrieves all meetings ordered by date, start time and id.
// SQLite sorts NULL start times first.
func (r *Repository) ListMeetings(ctx context.Context) ([]domain.Meeting, error) {
	rows, err := r.db.QueryContext(ctx, selectMeeting+` ORDER BY date, start_time, id`)
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
	meeting, err := scanMeeting(r.db.QueryRowContext(ctx, selectMeeting+` WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, meetings.ErrMeetingNotFound
		}
		return nil, fmt.Errorf("get meeting by id: %w", err)
	}
	return meeting, nil
}

// CreateMeeting inserts a meeting and fills in its generated fields.
func (r *Repository) CreateMeeting(ctx context.Context, meeting *domain.Meeting) error {
	participants, err := encodeParticipants(meeting.Participants)
	if err != nil {
		return err
	}

	now, ts := r.timestamp()
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO meetings (title, description, date, start_time, level, participants, creator_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, meeting.Title, meeting.Description, meeting.Date.String(), meeting.Time,
		(*string)(meeting.Level), participants, meeting.CreatorID, ts, ts)
	if err != nil {
		return fmt.Errorf("create meeting: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get meeting id: %w", err)
	}

	meeting.ID = id
	meeting.CreatedAt = now
	meeting.UpdatedAt = now
	return nil
}

// UpdateMeeting overwrites the client-writable fields. The creator is not changed.
func (r *Repository) UpdateMeeting(ctx context.Context, meeting *domain.Meeting) error {
	participants, err := encodeParticipants(meeting.Participants)
	if err != nil {
		return err
	}

	now, ts := r.timestamp()
	result, err := r.db.ExecContext(ctx, `
		UPDATE meetings
		SET title = ?, description = ?, date = ?, start_time = ?, level = ?, participants = ?, updated_at = ?
		WHERE id = ?
	`, meeting.Title, meeting.Description, meeting.Date.String(), meeting.Time,
		(*string)(meeting.Level), participants, ts, meeting.ID)
	if err != nil {
		return fmt.Errorf("update meeting: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update meeting: %w", err)
	}
	if affected == 0 {
		return meetings.ErrMeetingNotFound
	}

	meeting.UpdatedAt = now
	return nil
}

// DeleteMeeting deletes a meeting.
func (r *Repository) DeleteMeeting(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM meetings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete meeting: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete meeting: %w", err)
	}
	if affected == 0 {
		return meetings.ErrMeetingNotFound
	}
	return nil
}
