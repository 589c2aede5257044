package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the wire and storage format of a calendar date.
const DateLayout = "2006-01-02"

// Date is a calendar date without a time or time zone.
// The zero value means "no date".
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// IsZero reports whether d is the zero date.
func (d Date) IsZero() bool {
	return d == Date{}
}

// Time returns midnight UTC of d.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// String returns d in YYYY-MM-DD form, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Time().Format(DateLayout)
}

// MarshalJSON encodes d as "YYYY-MM-DD", or null for the zero date.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes "YYYY-MM-DD" or null.
func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ClockLayout is the wire and storage format of a meeting start time.
const ClockLayout = "15:04"

// MeetingLevel is the audience a meeting is held for.
type MeetingLevel string

// Meeting levels offered by the calendar.
const (
	LevelTeam       MeetingLevel = "Team"
	LevelDepartment MeetingLevel = "Department"
	LevelCompany    MeetingLevel = "Company"
)

// IsValid reports whether l is a known level.
func (l MeetingLevel) IsValid() bool {
	switch l {
	case LevelTeam, LevelDepartment, LevelCompany:
		return true
	}
	return false
}

// Meeting is a scheduled meeting shown on the CV site calendar.
type Meeting struct {
	ID           int64         `json:"id"`
	Title        string        `json:"title"`
	Description  *string       `json:"description"`
	Date         Date          `json:"date"`
	Time         *string       `json:"time"`
	Level        *MeetingLevel `json:"level"`
	Participants []string      `json:"participants"`
	CreatorID    *string       `json:"creator_id"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}
