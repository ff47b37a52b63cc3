package model

import (
	"time"
)

// DaySlot is one of the 24 daily content units of a calendar.
// OpenedAt is write-once: the store sets it at most one time, and only
// at or after ScheduledUnlockAt.
type DaySlot struct {
	CalendarID        string     `db:"calendar_id" json:"calendarId"`
	DayNumber         int        `db:"day_number" json:"dayNumber"`
	ScheduledUnlockAt time.Time  `db:"scheduled_unlock_at" json:"scheduledUnlockAt"`
	OpenedAt          *time.Time `db:"opened_at" json:"openedAt,omitempty"`
	Content           string     `db:"content" json:"-"`
	MediaURL          *string    `db:"media_url" json:"-"`
}

// CreateDaySlotParams contains parameters for one slot row.
type CreateDaySlotParams struct {
	CalendarID        string
	DayNumber         int
	ScheduledUnlockAt time.Time
	Content           string
	MediaURL          *string
}

// IsOpenable reports whether the slot's scheduled instant has passed.
// The boundary is inclusive: a slot is openable exactly at its
// scheduled instant.
func (s *DaySlot) IsOpenable(now time.Time) bool {
	return !now.Before(s.ScheduledUnlockAt)
}

// IsOpened checks if the slot has already been opened.
func (s *DaySlot) IsOpened() bool {
	return s.OpenedAt != nil
}
