package model

import (
	"time"
)

// Calendar is one purchased 24-day gift calendar.
type Calendar struct {
	ID          string    `db:"id" json:"id"`
	BuyerID     string    `db:"buyer_id" json:"buyerId"`
	RecipientID string    `db:"recipient_id" json:"recipientId"`
	Title       string    `db:"title" json:"title"`
	StartDate   time.Time `db:"start_date" json:"startDate"`
	Timezone    string    `db:"timezone" json:"timezone"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// CreateCalendarParams contains parameters for creating a calendar.
type CreateCalendarParams struct {
	ID          string
	BuyerID     string
	RecipientID string
	Title       string
	StartDate   time.Time
	Timezone    string
}

// Location resolves the calendar's timezone, falling back to the given
// default when unset or unknown. Unlock instants are local midnight in
// this location, not UTC midnight.
func (c *Calendar) Location(fallback string) *time.Location {
	if loc, err := time.LoadLocation(c.Timezone); err == nil && c.Timezone != "" {
		return loc
	}
	if loc, err := time.LoadLocation(fallback); err == nil {
		return loc
	}
	return time.UTC
}
