package model

import (
	"time"
)

// CalendarAccess binds a calendar to the digests of its recipient
// credentials. Only digests are stored; the plaintext token and code
// exist once, in the issuance response. Immutable except status, which
// moves forward only.
type CalendarAccess struct {
	ID          string       `db:"id" json:"id"`
	CalendarID  string       `db:"calendar_id" json:"calendarId"`
	BuyerID     string       `db:"buyer_id" json:"buyerId"`
	RecipientID string       `db:"recipient_id" json:"recipientId"`
	TokenDigest string       `db:"token_digest" json:"-"`
	CodeDigest  string       `db:"code_digest" json:"-"`
	ExpiresAt   time.Time    `db:"expires_at" json:"expiresAt"`
	Status      AccessStatus `db:"status" json:"status"`
	CreatedAt   time.Time    `db:"created_at" json:"createdAt"`
	RevokedAt   *time.Time   `db:"revoked_at" json:"revokedAt,omitempty"`
}

// CreateCalendarAccessParams contains parameters for persisting a new
// access record.
type CreateCalendarAccessParams struct {
	ID          string
	CalendarID  string
	BuyerID     string
	RecipientID string
	TokenDigest string
	CodeDigest  string
	ExpiresAt   time.Time
}

// IsExpired checks if the record's TTL has elapsed.
func (a *CalendarAccess) IsExpired(now time.Time) bool {
	return now.After(a.ExpiresAt)
}

// IsVerifiable reports whether the record can still satisfy a
// verification attempt.
func (a *CalendarAccess) IsVerifiable(now time.Time) bool {
	return a.Status == AccessStatusActive && !a.IsExpired(now)
}
