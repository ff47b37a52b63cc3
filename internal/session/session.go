package session

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	apperrors "github.com/adventjoy/calendar-server-go/internal/errors"
	"github.com/adventjoy/calendar-server-go/internal/model"
	"github.com/adventjoy/calendar-server-go/internal/util"
)

// Scope identifies who a session credential speaks for.
type Scope string

const (
	ScopeRecipient Scope = "recipient"
	ScopeBuyer     Scope = "buyer"
)

// Payload is the signed content of a session credential. Recipient
// sessions always embed the calendar id they were verified against;
// every later use must check that id against the resource accessed.
type Payload struct {
	Scope       Scope      `json:"scope"`
	BuyerID     string     `json:"buyerId"`
	RecipientID string     `json:"recipientId,omitempty"`
	CalendarID  string     `json:"calendarId,omitempty"`
	Plan        model.Plan `json:"plan,omitempty"`
	Name        string     `json:"name,omitempty"`
	IssuedAt    int64      `json:"iat"`
	ExpiresAt   int64      `json:"exp"`
}

// Issuer mints and verifies signed, expiring session credentials.
// Credentials are stateless: validity is fully determined by signature
// plus expiry. Rotating the secret invalidates all outstanding sessions.
type Issuer struct {
	secret string
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: secret, ttl: ttl, now: time.Now}
}

// NewIssuerAt is like NewIssuer with an injectable clock, for tests.
func NewIssuerAt(secret string, ttl time.Duration, now func() time.Time) *Issuer {
	return &Issuer{secret: secret, ttl: ttl, now: now}
}

// IssueRecipient mints a credential scoped to {recipient, calendar}.
func (i *Issuer) IssueRecipient(calendarID, recipientID, buyerID string) (string, error) {
	now := i.now()
	return i.sign(Payload{
		Scope:       ScopeRecipient,
		BuyerID:     buyerID,
		RecipientID: recipientID,
		CalendarID:  calendarID,
		IssuedAt:    now.Unix(),
		ExpiresAt:   now.Add(i.ttl).Unix(),
	})
}

// IssueBuyer mints a credential scoped to {buyer}.
func (i *Issuer) IssueBuyer(buyerID string, plan model.Plan, name string) (string, error) {
	now := i.now()
	return i.sign(Payload{
		Scope:     ScopeBuyer,
		BuyerID:   buyerID,
		Plan:      plan,
		Name:      name,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(i.ttl).Unix(),
	})
}

func (i *Issuer) sign(p Payload) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	encoded := base64.RawURLEncoding.EncodeToString(data)
	sig := util.HmacSHA256(i.secret, encoded)
	return encoded + "." + sig, nil
}

// Verify checks signature and expiry and requires the credential's scope
// to match what the calling endpoint expects. A buyer credential never
// satisfies a recipient-scoped check and vice versa. All failures
// collapse to the same generic error.
func (i *Issuer) Verify(credential string, want Scope) (*Payload, error) {
	encoded, sig, ok := strings.Cut(credential, ".")
	if !ok || encoded == "" || sig == "" {
		return nil, apperrors.InvalidSignature()
	}

	expected := util.HmacSHA256(i.secret, encoded)
	if !util.ConstantTimeEqual(expected, sig) {
		return nil, apperrors.InvalidSignature()
	}

	data, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, apperrors.InvalidSignature()
	}

	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, apperrors.InvalidSignature()
	}

	if i.now().Unix() >= p.ExpiresAt {
		return nil, apperrors.SessionExpired()
	}
	if p.Scope != want {
		return nil, apperrors.InvalidSignature()
	}

	return &p, nil
}
