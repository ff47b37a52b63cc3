package service

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Notification carries everything the outbound channel needs for the
// one-time disclosure to the buyer. Delivery guarantees are the
// notifier's problem, not this service's.
type Notification struct {
	RecipientName string
	ShareURL      string
	AccessCode    string
	BuyerEmail    string
	BuyerLoginURL string
}

// Notifier delivers issuance notifications. Production deployments plug
// in a mail provider; the default implementation only logs that a
// delivery is due, never the secrets themselves.
type Notifier interface {
	NotifyIssued(ctx context.Context, n Notification) error
	NotifyBuyerProvisioned(ctx context.Context, email, loginURL string) error
}

type logNotifier struct{}

// NewLogNotifier returns a Notifier that records deliveries in the log
// without the secret material.
func NewLogNotifier() Notifier {
	return logNotifier{}
}

func (logNotifier) NotifyIssued(ctx context.Context, n Notification) error {
	log.Info().
		Str("recipientName", n.RecipientName).
		Str("buyerEmail", n.BuyerEmail).
		Msg("issuance notification due (no outbound channel configured)")
	return nil
}

func (logNotifier) NotifyBuyerProvisioned(ctx context.Context, email, loginURL string) error {
	log.Info().
		Str("buyerEmail", email).
		Msg("buyer login notification due (no outbound channel configured)")
	return nil
}
