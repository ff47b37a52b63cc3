package middleware

import (
	"bytes"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/adventjoy/calendar-server-go/internal/audit"
	"github.com/adventjoy/calendar-server-go/internal/util"
)

// WebhookSignatureMiddleware verifies the HMAC signature the payment
// provider attaches to webhook deliveries. Without a configured secret
// the check is bypassed, which is only acceptable outside production.
type WebhookSignatureMiddleware struct {
	secret string
}

func NewWebhookSignatureMiddleware(secret string) *WebhookSignatureMiddleware {
	return &WebhookSignatureMiddleware{secret: secret}
}

func (m *WebhookSignatureMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.secret == "" {
			log.Warn().Msg("webhook signature verification bypassed: PAYMENT_WEBHOOK_SECRET is not configured")
			next.ServeHTTP(w, r)
			return
		}

		signature := r.Header.Get("X-Webhook-Signature")
		if signature == "" {
			log.Warn().Msg("webhook signature middleware: missing signature header")
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Missing signature",
			})
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			log.Error().Err(err).Msg("webhook signature middleware: failed to read body")
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "Failed to read request body",
			})
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		computed := util.HmacSHA256(m.secret, string(body))
		if !util.ConstantTimeEqual(computed, signature) {
			audit.LogFromRequest(r, audit.Event{Type: audit.EventSignatureFailure})
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Invalid signature",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
