package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/adventjoy/calendar-server-go/internal/session"
)

const (
	RecipientSessionCookie = "calendar_session"
	BuyerSessionCookie     = "buyer_session"
	AdminSessionCookie     = "admin_session"
)

type contextKey string

const (
	RecipientContextKey contextKey = "recipientSession"
	BuyerContextKey     contextKey = "buyerSession"
)

func GetRecipientSession(ctx context.Context) *session.Payload {
	if p, ok := ctx.Value(RecipientContextKey).(*session.Payload); ok {
		return p
	}
	return nil
}

func GetBuyerSession(ctx context.Context) *session.Payload {
	if p, ok := ctx.Value(BuyerContextKey).(*session.Payload); ok {
		return p
	}
	return nil
}

// SessionMiddleware guards endpoints with the signed session credential.
// The cookie is verified on every read; there is no server-side session
// state to fall back on, and an unsigned or foreign cookie never passes.
type SessionMiddleware struct {
	issuer *session.Issuer
}

func NewSessionMiddleware(issuer *session.Issuer) *SessionMiddleware {
	return &SessionMiddleware{issuer: issuer}
}

// RequireRecipient admits only recipient-scoped credentials. The
// payload carries the calendar id the credential was verified against;
// handlers must use that id, never one from the request.
func (m *SessionMiddleware) RequireRecipient(next http.Handler) http.Handler {
	return m.require(next, RecipientSessionCookie, session.ScopeRecipient, RecipientContextKey)
}

// RequireBuyer admits only buyer-scoped credentials.
func (m *SessionMiddleware) RequireBuyer(next http.Handler) http.Handler {
	return m.require(next, BuyerSessionCookie, session.ScopeBuyer, BuyerContextKey)
}

func (m *SessionMiddleware) require(next http.Handler, cookieName string, scope session.Scope, key contextKey) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(cookieName)
		if err != nil || cookie.Value == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Unauthorized",
			})
			return
		}

		payload, err := m.issuer.Verify(cookie.Value, scope)
		if err != nil {
			log.Warn().Str("scope", string(scope)).Msg("session middleware: invalid credential")
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Invalid or expired session",
			})
			return
		}

		ctx := context.WithValue(r.Context(), key, payload)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func SetSessionCookie(w http.ResponseWriter, name, token string, path string, maxAge time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    token,
		Path:     path,
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearSessionCookie(w http.ResponseWriter, name, path string) {
	http.SetCookie(w, &http.Cookie{
		Name:   name,
		Value:  "",
		Path:   path,
		MaxAge: -1,
	})
}
