package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/adventjoy/calendar-server-go/internal/audit"
	"github.com/adventjoy/calendar-server-go/internal/config"
	apperrors "github.com/adventjoy/calendar-server-go/internal/errors"
	"github.com/adventjoy/calendar-server-go/internal/middleware"
	"github.com/adventjoy/calendar-server-go/internal/service"
	"github.com/adventjoy/calendar-server-go/internal/session"
	"github.com/adventjoy/calendar-server-go/internal/util"
)

// AccessHandler serves the recipient-facing verification endpoint under
// the share link path.
type AccessHandler struct {
	accessService *service.AccessService
	issuer        *session.Issuer
	limiter       *service.RateLimiter
	isProduction  bool
	cfg           *config.Config
}

func NewAccessHandler(
	accessService *service.AccessService,
	issuer *session.Issuer,
	limiter *service.RateLimiter,
	cfg *config.Config,
	isProduction bool,
) *AccessHandler {
	return &AccessHandler{
		accessService: accessService,
		issuer:        issuer,
		limiter:       limiter,
		cfg:           cfg,
		isProduction:  isProduction,
	}
}

func (h *AccessHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/{token}/verify", h.Verify)

	return r
}

type verifyRequest struct {
	Code string `json:"code"`
}

// POST /r/{token}/verify
//
// The response never distinguishes wrong token from wrong code from
// expired access. Attempts are throttled per IP and per token: the
// 4-digit code space is small enough to enumerate without a limiter.
func (h *AccessHandler) Verify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token := chi.URLParam(r, "token")

	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.InvalidInput("body", "invalid JSON"))
		return
	}

	ip := clientIP(r)
	if allowed, _ := h.limiter.CheckLimit(ctx, fmt.Sprintf("verify_ip:%s", ip),
		config.VerifyAttemptsPerWindow, config.VerifyWindow); !allowed {
		audit.LogFromRequest(r, audit.Event{Type: audit.EventRateLimitExceed})
		writeError(w, apperrors.RateLimitExceeded())
		return
	}
	if allowed, _ := h.limiter.CheckLimit(ctx, fmt.Sprintf("verify_token:%s", util.DigestToken(token)),
		config.VerifyAttemptsPerWindow, config.VerifyWindow); !allowed {
		audit.LogFromRequest(r, audit.Event{Type: audit.EventRateLimitExceed})
		writeError(w, apperrors.RateLimitExceeded())
		return
	}

	result, err := h.accessService.Verify(ctx, token, req.Code)
	if err != nil {
		audit.LogFromRequest(r, audit.Event{Type: audit.EventVerifyFailure})
		writeError(w, err)
		return
	}

	credential, err := h.issuer.IssueRecipient(result.CalendarID, result.RecipientID, result.BuyerID)
	if err != nil {
		log.Error().Err(err).Msg("failed to issue recipient session")
		writeError(w, apperrors.Internal("Failed to create session"))
		return
	}

	middleware.SetSessionCookie(w, middleware.RecipientSessionCookie, credential,
		"/calendar", h.cfg.SessionTTL(), h.isProduction)

	audit.LogFromRequest(r, audit.Event{
		Type:       audit.EventVerifySuccess,
		BuyerID:    result.BuyerID,
		CalendarID: result.CalendarID,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"calendarId":    result.CalendarID,
		"recipientName": result.RecipientName,
	})
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	return r.RemoteAddr
}
