package audit

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type EventType string

const (
	EventAccessIssued     EventType = "access_issued"
	EventAccessRevoked    EventType = "access_revoked"
	EventVerifySuccess    EventType = "verify_success"
	EventVerifyFailure    EventType = "verify_failure"
	EventBuyerLogin       EventType = "buyer_login"
	EventBuyerLoginFail   EventType = "buyer_login_failure"
	EventAdminLogin       EventType = "admin_login_success"
	EventAdminLoginFail   EventType = "admin_login_failure"
	EventAdminLogout      EventType = "admin_logout"
	EventDayOpened        EventType = "day_opened"
	EventForceUnlock      EventType = "force_unlock"
	EventRateLimitExceed  EventType = "rate_limit_exceeded"
	EventCSRFFailure      EventType = "csrf_failure"
	EventSignatureFailure EventType = "webhook_signature_failure"
)

type Event struct {
	Type       EventType
	BuyerID    string
	CalendarID string
	IP         string
	UserAgent  string
	Details    map[string]interface{}
}

func Log(ctx context.Context, event Event) {
	logger := log.With().
		Str("audit", "security").
		Str("event_type", string(event.Type)).
		Time("timestamp", time.Now()).
		Logger()

	if event.BuyerID != "" {
		logger = logger.With().Str("buyer_id", event.BuyerID).Logger()
	}
	if event.CalendarID != "" {
		logger = logger.With().Str("calendar_id", event.CalendarID).Logger()
	}
	if event.IP != "" {
		logger = logger.With().Str("ip", event.IP).Logger()
	}
	if event.UserAgent != "" {
		logger = logger.With().Str("user_agent", event.UserAgent).Logger()
	}

	logEvent := logger.Info()
	for k, v := range event.Details {
		logEvent = addField(logEvent, k, v)
	}
	logEvent.Msg("security audit event")
}

func addField(e *zerolog.Event, key string, value interface{}) *zerolog.Event {
	switch v := value.(type) {
	case string:
		return e.Str(key, v)
	case int:
		return e.Int(key, v)
	case int64:
		return e.Int64(key, v)
	case bool:
		return e.Bool(key, v)
	default:
		return e.Interface(key, v)
	}
}

func LogFromRequest(r *http.Request, event Event) {
	event.IP = getClientIP(r)
	event.UserAgent = r.UserAgent()
	Log(r.Context(), event)
}

func getClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return r.RemoteAddr
}
