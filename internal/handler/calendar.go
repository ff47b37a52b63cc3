package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/adventjoy/calendar-server-go/internal/audit"
	"github.com/adventjoy/calendar-server-go/internal/config"
	apperrors "github.com/adventjoy/calendar-server-go/internal/errors"
	"github.com/adventjoy/calendar-server-go/internal/middleware"
	"github.com/adventjoy/calendar-server-go/internal/service"
	"github.com/adventjoy/calendar-server-go/internal/sse"
)

// CalendarHandler serves the recipient's calendar: day states and the
// open-day operation. Every route is recipient-session-scoped, and the
// calendar id always comes from the session payload, never from the
// request.
type CalendarHandler struct {
	unlockService *service.UnlockService
	broker        *sse.Broker
}

func NewCalendarHandler(unlockService *service.UnlockService, broker *sse.Broker) *CalendarHandler {
	return &CalendarHandler{
		unlockService: unlockService,
		broker:        broker,
	}
}

func (h *CalendarHandler) Routes(sessionMw *middleware.SessionMiddleware) chi.Router {
	r := chi.NewRouter()

	r.Use(sessionMw.RequireRecipient)
	r.Get("/days", h.ListDays)
	r.Post("/days/{dayNumber}/open", h.OpenDay)

	return r
}

// GET /calendar/days
func (h *CalendarHandler) ListDays(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetRecipientSession(r.Context())
	if sess == nil {
		writeError(w, apperrors.Unauthorized("Unauthorized"))
		return
	}

	days, err := h.unlockService.ListDays(r.Context(), sess.CalendarID)
	if err != nil {
		log.Error().Err(err).Msg("failed to list days")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"days": days})
}

// POST /calendar/days/{dayNumber}/open
func (h *CalendarHandler) OpenDay(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetRecipientSession(r.Context())
	if sess == nil {
		writeError(w, apperrors.Unauthorized("Unauthorized"))
		return
	}

	day, err := strconv.Atoi(chi.URLParam(r, "dayNumber"))
	if err != nil || day < 1 || day > config.CalendarDays {
		writeError(w, apperrors.InvalidInput("dayNumber", "must be 1..24"))
		return
	}

	result, err := h.unlockService.TryOpen(r.Context(), sess.CalendarID, day)
	if err != nil {
		writeError(w, err)
		return
	}

	if result.FirstTime {
		audit.LogFromRequest(r, audit.Event{
			Type:       audit.EventDayOpened,
			BuyerID:    sess.BuyerID,
			CalendarID: sess.CalendarID,
			Details:    map[string]interface{}{"day": day},
		})
		if err := h.broker.PublishDayOpened(r.Context(), sess.BuyerID, sess.CalendarID, day); err != nil {
			log.Warn().Err(err).Msg("failed to publish day_opened event")
		}
	}

	writeJSON(w, http.StatusOK, result)
}
