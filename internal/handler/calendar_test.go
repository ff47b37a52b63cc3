package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/adventjoy/calendar-server-go/internal/middleware"
	"github.com/adventjoy/calendar-server-go/internal/session"
)

func withRecipientSession(ctx context.Context, payload *session.Payload) context.Context {
	return context.WithValue(ctx, middleware.RecipientContextKey, payload)
}

func withBuyerSession(ctx context.Context, payload *session.Payload) context.Context {
	return context.WithValue(ctx, middleware.BuyerContextKey, payload)
}

func TestCalendarHandler_ListDays(t *testing.T) {
	t.Run("returns 401 without a session in context", func(t *testing.T) {
		h := NewCalendarHandler(nil, nil)

		req := httptest.NewRequest(http.MethodGet, "/calendar/days", nil)
		rec := httptest.NewRecorder()

		h.ListDays(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestCalendarHandler_OpenDay(t *testing.T) {
	sess := &session.Payload{
		Scope:      session.ScopeRecipient,
		CalendarID: "cal-1",
		BuyerID:    "buyer-1",
	}

	newOpenRequest := func(day string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/calendar/days/"+day+"/open", nil)
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("dayNumber", day)
		ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
		return req.WithContext(withRecipientSession(ctx, sess))
	}

	t.Run("returns 401 without a session in context", func(t *testing.T) {
		h := NewCalendarHandler(nil, nil)

		req := httptest.NewRequest(http.MethodPost, "/calendar/days/1/open", nil)
		rec := httptest.NewRecorder()

		h.OpenDay(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects day numbers outside 1..24", func(t *testing.T) {
		h := NewCalendarHandler(nil, nil)

		for _, day := range []string{"0", "25", "-1", "abc", ""} {
			rec := httptest.NewRecorder()
			h.OpenDay(rec, newOpenRequest(day))
			assert.Equal(t, http.StatusBadRequest, rec.Code, "day %q", day)
		}
	})
}
