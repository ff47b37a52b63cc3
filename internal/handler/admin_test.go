package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

func newAdminRequest(t *testing.T, path, param, value string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(param, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestAdminHandler_RevokeAccess(t *testing.T) {
	t.Run("rejects a malformed access id", func(t *testing.T) {
		h := NewAdminHandler(nil, nil, nil, false)

		for _, id := range []string{"", "not-a-uuid", "1 OR 1=1"} {
			rec := httptest.NewRecorder()
			h.RevokeAccess(rec, newAdminRequest(t, "/admin/access/x/revoke", "accessId", id))
			assert.Equal(t, http.StatusBadRequest, rec.Code, "id %q", id)
		}
	})
}

func TestAdminHandler_ForceUnlock(t *testing.T) {
	t.Run("rejects a malformed calendar id", func(t *testing.T) {
		h := NewAdminHandler(nil, nil, nil, false)

		rec := httptest.NewRecorder()
		h.ForceUnlock(rec, newAdminRequest(t, "/admin/calendars/x/force-unlock", "calendarId", "not-a-uuid"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
