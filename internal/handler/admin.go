package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/adventjoy/calendar-server-go/internal/audit"
	apperrors "github.com/adventjoy/calendar-server-go/internal/errors"
	"github.com/adventjoy/calendar-server-go/internal/middleware"
	"github.com/adventjoy/calendar-server-go/internal/service"
	"github.com/adventjoy/calendar-server-go/internal/util"
)

const adminCookieTTL = 24 * time.Hour

// AdminHandler exposes the operator surface: revocation, force-unlock
// and the access-record overview. Everything except login sits behind
// the admin session check.
type AdminHandler struct {
	adminService  *service.AdminService
	accessService *service.AccessService
	unlockService *service.UnlockService
	isProduction  bool
}

func NewAdminHandler(
	adminService *service.AdminService,
	accessService *service.AccessService,
	unlockService *service.UnlockService,
	isProduction bool,
) *AdminHandler {
	return &AdminHandler{
		adminService:  adminService,
		accessService: accessService,
		unlockService: unlockService,
		isProduction:  isProduction,
	}
}

func (h *AdminHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/login", h.Login)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAdmin)
		r.Post("/logout", h.Logout)
		r.Get("/access", h.ListAccess)
		r.Post("/access/{accessId}/revoke", h.RevokeAccess)
		r.Post("/calendars/{calendarId}/force-unlock", h.ForceUnlock)
	})

	return r
}

func (h *AdminHandler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.adminService.Configured() {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"error": "Admin not configured",
			})
			return
		}

		cookie, err := r.Cookie(middleware.AdminSessionCookie)
		if err != nil || cookie.Value == "" {
			writeError(w, apperrors.Unauthorized("Unauthorized"))
			return
		}

		if err := h.adminService.ValidateSession(r.Context(), cookie.Value); err != nil {
			writeError(w, err)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type adminLoginRequest struct {
	Password string `json:"password"`
}

// POST /admin/login
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req adminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.InvalidInput("body", "invalid JSON"))
		return
	}

	token, err := h.adminService.Login(r.Context(), req.Password)
	if err != nil {
		audit.LogFromRequest(r, audit.Event{Type: audit.EventAdminLoginFail})
		writeError(w, err)
		return
	}

	middleware.SetSessionCookie(w, middleware.AdminSessionCookie, token,
		"/admin", adminCookieTTL, h.isProduction)

	audit.LogFromRequest(r, audit.Event{Type: audit.EventAdminLogin})
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// POST /admin/logout
func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.AdminSessionCookie); err == nil {
		_ = h.adminService.Logout(r.Context(), cookie.Value)
	}
	middleware.ClearSessionCookie(w, middleware.AdminSessionCookie, "/admin")
	audit.LogFromRequest(r, audit.Event{Type: audit.EventAdminLogout})
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// GET /admin/access
func (h *AdminHandler) ListAccess(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	records, err := h.adminService.ListAccess(r.Context(), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"records": records})
}

// POST /admin/access/{accessId}/revoke
func (h *AdminHandler) RevokeAccess(w http.ResponseWriter, r *http.Request) {
	accessID := chi.URLParam(r, "accessId")
	if !util.IsValidUUID(accessID) {
		writeError(w, apperrors.InvalidInput("accessId", "must be a UUID"))
		return
	}

	if err := h.accessService.Revoke(r.Context(), accessID); err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:    audit.EventAccessRevoked,
		Details: map[string]interface{}{"accessId": accessID},
	})
	writeJSON(w, http.StatusOK, map[string]any{"revoked": true})
}

// POST /admin/calendars/{calendarId}/force-unlock
func (h *AdminHandler) ForceUnlock(w http.ResponseWriter, r *http.Request) {
	calendarID := chi.URLParam(r, "calendarId")
	if !util.IsValidUUID(calendarID) {
		writeError(w, apperrors.InvalidInput("calendarId", "must be a UUID"))
		return
	}

	count, err := h.unlockService.ForceUnlockAll(r.Context(), calendarID)
	if err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:       audit.EventForceUnlock,
		CalendarID: calendarID,
		Details:    map[string]interface{}{"slots": count},
	})
	writeJSON(w, http.StatusOK, map[string]any{"unlocked": count})
}
