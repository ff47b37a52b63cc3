package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/adventjoy/calendar-server-go/internal/audit"
	"github.com/adventjoy/calendar-server-go/internal/config"
	apperrors "github.com/adventjoy/calendar-server-go/internal/errors"
	"github.com/adventjoy/calendar-server-go/internal/middleware"
	"github.com/adventjoy/calendar-server-go/internal/service"
	"github.com/adventjoy/calendar-server-go/internal/session"
)

// BuyerHandler serves the buyer surface: login, calendar creation (the
// one-time disclosure of the recipient credentials) and envelope
// content editing.
type BuyerHandler struct {
	buyerService  *service.BuyerService
	accessService *service.AccessService
	unlockService *service.UnlockService
	notifier      service.Notifier
	issuer        *session.Issuer
	limiter       *service.RateLimiter
	cfg           *config.Config
	isProduction  bool
}

func NewBuyerHandler(
	buyerService *service.BuyerService,
	accessService *service.AccessService,
	unlockService *service.UnlockService,
	notifier service.Notifier,
	issuer *session.Issuer,
	limiter *service.RateLimiter,
	cfg *config.Config,
	isProduction bool,
) *BuyerHandler {
	return &BuyerHandler{
		buyerService:  buyerService,
		accessService: accessService,
		unlockService: unlockService,
		notifier:      notifier,
		issuer:        issuer,
		limiter:       limiter,
		cfg:           cfg,
		isProduction:  isProduction,
	}
}

func (h *BuyerHandler) Routes(sessionMw *middleware.SessionMiddleware) chi.Router {
	r := chi.NewRouter()

	r.Post("/session", h.Login)

	r.Group(func(r chi.Router) {
		r.Use(sessionMw.RequireBuyer)
		r.Post("/calendars", h.CreateCalendar)
		r.Put("/calendars/{calendarId}/days/{dayNumber}", h.SetDayContent)
	})

	return r
}

type buyerLoginRequest struct {
	LoginToken string `json:"loginToken"`
}

// POST /buyer/session
func (h *BuyerHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req buyerLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.InvalidInput("body", "invalid JSON"))
		return
	}

	if allowed, _ := h.limiter.CheckLimit(ctx, "buyer_login:"+clientIP(r),
		config.LoginAttemptsPerWindow, config.LoginWindow); !allowed {
		audit.LogFromRequest(r, audit.Event{Type: audit.EventRateLimitExceed})
		writeError(w, apperrors.RateLimitExceeded())
		return
	}

	buyer, err := h.buyerService.Login(ctx, req.LoginToken)
	if err != nil {
		audit.LogFromRequest(r, audit.Event{Type: audit.EventBuyerLoginFail})
		writeError(w, err)
		return
	}

	credential, err := h.issuer.IssueBuyer(buyer.ID, buyer.Plan, buyer.Name)
	if err != nil {
		log.Error().Err(err).Msg("failed to issue buyer session")
		writeError(w, apperrors.Internal("Failed to create session"))
		return
	}

	middleware.SetSessionCookie(w, middleware.BuyerSessionCookie, credential,
		"/buyer", h.cfg.SessionTTL(), h.isProduction)

	audit.LogFromRequest(r, audit.Event{Type: audit.EventBuyerLogin, BuyerID: buyer.ID})

	writeJSON(w, http.StatusOK, map[string]any{
		"buyerId": buyer.ID,
		"name":    buyer.Name,
		"plan":    buyer.Plan,
	})
}

type createCalendarRequest struct {
	RecipientName string `json:"recipientName"`
	Title         string `json:"title"`
	StartDate     string `json:"startDate"`
	Timezone      string `json:"timezone"`
}

// POST /buyer/calendars
//
// The response is the single disclosure of the plaintext token and
// code. They are not recoverable afterward.
func (h *BuyerHandler) CreateCalendar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := middleware.GetBuyerSession(ctx)
	if sess == nil {
		writeError(w, apperrors.Unauthorized("Unauthorized"))
		return
	}

	var req createCalendarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.InvalidInput("body", "invalid JSON"))
		return
	}
	if req.RecipientName == "" {
		writeError(w, apperrors.MissingRequired("recipientName"))
		return
	}

	result, err := h.accessService.Issue(ctx, service.IssueParams{
		BuyerID:       sess.BuyerID,
		RecipientName: req.RecipientName,
		Title:         req.Title,
		StartDate:     req.StartDate,
		Timezone:      req.Timezone,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:       audit.EventAccessIssued,
		BuyerID:    sess.BuyerID,
		CalendarID: result.CalendarID,
	})

	if err := h.notifier.NotifyIssued(ctx, service.Notification{
		RecipientName: req.RecipientName,
		ShareURL:      result.ShareURL,
		AccessCode:    result.Code,
	}); err != nil {
		log.Warn().Err(err).Msg("issuance notification failed")
	}

	writeJSON(w, http.StatusCreated, result)
}

type setDayContentRequest struct {
	Content  string  `json:"content"`
	MediaURL *string `json:"mediaUrl"`
}

// PUT /buyer/calendars/{calendarId}/days/{dayNumber}
func (h *BuyerHandler) SetDayContent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := middleware.GetBuyerSession(ctx)
	if sess == nil {
		writeError(w, apperrors.Unauthorized("Unauthorized"))
		return
	}

	calendarID := chi.URLParam(r, "calendarId")
	day, err := strconv.Atoi(chi.URLParam(r, "dayNumber"))
	if err != nil || day < 1 || day > config.CalendarDays {
		writeError(w, apperrors.InvalidInput("dayNumber", "must be 1..24"))
		return
	}

	var req setDayContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.InvalidInput("body", "invalid JSON"))
		return
	}

	if err := h.unlockService.SetDayContentForBuyer(ctx, sess.BuyerID, calendarID, day, req.Content, req.MediaURL); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"updated": true})
}
