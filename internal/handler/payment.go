package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/adventjoy/calendar-server-go/internal/config"
	apperrors "github.com/adventjoy/calendar-server-go/internal/errors"
	"github.com/adventjoy/calendar-server-go/internal/service"
)

// PaymentHandler consumes "payment succeeded" events from the payment
// provider. Duplicate delivery is safe: provisioning is idempotent per
// buyer email.
type PaymentHandler struct {
	buyerService *service.BuyerService
	notifier     service.Notifier
	cfg          *config.Config
}

func NewPaymentHandler(buyerService *service.BuyerService, notifier service.Notifier, cfg *config.Config) *PaymentHandler {
	return &PaymentHandler{
		buyerService: buyerService,
		notifier:     notifier,
		cfg:          cfg,
	}
}

func (h *PaymentHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/webhook", h.Webhook)

	return r
}

// POST /payments/webhook
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var event service.PaymentEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		writeError(w, apperrors.InvalidInput("body", "invalid JSON"))
		return
	}

	result, err := h.buyerService.ProvisionFromPayment(ctx, event)
	if err != nil {
		writeError(w, err)
		return
	}

	if result.NewBuyer {
		loginURL := fmt.Sprintf("%s/login/%s", strings.TrimSuffix(h.cfg.BaseURL, "/"), result.LoginToken)
		if err := h.notifier.NotifyBuyerProvisioned(ctx, result.Buyer.Email, loginURL); err != nil {
			log.Warn().Err(err).Msg("buyer provisioning notification failed")
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"received": true,
		"buyerId":  result.Buyer.ID,
	})
}
