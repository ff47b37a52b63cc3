package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	apperrors "github.com/adventjoy/calendar-server-go/internal/errors"
	"github.com/adventjoy/calendar-server-go/internal/model"
	"github.com/adventjoy/calendar-server-go/internal/repository"
	"github.com/adventjoy/calendar-server-go/internal/util"
)

// PaymentEvent is the upstream "payment succeeded" notification. The
// payment provider's API semantics are out of scope; this is the narrow
// shape this service consumes.
type PaymentEvent struct {
	BuyerEmail string `json:"buyerEmail"`
	BuyerName  string `json:"buyerName"`
	Plan       string `json:"plan"`
	AmountPaid int64  `json:"amountPaid"`
}

// ProvisionResult carries the buyer and the one-time login token minted
// for them. The token is handed to the notifier and never stored.
type ProvisionResult struct {
	Buyer      *model.Buyer
	LoginToken string
	NewBuyer   bool
}

// BuyerService provisions buyers from payment events and authenticates
// their one-time login tokens.
type BuyerService struct {
	buyerRepo repository.BuyerRepository
}

func NewBuyerService(buyerRepo repository.BuyerRepository) *BuyerService {
	return &BuyerService{buyerRepo: buyerRepo}
}

// ProvisionFromPayment creates a buyer for a successful payment.
// Idempotent under duplicate delivery: an existing buyer for the same
// email is returned unchanged and no new token is minted.
func (s *BuyerService) ProvisionFromPayment(ctx context.Context, event PaymentEvent) (*ProvisionResult, error) {
	if event.BuyerEmail == "" {
		return nil, apperrors.MissingRequired("buyerEmail")
	}

	plan, ok := model.ParsePlan(event.Plan)
	if !ok {
		return nil, apperrors.InvalidInput("plan", fmt.Sprintf("unknown plan %q", event.Plan))
	}

	existing, err := s.buyerRepo.FindByEmail(ctx, event.BuyerEmail)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if existing != nil {
		log.Info().Str("buyerId", existing.ID).Msg("duplicate payment event, buyer already provisioned")
		return &ProvisionResult{Buyer: existing, NewBuyer: false}, nil
	}

	loginToken, err := util.GenerateLinkToken()
	if err != nil {
		return nil, apperrors.Internal("Failed to generate login token").WithCause(err)
	}

	buyer, err := s.buyerRepo.Create(ctx, model.CreateBuyerParams{
		ID:               uuid.NewString(),
		Email:            event.BuyerEmail,
		Name:             event.BuyerName,
		Plan:             plan,
		LoginTokenDigest: util.DigestToken(loginToken),
	})
	if err != nil {
		return nil, apperrors.Database(err)
	}

	log.Info().
		Str("buyerId", buyer.ID).
		Str("plan", string(plan)).
		Msg("buyer provisioned from payment")

	return &ProvisionResult{Buyer: buyer, LoginToken: loginToken, NewBuyer: true}, nil
}

// Login exchanges a one-time login token for the buyer it belongs to.
// Lookup and invalidation are one conditional statement in the store,
// so a token works exactly once even under concurrent use.
func (s *BuyerService) Login(ctx context.Context, loginToken string) (*model.Buyer, error) {
	if !util.IsValidLinkToken(loginToken) {
		return nil, apperrors.InvalidCredentials()
	}

	buyer, err := s.buyerRepo.ConsumeLoginToken(ctx, util.DigestToken(loginToken))
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if buyer == nil {
		log.Warn().Msg("buyer login: unknown login token")
		return nil, apperrors.InvalidCredentials()
	}

	log.Info().Str("buyerId", buyer.ID).Msg("buyer logged in")
	return buyer, nil
}
