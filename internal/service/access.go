package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/adventjoy/calendar-server-go/internal/config"
	"github.com/adventjoy/calendar-server-go/internal/database"
	apperrors "github.com/adventjoy/calendar-server-go/internal/errors"
	"github.com/adventjoy/calendar-server-go/internal/model"
	"github.com/adventjoy/calendar-server-go/internal/repository"
	"github.com/adventjoy/calendar-server-go/internal/util"
)

// IssueParams describes a calendar purchase ready for provisioning.
// StartDate is a plain YYYY-MM-DD date, interpreted in the calendar's
// timezone; empty means the next upcoming December 1st.
type IssueParams struct {
	BuyerID       string
	RecipientName string
	Title         string
	StartDate     string
	Timezone      string
}

// IssueResult carries the plaintext secrets exactly once. Nothing in
// the system can recover them afterward; only digests are stored.
type IssueResult struct {
	CalendarID string    `json:"calendarId"`
	Token      string    `json:"token"`
	Code       string    `json:"code"`
	ShareURL   string    `json:"shareUrl"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// VerifyResult identifies the calendar a credential pair unlocked.
type VerifyResult struct {
	CalendarID    string `json:"calendarId"`
	BuyerID       string `json:"buyerId"`
	RecipientID   string `json:"recipientId"`
	RecipientName string `json:"recipientName"`
}

// transactor runs a function inside one database transaction.
// *database.DB satisfies it; tests substitute their own.
type transactor interface {
	WithTx(ctx context.Context, fn database.TxFunc) error
}

// AccessService mints and verifies recipient access credentials.
type AccessService struct {
	db            transactor
	buyerRepo     repository.BuyerRepository
	recipientRepo repository.RecipientRepository
	calendarRepo  repository.CalendarRepository
	accessRepo    repository.AccessRepository
	slotRepo      repository.SlotRepository
	cfg           *config.Config
	now           func() time.Time
}

func NewAccessService(
	db transactor,
	buyerRepo repository.BuyerRepository,
	recipientRepo repository.RecipientRepository,
	calendarRepo repository.CalendarRepository,
	accessRepo repository.AccessRepository,
	slotRepo repository.SlotRepository,
	cfg *config.Config,
) *AccessService {
	return &AccessService{
		db:            db,
		buyerRepo:     buyerRepo,
		recipientRepo: recipientRepo,
		calendarRepo:  calendarRepo,
		accessRepo:    accessRepo,
		slotRepo:      slotRepo,
		cfg:           cfg,
		now:           time.Now,
	}
}

// Issue provisions a calendar with its recipient, access record and 24
// day slots, all in one transaction. Preconditions: the buyer exists
// and has no other active access record. On success the plaintext token
// and code are returned to the caller for one-time disclosure.
func (s *AccessService) Issue(ctx context.Context, params IssueParams) (*IssueResult, error) {
	buyer, err := s.buyerRepo.FindByID(ctx, params.BuyerID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if buyer == nil {
		return nil, apperrors.NotFound("Buyer")
	}

	existing, err := s.accessRepo.FindActiveByBuyerID(ctx, params.BuyerID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if existing != nil {
		return nil, apperrors.Conflict("Buyer already has an active calendar")
	}

	token, err := util.GenerateLinkToken()
	if err != nil {
		return nil, apperrors.Internal("Failed to generate token").WithCause(err)
	}
	code, err := util.GenerateAccessCode()
	if err != nil {
		return nil, apperrors.Internal("Failed to generate access code").WithCause(err)
	}
	codeDigest, err := util.DigestCode(code)
	if err != nil {
		return nil, apperrors.Internal("Failed to digest access code").WithCause(err)
	}
	tokenDigest := util.DigestToken(token)

	tz := params.Timezone
	if tz == "" {
		tz = s.cfg.DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, apperrors.InvalidInput("timezone", "unknown timezone name")
	}

	now := s.now()
	startDate, err := resolveStartDate(params.StartDate, now, loc)
	if err != nil {
		return nil, apperrors.InvalidInput("startDate", "must be YYYY-MM-DD")
	}
	expiresAt := now.Add(s.cfg.AccessTTL())

	calendarID := uuid.NewString()
	recipientID := uuid.NewString()
	accessID := uuid.NewString()

	title := params.Title
	if title == "" {
		title = fmt.Sprintf("Calendar for %s", params.RecipientName)
	}

	// All-or-nothing: a failure after secrets are generated must not
	// leave a record with partial digests.
	err = s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := s.recipientRepo.WithTx(tx).Create(ctx, model.CreateRecipientParams{
			ID:      recipientID,
			BuyerID: params.BuyerID,
			Name:    params.RecipientName,
		}); err != nil {
			return fmt.Errorf("create recipient: %w", err)
		}

		if _, err := s.calendarRepo.WithTx(tx).Create(ctx, model.CreateCalendarParams{
			ID:          calendarID,
			BuyerID:     params.BuyerID,
			RecipientID: recipientID,
			Title:       title,
			StartDate:   startDate,
			Timezone:    tz,
		}); err != nil {
			return fmt.Errorf("create calendar: %w", err)
		}

		if _, err := s.accessRepo.WithTx(tx).Create(ctx, model.CreateCalendarAccessParams{
			ID:          accessID,
			CalendarID:  calendarID,
			BuyerID:     params.BuyerID,
			RecipientID: recipientID,
			TokenDigest: tokenDigest,
			CodeDigest:  codeDigest,
			ExpiresAt:   expiresAt,
		}); err != nil {
			return fmt.Errorf("create access record: %w", err)
		}

		slots := make([]model.CreateDaySlotParams, 0, config.CalendarDays)
		for day := 1; day <= config.CalendarDays; day++ {
			slots = append(slots, model.CreateDaySlotParams{
				CalendarID:        calendarID,
				DayNumber:         day,
				ScheduledUnlockAt: ScheduledUnlockAt(startDate, day, loc),
			})
		}
		if err := s.slotRepo.WithTx(tx).CreateBatch(ctx, slots); err != nil {
			return fmt.Errorf("create day slots: %w", err)
		}

		return nil
	})
	if err != nil {
		// The partial unique index on active records backstops the
		// precondition check when two issuances race each other.
		if isUniqueViolation(err) {
			return nil, apperrors.Conflict("Buyer already has an active calendar")
		}
		return nil, apperrors.Database(err)
	}

	log.Info().
		Str("calendarId", calendarID).
		Str("buyerId", params.BuyerID).
		Str("tokenDigest", util.MaskDigest(tokenDigest)).
		Time("expiresAt", expiresAt).
		Msg("calendar access issued")

	return &IssueResult{
		CalendarID: calendarID,
		Token:      token,
		Code:       code,
		ShareURL:   s.cfg.ShareURL(token),
		ExpiresAt:  expiresAt,
	}, nil
}

// Verify checks a plaintext token + code pair. Failures beyond the
// cheap shape check are indistinguishable: wrong token, wrong code,
// revoked and expired all surface the same generic error, so an
// attacker cannot use the response as an oracle. Read-only on success;
// the caller applies attempt throttling at the boundary.
func (s *AccessService) Verify(ctx context.Context, token, code string) (*VerifyResult, error) {
	if !util.IsValidLinkToken(token) {
		return nil, apperrors.InvalidInput("token", "malformed")
	}
	if !util.IsValidAccessCode(code) {
		return nil, apperrors.InvalidInput("code", "must be 4 digits")
	}

	tokenDigest := util.DigestToken(token)
	access, err := s.accessRepo.FindByTokenDigest(ctx, tokenDigest)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if access == nil {
		log.Warn().Str("tokenDigest", util.MaskDigest(tokenDigest)).Msg("verify: unknown token")
		return nil, apperrors.InvalidCredentials()
	}

	now := s.now()
	if !access.IsVerifiable(now) {
		if access.Status == model.AccessStatusActive && access.IsExpired(now) {
			// Lazy forward-only transition; ignore failure, the
			// cleanup job sweeps stragglers.
			_ = s.accessRepo.MarkExpired(ctx, access.ID)
		}
		log.Warn().Str("accessId", access.ID).Msg("verify: record not verifiable")
		return nil, apperrors.InvalidCredentials()
	}

	if !util.VerifyCode(code, access.CodeDigest) {
		log.Warn().Str("accessId", access.ID).Msg("verify: access code mismatch")
		return nil, apperrors.InvalidCredentials()
	}

	recipient, err := s.recipientRepo.FindByID(ctx, access.RecipientID)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	result := &VerifyResult{
		CalendarID:  access.CalendarID,
		BuyerID:     access.BuyerID,
		RecipientID: access.RecipientID,
	}
	if recipient != nil {
		result.RecipientName = recipient.Name
	}

	log.Info().
		Str("calendarId", access.CalendarID).
		Str("accessId", access.ID).
		Msg("access credentials verified")

	return result, nil
}

// Revoke invalidates an active record. Conditional in the store, so a
// concurrent verification cannot slip past a fresh revocation.
func (s *AccessService) Revoke(ctx context.Context, accessID string) error {
	revoked, err := s.accessRepo.Revoke(ctx, accessID, s.now())
	if err != nil {
		return apperrors.Database(err)
	}
	if !revoked {
		return apperrors.NotFound("Active access record")
	}

	log.Warn().Str("accessId", accessID).Msg("access record revoked")
	return nil
}

// isUniqueViolation reports whether err is a Postgres unique_violation.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// resolveStartDate defaults to the next upcoming December 1st in the
// calendar's timezone, normalized to local midnight.
func resolveStartDate(requested string, now time.Time, loc *time.Location) (time.Time, error) {
	if requested != "" {
		return time.ParseInLocation("2006-01-02", requested, loc)
	}

	local := now.In(loc)
	dec1 := time.Date(local.Year(), time.December, 1, 0, 0, 0, 0, loc)
	if local.After(dec1) {
		dec1 = time.Date(local.Year()+1, time.December, 1, 0, 0, 0, 0, loc)
	}
	return dec1, nil
}
