package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/adventjoy/calendar-server-go/internal/model"
)

// AccessRepository handles calendar access record operations. Status
// transitions are enforced in SQL: every update is conditional on the
// current status, so a record can never move backward.
type AccessRepository interface {
	Create(ctx context.Context, params model.CreateCalendarAccessParams) (*model.CalendarAccess, error)
	FindByID(ctx context.Context, id string) (*model.CalendarAccess, error)
	FindByTokenDigest(ctx context.Context, digest string) (*model.CalendarAccess, error)
	FindActiveByBuyerID(ctx context.Context, buyerID string) (*model.CalendarAccess, error)
	List(ctx context.Context, limit, offset int) ([]model.CalendarAccess, error)
	Revoke(ctx context.Context, id string, now time.Time) (bool, error)
	MarkExpired(ctx context.Context, id string) error
	ExpireStale(ctx context.Context) (int64, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) AccessRepository
}

type accessRepo struct {
	db DB
}

// NewAccessRepository creates a new access repository
func NewAccessRepository(db *sqlx.DB) AccessRepository {
	return &accessRepo{db: db}
}

func (r *accessRepo) WithTx(tx *sqlx.Tx) AccessRepository {
	return &accessRepo{db: tx}
}

func (r *accessRepo) Create(ctx context.Context, params model.CreateCalendarAccessParams) (*model.CalendarAccess, error) {
	var access model.CalendarAccess
	err := r.db.GetContext(ctx, &access, `
		INSERT INTO calendar_access
			(id, calendar_id, buyer_id, recipient_id, token_digest, code_digest, expires_at, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'active')
		RETURNING *
	`, params.ID, params.CalendarID, params.BuyerID, params.RecipientID,
		params.TokenDigest, params.CodeDigest, params.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &access, nil
}

func (r *accessRepo) FindByID(ctx context.Context, id string) (*model.CalendarAccess, error) {
	var access model.CalendarAccess
	err := r.db.GetContext(ctx, &access, `
		SELECT * FROM calendar_access WHERE id = $1
	`, id)
	return HandleNotFound(&access, err)
}

// FindByTokenDigest looks up the unique record for a token digest.
// Revoked records are excluded so a reissued calendar can reuse the
// uniqueness guarantee among live records.
func (r *accessRepo) FindByTokenDigest(ctx context.Context, digest string) (*model.CalendarAccess, error) {
	var access model.CalendarAccess
	err := r.db.GetContext(ctx, &access, `
		SELECT * FROM calendar_access
		WHERE token_digest = $1 AND status != 'revoked'
	`, digest)
	return HandleNotFound(&access, err)
}

func (r *accessRepo) FindActiveByBuyerID(ctx context.Context, buyerID string) (*model.CalendarAccess, error) {
	var access model.CalendarAccess
	err := r.db.GetContext(ctx, &access, `
		SELECT * FROM calendar_access
		WHERE buyer_id = $1 AND status = 'active'
		ORDER BY created_at DESC
		LIMIT 1
	`, buyerID)
	return HandleNotFound(&access, err)
}

func (r *accessRepo) List(ctx context.Context, limit, offset int) ([]model.CalendarAccess, error) {
	var records []model.CalendarAccess
	err := r.db.SelectContext(ctx, &records, `
		SELECT * FROM calendar_access
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Revoke invalidates an active record. Returns false when the record
// was not active, so a concurrent verify cannot race a fresh revocation
// back to life.
func (r *accessRepo) Revoke(ctx context.Context, id string, now time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE calendar_access
		SET status = 'revoked', revoked_at = $2
		WHERE id = $1 AND status = 'active'
	`, id, now)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MarkExpired applies the lazy active -> expired transition for a
// record whose TTL elapsed.
func (r *accessRepo) MarkExpired(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE calendar_access
		SET status = 'expired'
		WHERE id = $1 AND status = 'active' AND expires_at < NOW()
	`, id)
	return err
}

// ExpireStale sweeps all overdue active records, used by the cleanup job.
func (r *accessRepo) ExpireStale(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE calendar_access
		SET status = 'expired'
		WHERE status = 'active' AND expires_at < NOW()
	`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
