package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/adventjoy/calendar-server-go/internal/model"
)

// BuyerRepository handles buyer data operations
type BuyerRepository interface {
	Create(ctx context.Context, params model.CreateBuyerParams) (*model.Buyer, error)
	FindByID(ctx context.Context, id string) (*model.Buyer, error)
	FindByEmail(ctx context.Context, email string) (*model.Buyer, error)
	ConsumeLoginToken(ctx context.Context, digest string) (*model.Buyer, error)
}

type buyerRepo struct {
	db DB
}

// NewBuyerRepository creates a new buyer repository
func NewBuyerRepository(db *sqlx.DB) BuyerRepository {
	return &buyerRepo{db: db}
}

// Create provisions a buyer. Re-delivery of the same payment event is
// safe: the insert is keyed on email and leaves an existing row alone.
func (r *buyerRepo) Create(ctx context.Context, params model.CreateBuyerParams) (*model.Buyer, error) {
	var buyer model.Buyer
	err := r.db.GetContext(ctx, &buyer, `
		INSERT INTO buyers (id, email, name, plan, login_token_digest)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
		RETURNING *
	`, params.ID, params.Email, params.Name, params.Plan, params.LoginTokenDigest)
	if err != nil {
		return nil, err
	}
	return &buyer, nil
}

func (r *buyerRepo) FindByID(ctx context.Context, id string) (*model.Buyer, error) {
	var buyer model.Buyer
	err := r.db.GetContext(ctx, &buyer, `
		SELECT * FROM buyers WHERE id = $1
	`, id)
	return HandleNotFound(&buyer, err)
}

func (r *buyerRepo) FindByEmail(ctx context.Context, email string) (*model.Buyer, error) {
	var buyer model.Buyer
	err := r.db.GetContext(ctx, &buyer, `
		SELECT * FROM buyers WHERE email = $1
	`, email)
	return HandleNotFound(&buyer, err)
}

// ConsumeLoginToken looks up a buyer by login token digest and clears
// the digest in the same statement, so concurrent logins with one token
// cannot both succeed. Returns nil when no token matched.
func (r *buyerRepo) ConsumeLoginToken(ctx context.Context, digest string) (*model.Buyer, error) {
	var buyer model.Buyer
	err := r.db.GetContext(ctx, &buyer, `
		UPDATE buyers SET login_token_digest = NULL
		WHERE login_token_digest = $1
		RETURNING *
	`, digest)
	return HandleNotFound(&buyer, err)
}
