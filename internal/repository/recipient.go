package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/adventjoy/calendar-server-go/internal/model"
)

// RecipientRepository handles recipient data operations
type RecipientRepository interface {
	Create(ctx context.Context, params model.CreateRecipientParams) (*model.Recipient, error)
	FindByID(ctx context.Context, id string) (*model.Recipient, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) RecipientRepository
}

type recipientRepo struct {
	db DB
}

// NewRecipientRepository creates a new recipient repository
func NewRecipientRepository(db *sqlx.DB) RecipientRepository {
	return &recipientRepo{db: db}
}

func (r *recipientRepo) WithTx(tx *sqlx.Tx) RecipientRepository {
	return &recipientRepo{db: tx}
}

func (r *recipientRepo) Create(ctx context.Context, params model.CreateRecipientParams) (*model.Recipient, error) {
	var recipient model.Recipient
	err := r.db.GetContext(ctx, &recipient, `
		INSERT INTO recipients (id, buyer_id, name)
		VALUES ($1, $2, $3)
		RETURNING *
	`, params.ID, params.BuyerID, params.Name)
	if err != nil {
		return nil, err
	}
	return &recipient, nil
}

func (r *recipientRepo) FindByID(ctx context.Context, id string) (*model.Recipient, error) {
	var recipient model.Recipient
	err := r.db.GetContext(ctx, &recipient, `
		SELECT * FROM recipients WHERE id = $1
	`, id)
	return HandleNotFound(&recipient, err)
}
