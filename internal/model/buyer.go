package model

import (
	"time"
)

// Buyer is the purchasing customer, provisioned from the payment webhook.
type Buyer struct {
	ID               string    `db:"id" json:"id"`
	Email            string    `db:"email" json:"email"`
	Name             string    `db:"name" json:"name"`
	Plan             Plan      `db:"plan" json:"plan"`
	LoginTokenDigest *string   `db:"login_token_digest" json:"-"`
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`
}

// CreateBuyerParams contains parameters for provisioning a buyer.
type CreateBuyerParams struct {
	ID               string
	Email            string
	Name             string
	Plan             Plan
	LoginTokenDigest string
}

// Recipient is the person a calendar is gifted to. Owned by a buyer.
type Recipient struct {
	ID        string    `db:"id" json:"id"`
	BuyerID   string    `db:"buyer_id" json:"buyerId"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// CreateRecipientParams contains parameters for creating a recipient.
type CreateRecipientParams struct {
	ID      string
	BuyerID string
	Name    string
}
