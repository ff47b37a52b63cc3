package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adventjoy/calendar-server-go/internal/model"
)

func TestBuyerRepository_Create(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewBuyerRepository(db.DB)
	ctx := context.Background()

	first, err := repo.Create(ctx, model.CreateBuyerParams{
		ID:               uuid.NewString(),
		Email:            "ada@example.com",
		Name:             "Ada",
		Plan:             model.PlanPremium,
		LoginTokenDigest: "digest-login-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", first.Email)
	assert.Equal(t, model.PlanPremium, first.Plan)

	t.Run("re-delivery keeps the existing row", func(t *testing.T) {
		again, err := repo.Create(ctx, model.CreateBuyerParams{
			ID:               uuid.NewString(),
			Email:            "ada@example.com",
			Name:             "Ada B.",
			Plan:             model.PlanBasic,
			LoginTokenDigest: "digest-login-2",
		})
		require.NoError(t, err)
		assert.Equal(t, first.ID, again.ID)
		assert.Equal(t, "Ada", again.Name)
		assert.Equal(t, model.PlanPremium, again.Plan)
	})
}

func TestBuyerRepository_ConsumeLoginToken(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewBuyerRepository(db.DB)
	ctx := context.Background()

	buyer, err := repo.Create(ctx, model.CreateBuyerParams{
		ID:               uuid.NewString(),
		Email:            "grace@example.com",
		Name:             "Grace",
		Plan:             model.PlanBasic,
		LoginTokenDigest: "digest-login-once",
	})
	require.NoError(t, err)

	t.Run("consumes the token on first use", func(t *testing.T) {
		found, err := repo.ConsumeLoginToken(ctx, "digest-login-once")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, buyer.ID, found.ID)
		assert.Nil(t, found.LoginTokenDigest)
	})

	t.Run("second use of the same token finds nothing", func(t *testing.T) {
		found, err := repo.ConsumeLoginToken(ctx, "digest-login-once")
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("unknown digest finds nothing", func(t *testing.T) {
		found, err := repo.ConsumeLoginToken(ctx, "no-such-digest")
		require.NoError(t, err)
		assert.Nil(t, found)
	})
}
