package session

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/adventjoy/calendar-server-go/internal/errors"
	"github.com/adventjoy/calendar-server-go/internal/model"
)

const testSecret = "test-session-secret-at-least-32-chars!!"

func TestIssueRecipient(t *testing.T) {
	issuer := NewIssuer(testSecret, time.Hour)

	t.Run("round trips the payload", func(t *testing.T) {
		credential, err := issuer.IssueRecipient("cal-1", "rec-1", "buyer-1")
		require.NoError(t, err)

		payload, err := issuer.Verify(credential, ScopeRecipient)
		require.NoError(t, err)
		assert.Equal(t, ScopeRecipient, payload.Scope)
		assert.Equal(t, "cal-1", payload.CalendarID)
		assert.Equal(t, "rec-1", payload.RecipientID)
		assert.Equal(t, "buyer-1", payload.BuyerID)
	})

	t.Run("credential is opaque but unencrypted", func(t *testing.T) {
		credential, err := issuer.IssueRecipient("cal-1", "rec-1", "buyer-1")
		require.NoError(t, err)
		assert.True(t, strings.Contains(credential, "."))
		assert.NotContains(t, credential, "cal-1")
	})
}

func TestIssueBuyer(t *testing.T) {
	issuer := NewIssuer(testSecret, time.Hour)

	credential, err := issuer.IssueBuyer("buyer-1", model.PlanPremium, "Ada")
	require.NoError(t, err)

	payload, err := issuer.Verify(credential, ScopeBuyer)
	require.NoError(t, err)
	assert.Equal(t, ScopeBuyer, payload.Scope)
	assert.Equal(t, "buyer-1", payload.BuyerID)
	assert.Equal(t, model.PlanPremium, payload.Plan)
	assert.Equal(t, "Ada", payload.Name)
	assert.Empty(t, payload.CalendarID)
}

func TestVerify(t *testing.T) {
	issuer := NewIssuer(testSecret, time.Hour)

	t.Run("rejects malformed credentials", func(t *testing.T) {
		for _, credential := range []string{"", "no-dot", ".", "a.", ".b"} {
			_, err := issuer.Verify(credential, ScopeRecipient)
			require.Error(t, err)
			assert.Equal(t, apperrors.ErrCodeInvalidSignature, apperrors.GetCode(err))
		}
	})

	t.Run("rejects a tampered payload", func(t *testing.T) {
		credential, err := issuer.IssueRecipient("cal-1", "rec-1", "buyer-1")
		require.NoError(t, err)

		encoded, sig, _ := strings.Cut(credential, ".")
		tampered := encoded[:len(encoded)-2] + "xx." + sig
		_, err = issuer.Verify(tampered, ScopeRecipient)
		assert.Error(t, err)
	})

	t.Run("rejects a credential signed with another secret", func(t *testing.T) {
		other := NewIssuer("a-completely-different-signing-secret!!!", time.Hour)
		credential, err := other.IssueRecipient("cal-1", "rec-1", "buyer-1")
		require.NoError(t, err)

		_, err = issuer.Verify(credential, ScopeRecipient)
		assert.Error(t, err)
	})

	t.Run("rejects scope mismatch", func(t *testing.T) {
		buyerCred, err := issuer.IssueBuyer("buyer-1", model.PlanBasic, "Ada")
		require.NoError(t, err)

		_, err = issuer.Verify(buyerCred, ScopeRecipient)
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeInvalidSignature, apperrors.GetCode(err))

		recipientCred, err := issuer.IssueRecipient("cal-1", "rec-1", "buyer-1")
		require.NoError(t, err)

		_, err = issuer.Verify(recipientCred, ScopeBuyer)
		assert.Error(t, err)
	})

	t.Run("rejects an expired credential", func(t *testing.T) {
		clock := time.Date(2025, 11, 1, 12, 0, 0, 0, time.UTC)
		past := NewIssuerAt(testSecret, time.Hour, func() time.Time { return clock })

		credential, err := past.IssueRecipient("cal-1", "rec-1", "buyer-1")
		require.NoError(t, err)

		// Valid just before expiry.
		clock = clock.Add(time.Hour - time.Second)
		_, err = past.Verify(credential, ScopeRecipient)
		require.NoError(t, err)

		// Invalid at the expiry instant.
		clock = clock.Add(time.Second)
		_, err = past.Verify(credential, ScopeRecipient)
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeSessionExpired, apperrors.GetCode(err))
	})
}
