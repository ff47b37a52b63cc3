package util

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = hex.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))

func TestEncryptDecrypt(t *testing.T) {
	t.Run("round trips content", func(t *testing.T) {
		sealed, err := Encrypt(testKey, "a little surprise for day 7")
		require.NoError(t, err)
		assert.NotEqual(t, "a little surprise for day 7", sealed)

		plain, err := Decrypt(testKey, sealed)
		require.NoError(t, err)
		assert.Equal(t, "a little surprise for day 7", plain)
	})

	t.Run("same plaintext seals differently each time", func(t *testing.T) {
		sealed1, _ := Encrypt(testKey, "content")
		sealed2, _ := Encrypt(testKey, "content")
		assert.NotEqual(t, sealed1, sealed2)
	})

	t.Run("decrypt fails with wrong key", func(t *testing.T) {
		sealed, _ := Encrypt(testKey, "content")
		wrongKey := hex.EncodeToString([]byte("ffffffffffffffffffffffffffffffff"))
		_, err := Decrypt(wrongKey, sealed)
		assert.Error(t, err)
	})

	t.Run("rejects short keys", func(t *testing.T) {
		_, err := Encrypt("abcd", "content")
		require.Error(t, err)
		assert.True(t, strings.Contains(err.Error(), "32 bytes"))
	})

	t.Run("rejects truncated ciphertext", func(t *testing.T) {
		_, err := Decrypt(testKey, "AAAA")
		assert.Error(t, err)
	})
}
