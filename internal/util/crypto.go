package util

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

const linkTokenBytes = 32

// GenerateLinkToken returns a URL-safe bearer token with 32 bytes of
// entropy. The raw token is embedded in the share URL and never stored.
func GenerateLinkToken() (string, error) {
	bytes := make([]byte, linkTokenBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

// GenerateAccessCode returns a 4-digit decimal code, left-zero-padded,
// drawn uniformly from 0000-9999.
func GenerateAccessCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%04d", n.Int64()), nil
}

// DigestToken returns the deterministic sha256 digest of a bearer token,
// hex encoded. Determinism makes the digest usable as a lookup key.
func DigestToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// DigestCode hashes an access code with bcrypt. Each call embeds a fresh
// salt, so two digests of the same code differ. Never use this as a
// lookup key; it is only compared against one already-identified record.
func DigestCode(code string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyCode checks an access code against a bcrypt digest.
func VerifyCode(code, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(code)) == nil
}

func HmacSHA256(secret, data string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}

func ConstantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// MaskDigest returns a loggable prefix of a token digest. Plaintext
// tokens and codes must never reach the logs.
func MaskDigest(digest string) string {
	if len(digest) <= 8 {
		return "********"
	}
	return digest[:8] + "..."
}
