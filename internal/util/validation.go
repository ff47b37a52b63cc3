package util

import (
	"regexp"
)

var (
	uuidRegex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	// Link tokens are 32 bytes base64url without padding: 43 characters.
	linkTokenRegex  = regexp.MustCompile(`^[A-Za-z0-9_-]{43}$`)
	accessCodeRegex = regexp.MustCompile(`^[0-9]{4}$`)
)

func IsValidUUID(s string) bool {
	if s == "" {
		return false
	}
	return uuidRegex.MatchString(s)
}

// IsValidLinkToken is a cheap shape check run before any digest work.
func IsValidLinkToken(s string) bool {
	return linkTokenRegex.MatchString(s)
}

// IsValidAccessCode reports whether s is exactly 4 ASCII digits.
func IsValidAccessCode(s string) bool {
	return accessCodeRegex.MatchString(s)
}
