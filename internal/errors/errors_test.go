package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError(t *testing.T) {
	t.Run("Error returns formatted string", func(t *testing.T) {
		err := New(ErrCodeNotFound, "Calendar not found")
		assert.Equal(t, "NOT_FOUND: Calendar not found", err.Error())
	})

	t.Run("Error with cause includes cause", func(t *testing.T) {
		cause := errors.New("database connection failed")
		err := Wrap(ErrCodeDatabase, "Database error", cause)
		assert.Contains(t, err.Error(), "DATABASE_ERROR")
		assert.Contains(t, err.Error(), "Database error")
		assert.Contains(t, err.Error(), "database connection failed")
	})

	t.Run("WithCause adds cause to error", func(t *testing.T) {
		cause := errors.New("original error")
		err := New(ErrCodeInternal, "Something went wrong").WithCause(cause)
		assert.Equal(t, cause, err.Unwrap())
	})

	t.Run("WithDetails adds details to error", func(t *testing.T) {
		details := map[string]string{"field": "timezone", "reason": "unknown name"}
		err := New(ErrCodeValidation, "Validation failed").WithDetails(details)
		assert.Equal(t, details, err.Details)
	})
}

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name         string
		constructor  func() *AppError
		expectedCode ErrorCode
	}{
		{"Unauthorized", func() *AppError { return Unauthorized("test") }, ErrCodeUnauthorized},
		{"Forbidden", func() *AppError { return Forbidden("test") }, ErrCodeForbidden},
		{"InvalidCredentials", InvalidCredentials, ErrCodeInvalidCredentials},
		{"InvalidSignature", InvalidSignature, ErrCodeInvalidSignature},
		{"SessionExpired", SessionExpired, ErrCodeSessionExpired},
		{"NotFound", func() *AppError { return NotFound("Calendar") }, ErrCodeNotFound},
		{"Conflict", func() *AppError { return Conflict("test") }, ErrCodeConflict},
		{"Expired", func() *AppError { return Expired("Access") }, ErrCodeExpired},
		{"Locked", Locked, ErrCodeLocked},
		{"ValidationError", func() *AppError { return ValidationError("test") }, ErrCodeValidation},
		{"InvalidInput", func() *AppError { return InvalidInput("code", "invalid") }, ErrCodeInvalidInput},
		{"MissingRequired", func() *AppError { return MissingRequired("code") }, ErrCodeMissingRequired},
		{"RateLimitExceeded", RateLimitExceeded, ErrCodeRateLimitExceeded},
		{"Internal", func() *AppError { return Internal("test") }, ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectedCode, tt.constructor().Code)
		})
	}
}

func TestInvalidCredentialsIsGeneric(t *testing.T) {
	// The message must not vary with the failure reason.
	assert.Equal(t, InvalidCredentials().Message, InvalidCredentials().Message)
	assert.NotContains(t, InvalidCredentials().Message, "token")
	assert.NotContains(t, InvalidCredentials().Message, "code")
}

func TestHelpers(t *testing.T) {
	t.Run("IsAppError detects AppError", func(t *testing.T) {
		assert.True(t, IsAppError(NotFound("Calendar")))
		assert.False(t, IsAppError(errors.New("plain")))
	})

	t.Run("GetCode falls back to internal", func(t *testing.T) {
		assert.Equal(t, ErrCodeNotFound, GetCode(NotFound("Calendar")))
		assert.Equal(t, ErrCodeInternal, GetCode(errors.New("plain")))
	})
}
