package services

import "errors"

// ErrInvalidToken is returned when a token fails signature or expiry checks.
var ErrInvalidToken = errors.New("invalid token")

// ErrUnknownRefreshToken is returned when a refresh token is not present in
// the revocation store (revoked, expired out, or never issued).
var ErrUnknownRefreshToken = errors.New("unknown refresh token")

// ErrForbidden is returned when an authenticated caller is not entitled to
// the operation (wrong role or not the owner).
var ErrForbidden = errors.New("forbidden")

// ValidationError reports malformed or missing input. The caller must fix
// the request and resend; it is never retried automatically.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError constructs a ValidationError with the given message.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}
