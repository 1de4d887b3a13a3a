package service

import "errors"

var (
	// ErrInvalidCredentials is the single outcome for every login failure a
	// caller may learn about. Unknown email and wrong password both map here;
	// the distinction only ever reaches the logs.
	ErrInvalidCredentials = errors.New("invalid_credentials")

	// ErrInvalidToken is the uniform rejection for refresh and reset tokens:
	// unknown, expired, revoked, and already-consumed all collapse into it.
	ErrInvalidToken = errors.New("invalid_token")

	// Validation errors carry specific messages; unlike the uniform
	// unauthorized outcomes above they are safe to surface.
	ErrPasswordTooShort     = errors.New("password must be at least 8 characters")
	ErrPasswordConfirmation = errors.New("password confirmation does not match")
)

// MinPasswordLength is enforced on every password-set path.
const MinPasswordLength = 8
