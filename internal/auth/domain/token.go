package domain

import "time"

// TokenPair is what a successful login or refresh returns: the short-lived
// access token (JWT) and the opaque refresh token, plus the access token's
// absolute expiry.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type,omitempty"` // typically "Bearer"
	ExpiresAt    time.Time `json:"expires_at"`
}

// RefreshToken models the stored refresh token record in the DB. Only the
// SHA-256 fingerprint of the opaque value is persisted.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string // deterministic fingerprint (base64url SHA-256)
	ExpiresAt time.Time
	RevokedAt *time.Time // nil while the token is live
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Usable reports whether the token can still mint access tokens: unrevoked
// and unexpired. A token is never resurrected once either condition fails.
func (t RefreshToken) Usable(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}

// PasswordResetToken is a single-use, time-bounded token for the
// first-login/password-reset flow. At most one outstanding per user.
type PasswordResetToken struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the reset token's validity window has passed.
func (t PasswordResetToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
