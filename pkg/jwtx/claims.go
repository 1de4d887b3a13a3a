package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"slices"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token TTL constants. These provide sensible security defaults but
// can be overridden per-service via configuration.
const (
	// DefaultAccessTokenTTL is the default lifetime for access tokens.
	// Short-lived for security - typical range is 15m to 1h.
	DefaultAccessTokenTTL = 15 * time.Minute

	// DefaultRefreshTokenTTL is the default lifetime for refresh tokens.
	// Longer-lived for user convenience - typical range is 7d to 30d.
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Claims are the access-token claims shared across the platform. The layout
// is consumed by downstream evaluation services, so changes must stay additive.
type Claims struct {
	jwt.RegisteredClaims

	// IssuedAtUnix shadows the registered iat claim with a string-encoded
	// Unix-seconds value. Downstream services parse iat as a string, so the
	// wire form has to stay textual.
	IssuedAtUnix string `json:"iat,omitempty"`

	// Email of the authenticated user.
	Email string `json:"email,omitempty"`

	// Role name ("Student", "Teacher", "Professional", "Admin").
	// May be empty when the user has no role assigned.
	Role string `json:"role,omitempty"`

	// Program is the student's program code ("filière"). Present only for
	// students whose profile carries one; enrichment is best-effort.
	Program string `json:"program,omitempty"`
}

// GetIssuedAt parses the string-encoded iat so expiry helpers and the jwt
// library see a proper timestamp despite the textual wire form.
func (c Claims) GetIssuedAt() (*jwt.NumericDate, error) {
	if c.IssuedAtUnix == "" {
		return nil, nil
	}

	secs, err := strconv.ParseInt(c.IssuedAtUnix, 10, 64)
	if err != nil {
		return nil, ErrInvalidClaim
	}
	return jwt.NewNumericDate(time.Unix(secs, 0)), nil
}

// NewAccessClaims builds minimally-correct claims for an access token:
// subject, email, role, a fresh jti, and iss/aud/nbf/exp around now.
func NewAccessClaims(
	subject, email, role string,
	ttl time.Duration,
	issuer string,
	audience []string,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings(audience),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		IssuedAtUnix: strconv.FormatInt(now.Unix(), 10),
		Email:        email,
		Role:         role,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}

	if c.Issuer != expected {
		return ErrIssuer
	}

	return nil
}

// ValidateAudience checks if at least one expected audience is present.
func (c *Claims) ValidateAudience(expected []string) error {
	if len(expected) == 0 {
		return nil // nothing to enforce
	}

	for _, want := range expected {
		if slices.Contains(c.Audience, want) {
			return nil
		}
	}

	return ErrAudience
}

// ValidateExpiry ensures the token hasn't expired (exp) and isn't before nbf.
func (c *Claims) ValidateExpiry() error {
	return c.ValidateExpiryWithLeeway(0)
}

// ValidateExpiryWithLeeway adds a small grace period for clock skew,
// because time sync is never perfect.
func (c *Claims) ValidateExpiryWithLeeway(leeway time.Duration) error {
	now := time.Now().UTC()

	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Add(leeway)) {
		return ErrExpired
	}

	if c.NotBefore != nil && now.Before(c.NotBefore.Add(-leeway)) {
		return ErrNotYetValid
	}

	return nil
}
