package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/evalua/evalua/internal/auth/domain"
	"github.com/evalua/evalua/internal/auth/store"
	"github.com/evalua/evalua/pkg/cryptox"
	"github.com/evalua/evalua/pkg/idx"
)

// RotationScope controls what issuing a refresh token does to the user's
// existing sessions.
type RotationScope int

const (
	// SingleSession revokes every live refresh token the user holds before a
	// new one is created, so at most one session chain exists per user.
	SingleSession RotationScope = iota

	// PerDevice leaves other live tokens alone; each device keeps its own
	// rotation chain.
	PerDevice
)

// ParseRotationScope maps the config string onto a scope value.
func ParseRotationScope(s string) (RotationScope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "single_session":
		return SingleSession, nil
	case "per_device":
		return PerDevice, nil
	default:
		return SingleSession, fmt.Errorf("unknown rotation scope %q", s)
	}
}

// RefreshTokenService owns the stored half of the refresh token lifecycle:
// minting opaque tokens, validating them by fingerprint, and the conditional
// revocation that makes rotation race-free.
type RefreshTokenService struct {
	Store store.Store
	TTL   time.Duration
	Scope RotationScope
}

// Issue mints a new opaque refresh token for the user inside the caller's
// transaction and returns the plaintext value. Only the SHA-256 fingerprint
// is stored. Under SingleSession, every other live token the user holds is
// revoked first.
func (s *RefreshTokenService) Issue(
	ctx context.Context,
	tx store.Tx,
	userID string,
	now time.Time,
) (string, error) {
	if s.Scope == SingleSession {
		if _, err := tx.RefreshTokens().RevokeActiveUserRefreshTokens(ctx, userID, now); err != nil {
			return "", err
		}
	}

	opaque, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", err
	}

	rt := domain.RefreshToken{
		ID:        idx.New().String(),
		UserID:    userID,
		TokenHash: cryptox.FingerprintToken(opaque),
		ExpiresAt: now.Add(s.TTL),
		CreatedAt: now,
	}
	if err := tx.RefreshTokens().CreateRefreshToken(ctx, rt); err != nil {
		return "", err
	}

	return opaque, nil
}

// Validate resolves an opaque token to its stored record inside the caller's
// transaction and checks that it is still usable. Unknown, expired, and
// revoked all come back ErrInvalidToken.
func (s *RefreshTokenService) Validate(
	ctx context.Context,
	tx store.Tx,
	opaque string,
	now time.Time,
) (domain.RefreshToken, error) {
	rt, err := tx.RefreshTokens().GetRefreshTokenByHash(ctx, cryptox.FingerprintToken(opaque))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.RefreshToken{}, ErrInvalidToken
		}
		return domain.RefreshToken{}, err
	}
	if !rt.Usable(now) {
		return domain.RefreshToken{}, ErrInvalidToken
	}
	return rt, nil
}

// Revoke marks the token revoked if it is still live, reporting whether this
// call was the one that did it. Already-revoked and unknown tokens return
// false with no error, which is what makes logout idempotent.
func (s *RefreshTokenService) Revoke(ctx context.Context, opaque string, now time.Time) (bool, error) {
	return s.Store.RefreshTokens().RevokeRefreshToken(ctx, cryptox.FingerprintToken(opaque), now)
}
