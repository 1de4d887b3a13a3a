package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/evalua/evalua/internal/auth/domain"
	"github.com/evalua/evalua/internal/auth/store"
	"github.com/evalua/evalua/pkg/cryptox"
	"github.com/evalua/evalua/pkg/jwtx"
	"github.com/evalua/evalua/pkg/slogx"
)

// AuthService orchestrates the credential flows: login, refresh rotation,
// logout, and password reset. It owns the failure-translation policy — the
// only unauthorized outcomes it returns are ErrInvalidCredentials and
// ErrInvalidToken; store errors pass through untranslated so an outage never
// masquerades as a bad password.
type AuthService struct {
	Store     store.Store
	Signer    jwtx.Signer
	Tokens    *RefreshTokenService
	Resets    *PasswordResetService
	Enrichers []ClaimEnricher

	Issuer    string
	Audience  []string
	AccessTTL time.Duration
}

// NormalizeEmail is the one canonical form for email comparison: trimmed and
// lowercased. Every lookup path goes through it.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Login verifies the credentials and, on success, returns an access/refresh
// pair. All failure modes a caller can observe collapse into
// ErrInvalidCredentials; the logs keep the distinction. Nothing is written
// unless the credentials verify.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.TokenPair, error) {
	now := time.Now().UTC()
	l := slogx.FromContext(ctx)
	email = NormalizeEmail(email)

	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			l.Info("login rejected: unknown email")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := cryptox.VerifyPassword(password, u.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			l.Info("login rejected: password mismatch", slog.String("user_id", u.ID))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	role, err := s.Store.Roles().GetRoleByID(ctx, u.RoleID)
	if err != nil {
		return nil, err
	}

	accessToken, expiresAt, err := s.signAccess(ctx, u, role, now)
	if err != nil {
		return nil, err
	}

	var refreshOpaque string
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		refreshOpaque, err = s.Tokens.Issue(ctx, tx, u.ID, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	l.Info("login succeeded",
		slog.String("user_id", u.ID),
		slog.String("role", role.Name),
	)

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshOpaque,
		TokenType:    "Bearer",
		ExpiresAt:    expiresAt,
	}, nil
}

// Refresh rotates the presented refresh token: the old token is revoked and a
// new pair issued in one transaction, so concurrent refreshes on the same
// token have exactly one winner. Replays of a rotated token are rejected.
func (s *AuthService) Refresh(ctx context.Context, refreshOpaque string) (*domain.TokenPair, error) {
	now := time.Now().UTC()
	l := slogx.FromContext(ctx)

	var (
		pair   domain.TokenPair
		userID string
	)
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		rt, err := s.Tokens.Validate(ctx, tx, refreshOpaque, now)
		if err != nil {
			return err
		}

		// The conditional revoke is the rotation fence: when two requests
		// race on one token the row flips revoked for the first and the
		// second sees no change.
		revoked, err := tx.RefreshTokens().RevokeRefreshToken(ctx, rt.TokenHash, now)
		if err != nil {
			return err
		}
		if !revoked {
			return ErrInvalidToken
		}

		u, err := tx.Users().GetUserByID(ctx, rt.UserID)
		if err != nil {
			return err
		}
		role, err := tx.Roles().GetRoleByID(ctx, u.RoleID)
		if err != nil {
			return err
		}

		accessToken, expiresAt, err := s.signAccess(ctx, u, role, now)
		if err != nil {
			return err
		}

		newOpaque, err := s.Tokens.Issue(ctx, tx, u.ID, now)
		if err != nil {
			return err
		}

		userID = u.ID
		pair = domain.TokenPair{
			AccessToken:  accessToken,
			RefreshToken: newOpaque,
			TokenType:    "Bearer",
			ExpiresAt:    expiresAt,
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			l.Info("refresh rejected")
		}
		return nil, err
	}

	l.Debug("refresh token rotated", slog.String("user_id", userID))
	return &pair, nil
}

// Logout revokes the presented refresh token. Unknown and already-revoked
// tokens are a successful no-op, so repeating a logout changes nothing.
func (s *AuthService) Logout(ctx context.Context, refreshOpaque string) error {
	now := time.Now().UTC()

	revoked, err := s.Tokens.Revoke(ctx, refreshOpaque, now)
	if err != nil {
		return err
	}
	if revoked {
		slogx.FromContext(ctx).Info("refresh token revoked on logout")
	}
	return nil
}

// RequestPasswordReset issues a reset token for the user, replacing any prior
// outstanding one, and returns the plaintext token for delivery.
func (s *AuthService) RequestPasswordReset(ctx context.Context, userID string) (string, error) {
	return s.Resets.Issue(ctx, userID)
}

// ValidatePasswordReset reports whether a reset token is currently usable and
// for whom, without consuming it.
func (s *AuthService) ValidatePasswordReset(ctx context.Context, token string) (string, error) {
	prt, err := s.Resets.Validate(ctx, token)
	if err != nil {
		return "", err
	}
	return prt.UserID, nil
}

// ResetPassword consumes the reset token, stores the new password hash, and
// revokes the user's live refresh tokens, all in one transaction. A used or
// expired token aborts before any write sticks.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword, confirm string) error {
	now := time.Now().UTC()
	l := slogx.FromContext(ctx)

	if newPassword != confirm {
		return ErrPasswordConfirmation
	}
	if len(newPassword) < MinPasswordLength {
		return ErrPasswordTooShort
	}

	// Hash outside the transaction; argon2id is deliberately slow.
	newHash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return err
	}

	var userID string
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		prt, err := s.Resets.Consume(ctx, tx, token)
		if err != nil {
			return err
		}
		userID = prt.UserID

		if err := tx.Users().UpdatePasswordHash(ctx, userID, newHash); err != nil {
			return err
		}

		// Force re-login everywhere the old password was live.
		_, err = tx.RefreshTokens().RevokeActiveUserRefreshTokens(ctx, userID, now)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			l.Info("password reset rejected: invalid token")
		}
		return err
	}

	l.Info("password reset completed", slog.String("user_id", userID))
	return nil
}

func (s *AuthService) signAccess(
	ctx context.Context,
	u domain.User,
	role domain.Role,
	now time.Time,
) (string, time.Time, error) {
	claims := jwtx.NewAccessClaims(u.ID, u.Email, role.Name, s.AccessTTL, s.Issuer, s.Audience, now)
	for _, e := range s.Enrichers {
		e.Enrich(ctx, u, role, &claims)
	}

	token, err := s.Signer.Sign(claims)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, now.Add(s.AccessTTL), nil
}
