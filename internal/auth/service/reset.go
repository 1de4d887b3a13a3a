package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/evalua/evalua/internal/auth/domain"
	"github.com/evalua/evalua/internal/auth/store"
	"github.com/evalua/evalua/pkg/cryptox"
	"github.com/evalua/evalua/pkg/idx"
	"github.com/evalua/evalua/pkg/slogx"
)

// PasswordResetService issues and consumes the single-use tokens behind the
// first-login / forgotten-password flow. A user has at most one outstanding
// token: issuing a new one deletes whatever came before.
type PasswordResetService struct {
	Store store.Store
	TTL   time.Duration
}

// Issue mints a reset token for the user and returns the plaintext value for
// delivery (email is an external collaborator). Prior outstanding tokens are
// deleted in the same transaction, so the newest token is the only one.
func (s *PasswordResetService) Issue(ctx context.Context, userID string) (string, error) {
	now := time.Now().UTC()

	if _, err := s.Store.Users().GetUserByID(ctx, userID); err != nil {
		return "", err
	}

	opaque, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", err
	}

	prt := domain.PasswordResetToken{
		ID:        idx.New().String(),
		UserID:    userID,
		TokenHash: cryptox.FingerprintToken(opaque),
		ExpiresAt: now.Add(s.TTL),
		CreatedAt: now,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if _, err := tx.PasswordResetTokens().DeleteUserPasswordResetTokens(ctx, userID); err != nil {
			return err
		}
		return tx.PasswordResetTokens().CreatePasswordResetToken(ctx, prt)
	})
	if err != nil {
		return "", err
	}

	return opaque, nil
}

// Validate checks a token without consuming it. An expired token is deleted
// on sight so the table never serves it again, then rejected like any other
// invalid token.
func (s *PasswordResetService) Validate(ctx context.Context, opaque string) (domain.PasswordResetToken, error) {
	now := time.Now().UTC()
	hash := cryptox.FingerprintToken(opaque)

	prt, err := s.Store.PasswordResetTokens().GetPasswordResetTokenByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.PasswordResetToken{}, ErrInvalidToken
		}
		return domain.PasswordResetToken{}, err
	}

	if prt.Expired(now) {
		if _, err := s.Store.PasswordResetTokens().DeletePasswordResetToken(ctx, hash); err != nil {
			slogx.FromContext(ctx).Warn("failed to delete expired reset token",
				slog.String("user_id", prt.UserID),
				slog.Any("error", err),
			)
		}
		return domain.PasswordResetToken{}, ErrInvalidToken
	}

	return prt, nil
}

// Consume atomically validates and deletes the token inside the caller's
// transaction. The conditional delete is the single-use guarantee: when two
// consumers race on one token, the delete affects a row for exactly one of
// them and the other gets ErrInvalidToken.
func (s *PasswordResetService) Consume(
	ctx context.Context,
	tx store.Tx,
	opaque string,
) (domain.PasswordResetToken, error) {
	now := time.Now().UTC()
	hash := cryptox.FingerprintToken(opaque)

	prt, err := tx.PasswordResetTokens().GetPasswordResetTokenByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.PasswordResetToken{}, ErrInvalidToken
		}
		return domain.PasswordResetToken{}, err
	}

	deleted, err := tx.PasswordResetTokens().DeletePasswordResetToken(ctx, hash)
	if err != nil {
		return domain.PasswordResetToken{}, err
	}
	if !deleted || prt.Expired(now) {
		return domain.PasswordResetToken{}, ErrInvalidToken
	}

	return prt, nil
}
