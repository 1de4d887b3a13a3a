package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/evalua/evalua/internal/auth/domain"
)

type refreshTokensRepo struct {
	db dbtx
}

func (r *refreshTokensRepo) CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error {
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, revoked_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.TokenHash, t.ExpiresAt.UTC(), mapOptionalTime(t.RevokedAt), t.CreatedAt.UTC(), now)
	return err
}

func (r *refreshTokensRepo) GetRefreshTokenByHash(
	ctx context.Context,
	hash string,
) (domain.RefreshToken, error) {
	var (
		t         domain.RefreshToken
		revokedAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, token_hash, expires_at, revoked_at, created_at, updated_at
		 FROM refresh_tokens WHERE token_hash = ?`, hash).
		Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &revokedAt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return domain.RefreshToken{}, mapNotFound(err)
	}
	t.ExpiresAt = t.ExpiresAt.UTC()
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	t.RevokedAt = mapNullTimePtr(revokedAt)
	return t, nil
}

// RevokeRefreshToken is a single conditional write: the WHERE clause only
// matches while revoked_at is still NULL, so of any number of racing callers
// exactly one observes an affected row.
func (r *refreshTokensRepo) RevokeRefreshToken(
	ctx context.Context,
	hash string,
	now time.Time,
) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at = ?, updated_at = ?
		 WHERE token_hash = ? AND revoked_at IS NULL`,
		now.UTC(), now.UTC(), hash)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *refreshTokensRepo) RevokeActiveUserRefreshTokens(
	ctx context.Context,
	userID string,
	now time.Time,
) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at = ?, updated_at = ?
		 WHERE user_id = ? AND revoked_at IS NULL AND expires_at > ?`,
		now.UTC(), now.UTC(), userID, now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteDefunctRefreshTokens bases its criteria on persisted state read at
// sweep time; a token revoked a moment later is caught by the next sweep.
func (r *refreshTokensRepo) DeleteDefunctRefreshTokens(
	ctx context.Context,
	now time.Time,
) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM refresh_tokens WHERE expires_at < ? OR revoked_at IS NOT NULL`,
		now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
