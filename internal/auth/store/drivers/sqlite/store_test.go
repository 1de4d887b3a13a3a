package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/evalua/evalua/internal/auth/domain"
	"github.com/evalua/evalua/internal/auth/store"
	"github.com/evalua/evalua/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "test.db")
	s, err := NewStore(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

func createTestUser(t *testing.T, s *Store, email string) domain.User {
	t.Helper()
	ctx := context.Background()

	role, err := s.Roles().GetRoleByName(ctx, domain.RoleStudent)
	require.NoError(t, err)

	u := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		PasswordHash: "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA",
		RoleID:       role.ID,
	}
	require.NoError(t, s.Users().CreateUser(ctx, u))
	return u
}

func TestApplyConnDefaults(t *testing.T) {
	t.Parallel()

	t.Run("bare dsn gains every default", func(t *testing.T) {
		t.Parallel()
		got := applyConnDefaults("file:/tmp/auth.db")
		require.Contains(t, got, "_txlock=immediate")
		require.Contains(t, got, "_pragma=busy_timeout(5000)")
		require.Contains(t, got, "_pragma=foreign_keys(1)")
	})

	t.Run("caller overrides are kept", func(t *testing.T) {
		t.Parallel()
		got := applyConnDefaults("file:/tmp/auth.db?_txlock=deferred&_pragma=busy_timeout(100)")
		require.Contains(t, got, "_txlock=deferred")
		require.Contains(t, got, "busy_timeout(100)")
		require.NotContains(t, got, "_txlock=immediate")
		require.NotContains(t, got, "busy_timeout(5000)")
		require.Contains(t, got, "_pragma=foreign_keys(1)")
	})
}

func TestMigrationsSeedRoles(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	roles, err := s.Roles().ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, roles, 4)

	names := make(map[string]bool, len(roles))
	for _, r := range roles {
		names[r.Name] = true
	}
	for _, want := range []string{
		domain.RoleStudent, domain.RoleTeacher, domain.RoleProfessional, domain.RoleAdmin,
	} {
		require.True(t, names[want], "missing seeded role %s", want)
	}
}

func TestUsersRepo(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	u := createTestUser(t, s, "alice@example.com")

	t.Run("lookup by id and email", func(t *testing.T) {
		got, err := s.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, u.Email, got.Email)

		got, err = s.Users().GetUserByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		require.Equal(t, u.ID, got.ID)
	})

	t.Run("unknown user maps to ErrNotFound", func(t *testing.T) {
		_, err := s.Users().GetUserByID(ctx, idx.New().String())
		require.ErrorIs(t, err, store.ErrNotFound)

		_, err = s.Users().GetUserByEmail(ctx, "nobody@example.com")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("update password hash", func(t *testing.T) {
		require.NoError(t, s.Users().UpdatePasswordHash(ctx, u.ID, "$argon2id$new"))

		got, err := s.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, "$argon2id$new", got.PasswordHash)

		err = s.Users().UpdatePasswordHash(ctx, idx.New().String(), "x")
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestStudentProfilesUpsert(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	u := createTestUser(t, s, "student@example.com")

	require.NoError(t, s.StudentProfiles().UpsertStudentProfile(ctx, domain.StudentProfile{
		UserID:  u.ID,
		Program: "INFO-3A",
	}))

	p, err := s.StudentProfiles().GetStudentProfileByUserID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "INFO-3A", p.Program)

	// Upsert replaces the program on conflict.
	require.NoError(t, s.StudentProfiles().UpsertStudentProfile(ctx, domain.StudentProfile{
		UserID:  u.ID,
		Program: "GEA-2A",
	}))
	p, err = s.StudentProfiles().GetStudentProfileByUserID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "GEA-2A", p.Program)
}

func newRefreshToken(userID string, expiresAt time.Time) domain.RefreshToken {
	return domain.RefreshToken{
		ID:        idx.New().String(),
		UserID:    userID,
		TokenHash: idx.New().String(), // any unique value works as a fingerprint
		ExpiresAt: expiresAt,
	}
}

func TestRefreshTokenConditionalRevoke(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	u := createTestUser(t, s, "revoke@example.com")
	rt := newRefreshToken(u.ID, now.Add(time.Hour))
	require.NoError(t, s.RefreshTokens().CreateRefreshToken(ctx, rt))

	// Two racing revokes on one token: the row flips exactly once.
	first, err := s.RefreshTokens().RevokeRefreshToken(ctx, rt.TokenHash, now)
	require.NoError(t, err)
	second, err := s.RefreshTokens().RevokeRefreshToken(ctx, rt.TokenHash, now)
	require.NoError(t, err)

	require.True(t, first)
	require.False(t, second)

	got, err := s.RefreshTokens().GetRefreshTokenByHash(ctx, rt.TokenHash)
	require.NoError(t, err)
	require.NotNil(t, got.RevokedAt)
	require.False(t, got.Usable(now))

	// Unknown hash is a no-op, not an error.
	ok, err := s.RefreshTokens().RevokeRefreshToken(ctx, "no-such-hash", now)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRevokeActiveUserRefreshTokens(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	u := createTestUser(t, s, "bulk@example.com")
	other := createTestUser(t, s, "other@example.com")

	live1 := newRefreshToken(u.ID, now.Add(time.Hour))
	live2 := newRefreshToken(u.ID, now.Add(time.Hour))
	expired := newRefreshToken(u.ID, now.Add(-time.Hour))
	otherLive := newRefreshToken(other.ID, now.Add(time.Hour))
	for _, rt := range []domain.RefreshToken{live1, live2, expired, otherLive} {
		require.NoError(t, s.RefreshTokens().CreateRefreshToken(ctx, rt))
	}

	n, err := s.RefreshTokens().RevokeActiveUserRefreshTokens(ctx, u.ID, now)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	// The other user's token is untouched.
	got, err := s.RefreshTokens().GetRefreshTokenByHash(ctx, otherLive.TokenHash)
	require.NoError(t, err)
	require.True(t, got.Usable(now))
}

func TestDeleteDefunctRefreshTokens(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	u := createTestUser(t, s, "sweep@example.com")

	live := newRefreshToken(u.ID, now.Add(time.Hour))
	expired := newRefreshToken(u.ID, now.Add(-time.Minute))
	revoked := newRefreshToken(u.ID, now.Add(time.Hour))
	for _, rt := range []domain.RefreshToken{live, expired, revoked} {
		require.NoError(t, s.RefreshTokens().CreateRefreshToken(ctx, rt))
	}
	ok, err := s.RefreshTokens().RevokeRefreshToken(ctx, revoked.TokenHash, now)
	require.NoError(t, err)
	require.True(t, ok)

	n, err := s.RefreshTokens().DeleteDefunctRefreshTokens(ctx, now)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	// Only the live token survives.
	_, err = s.RefreshTokens().GetRefreshTokenByHash(ctx, expired.TokenHash)
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.RefreshTokens().GetRefreshTokenByHash(ctx, revoked.TokenHash)
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.RefreshTokens().GetRefreshTokenByHash(ctx, live.TokenHash)
	require.NoError(t, err)
}

func TestPasswordResetTokensRepo(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	u := createTestUser(t, s, "reset@example.com")

	mint := func(hash string) domain.PasswordResetToken {
		prt := domain.PasswordResetToken{
			ID:        idx.New().String(),
			UserID:    u.ID,
			TokenHash: hash,
			ExpiresAt: now.Add(time.Hour),
		}
		require.NoError(t, s.PasswordResetTokens().CreatePasswordResetToken(ctx, prt))
		return prt
	}

	t.Run("conditional delete reports consumption once", func(t *testing.T) {
		prt := mint("hash-once")

		got, err := s.PasswordResetTokens().GetPasswordResetTokenByHash(ctx, prt.TokenHash)
		require.NoError(t, err)
		require.Equal(t, u.ID, got.UserID)

		first, err := s.PasswordResetTokens().DeletePasswordResetToken(ctx, prt.TokenHash)
		require.NoError(t, err)
		second, err := s.PasswordResetTokens().DeletePasswordResetToken(ctx, prt.TokenHash)
		require.NoError(t, err)

		require.True(t, first)
		require.False(t, second)
	})

	t.Run("delete all for user", func(t *testing.T) {
		mint("hash-a")
		mint("hash-b")

		n, err := s.PasswordResetTokens().DeleteUserPasswordResetTokens(ctx, u.ID)
		require.NoError(t, err)
		require.EqualValues(t, 2, n)
	})
}

func TestWithTxRollsBackOnError(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	u := createTestUser(t, s, "tx@example.com")
	rt := newRefreshToken(u.ID, now.Add(time.Hour))

	sentinel := context.Canceled
	err := s.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.RefreshTokens().CreateRefreshToken(ctx, rt); err != nil {
			return err
		}
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	// The insert did not survive the rollback.
	_, err = s.RefreshTokens().GetRefreshTokenByHash(ctx, rt.TokenHash)
	require.ErrorIs(t, err, store.ErrNotFound)
}
