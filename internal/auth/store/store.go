package store

import (
	"context"
	"errors"
	"time"

	"github.com/evalua/evalua/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite, postgres)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable, and a unit-of-work the caller controls for multi-step operations
// that must commit or roll back as one.
type Store interface {
	Users() Users
	Roles() Roles
	StudentProfiles() StudentProfiles
	RefreshTokens() RefreshTokens
	PasswordResetTokens() PasswordResetTokens

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// Use it for multi-step operations that must be atomic (e.g., refresh
	// rotation). The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	// This is the recommended way to handle transactions as it automatically
	// handles commit/rollback logic.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources (optional for sqlite).
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail looks up by the normalized (trimmed, lowercased) email.
	// Callers normalize before calling; the column is unique.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by app via ULID).
	CreateUser(ctx context.Context, u domain.User) error

	// UpdatePasswordHash sets the password_hash (argon2id) and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID string, newHash string) error

	// DeleteUser cascades to refresh_tokens and password_reset_tokens (per schema).
	DeleteUser(ctx context.Context, userID string) error
}

type Roles interface {
	// GetRoleByID fetches a role by its ID.
	GetRoleByID(ctx context.Context, id string) (domain.Role, error)

	// GetRoleByName fetches a role by its name (seeding, tests).
	GetRoleByName(ctx context.Context, name string) (domain.Role, error)

	// ListAll returns all roles in the system.
	ListAll(ctx context.Context) ([]domain.Role, error)
}

type StudentProfiles interface {
	// GetStudentProfileByUserID returns the student's enrichment profile.
	GetStudentProfileByUserID(ctx context.Context, userID string) (domain.StudentProfile, error)

	// UpsertStudentProfile creates or replaces the profile for a user.
	UpsertStudentProfile(ctx context.Context, p domain.StudentProfile) error
}

type RefreshTokens interface {
	// CreateRefreshToken stores a new refresh token record.
	CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error

	// GetRefreshTokenByHash returns the token by its hashed value.
	GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error)

	// RevokeRefreshToken sets revoked_at = now only if the token is still
	// unrevoked, and reports whether a row actually changed. The conditional
	// write is what makes rotation race-free: when two refreshes race on one
	// token, exactly one caller sees true.
	RevokeRefreshToken(ctx context.Context, hash string, now time.Time) (bool, error)

	// RevokeActiveUserRefreshTokens bulk-revokes every live token for a user
	// (single-session rotation, password reset). Returns the revoked count.
	RevokeActiveUserRefreshTokens(ctx context.Context, userID string, now time.Time) (int64, error)

	// DeleteDefunctRefreshTokens removes every row that is expired or revoked
	// as persisted at call time, in one batch. Housekeeping owns this.
	DeleteDefunctRefreshTokens(ctx context.Context, now time.Time) (int64, error)
}

type PasswordResetTokens interface {
	// CreatePasswordResetToken stores a freshly minted reset token.
	CreatePasswordResetToken(ctx context.Context, t domain.PasswordResetToken) error

	// GetPasswordResetTokenByHash fetches a reset token by its hashed value.
	GetPasswordResetTokenByHash(ctx context.Context, hash string) (domain.PasswordResetToken, error)

	// DeletePasswordResetToken removes a token by hash and reports whether it
	// existed. Consumption relies on this being a single conditional write.
	DeletePasswordResetToken(ctx context.Context, hash string) (bool, error)

	// DeleteUserPasswordResetTokens removes all outstanding tokens for a user
	// (issuing a new one invalidates the old). Returns the deleted count.
	DeleteUserPasswordResetTokens(ctx context.Context, userID string) (int64, error)
}
