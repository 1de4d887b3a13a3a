package domain

import "time"

type User struct {
	ID           string
	Email        string // unique, stored normalized (trimmed + lowercased)
	PasswordHash string // argon2id PHC encoded
	RoleID       string // Foreign key to roles table
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
