package domain

import "time"

// Role names are immutable reference data seeded by migration.
const (
	RoleStudent      = "Student"
	RoleTeacher      = "Teacher"
	RoleProfessional = "Professional"
	RoleAdmin        = "Admin"
)

type Role struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// StudentProfile carries the role-conditional attributes used for claim
// enrichment. Only students have one; the program code may still be empty.
type StudentProfile struct {
	UserID    string
	Program   string // program code ("filière"), e.g. "INFO-3A"
	CreatedAt time.Time
	UpdatedAt time.Time
}
