package sqlite

import (
	"context"
	"time"

	"github.com/evalua/evalua/internal/auth/domain"
)

type studentProfilesRepo struct {
	db dbtx
}

func (r *studentProfilesRepo) GetStudentProfileByUserID(
	ctx context.Context,
	userID string,
) (domain.StudentProfile, error) {
	var p domain.StudentProfile
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, program, created_at, updated_at
		 FROM student_profiles WHERE user_id = ?`, userID).
		Scan(&p.UserID, &p.Program, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return domain.StudentProfile{}, mapNotFound(err)
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}

func (r *studentProfilesRepo) UpsertStudentProfile(ctx context.Context, p domain.StudentProfile) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO student_profiles (user_id, program, created_at, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET program = excluded.program, updated_at = excluded.updated_at`,
		p.UserID, p.Program, now, now)
	return err
}
