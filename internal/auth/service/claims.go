package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/evalua/evalua/internal/auth/domain"
	"github.com/evalua/evalua/internal/auth/store"
	"github.com/evalua/evalua/pkg/jwtx"
	"github.com/evalua/evalua/pkg/slogx"
)

// ClaimEnricher adds role-specific claims to an access token before signing.
// Enrichment is best-effort: an enricher that cannot produce its claim logs
// and leaves the claims untouched rather than failing the issuance.
type ClaimEnricher interface {
	Enrich(ctx context.Context, user domain.User, role domain.Role, claims *jwtx.Claims)
}

// StudentProgramEnricher attaches the student's program code ("filière") to
// the token so downstream services can scope evaluations without a lookup.
type StudentProgramEnricher struct {
	Store store.Store
}

func (e *StudentProgramEnricher) Enrich(
	ctx context.Context,
	user domain.User,
	role domain.Role,
	claims *jwtx.Claims,
) {
	if role.Name != domain.RoleStudent {
		return
	}

	profile, err := e.Store.StudentProfiles().GetStudentProfileByUserID(ctx, user.ID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			slogx.FromContext(ctx).Warn("student profile lookup failed, omitting program claim",
				slog.String("user_id", user.ID),
				slog.Any("error", err),
			)
		}
		return
	}

	claims.Program = profile.Program
}
