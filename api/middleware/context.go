package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/zidir/medcom-backend/internal/access"
	"github.com/zidir/medcom-backend/pkg/enums"
)

type contextKey string

const (
	ctxUserID     contextKey = "user_id"
	ctxLogin      contextKey = "login"
	ctxRole       contextKey = "actor_role"
	ctxPharmacyID contextKey = "pharmacy_id"
)

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

func LoginFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxLogin).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

func PharmacyIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxPharmacyID).(string); ok {
		return v
	}
	return ""
}

// ActorFromContext rebuilds the authenticated actor from values seeded by Auth.
func ActorFromContext(ctx context.Context) (access.Actor, bool) {
	userID, err := uuid.Parse(UserIDFromContext(ctx))
	if err != nil {
		return access.Actor{}, false
	}

	actor := access.Actor{
		UserID: userID,
		Login:  LoginFromContext(ctx),
		Role:   enums.Role(RoleFromContext(ctx)),
	}
	if raw := PharmacyIDFromContext(ctx); raw != "" {
		if pharmacyID, err := uuid.Parse(raw); err == nil {
			actor.PharmacyID = &pharmacyID
		}
	}
	return actor, true
}
