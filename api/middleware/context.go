package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/leanai/mumul-backend/pkg/enums"
)

type contextKey string

const (
	ctxUserID   contextKey = "user_id"
	ctxKind     contextKey = "account_kind"
	ctxTenantID contextKey = "tenant_id"
	ctxAccessID contextKey = "access_id"
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

// UserUUIDFromContext parses the authenticated user id.
func UserUUIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(UserIDFromContext(ctx))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func KindFromContext(ctx context.Context) enums.AccountKind {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxKind).(enums.AccountKind); ok {
		return v
	}
	return ""
}

// TenantIDFromContext returns the store id (store owners) or public id
// (public staff) carried by the token.
func TenantIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxTenantID).(string); ok {
		return v
	}
	return ""
}

// AccessIDFromContext returns the jti of the access token.
func AccessIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxAccessID).(string); ok {
		return v
	}
	return ""
}

// WithIdentity seeds the context the same way Auth does. Used by tests and
// internal callers.
func WithIdentity(ctx context.Context, userID string, kind enums.AccountKind, tenantID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxUserID, userID)
	ctx = context.WithValue(ctx, ctxKind, kind)
	if tenantID != "" {
		ctx = context.WithValue(ctx, ctxTenantID, tenantID)
	}
	return ctx
}

func withAccessID(ctx context.Context, accessID string) context.Context {
	return context.WithValue(ctx, ctxAccessID, accessID)
}
