package middleware

import "context"

type contextKey string

const (
	ctxUserID     contextKey = "user_id"
	ctxBusinessID contextKey = "business_id"
	ctxRole       contextKey = "actor_role"
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

func BusinessIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxBusinessID).(string); ok {
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

// WithIdentity seeds the actor fields the auth middleware normally injects.
// Exposed for handler tests.
func WithIdentity(ctx context.Context, userID, businessID, role string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxUserID, userID)
	ctx = context.WithValue(ctx, ctxBusinessID, businessID)
	return context.WithValue(ctx, ctxRole, role)
}
