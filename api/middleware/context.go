package middleware

import "context"

// Request identity is stored as plain strings so handlers can decide how
// strictly to parse them.
type contextKey int

const (
	userIDKey contextKey = iota
	roleKey
	sessionIDKey
)

func stringValue(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(key).(string)
	return v
}

func withString(ctx context.Context, key contextKey, value string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, key, value)
}

func UserIDFromContext(ctx context.Context) string { return stringValue(ctx, userIDKey) }

func RoleFromContext(ctx context.Context) string { return stringValue(ctx, roleKey) }

// SessionIDFromContext is the anonymous cart session, set for every caller
// that sent one, signed in or not.
func SessionIDFromContext(ctx context.Context) string { return stringValue(ctx, sessionIDKey) }

func WithUserID(ctx context.Context, userID string) context.Context {
	return withString(ctx, userIDKey, userID)
}

func WithRole(ctx context.Context, role string) context.Context {
	return withString(ctx, roleKey, role)
}

func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return withString(ctx, sessionIDKey, sessionID)
}
