package middleware

import "context"

type contextKey string

const (
	ctxUserID       contextKey = "user_id"
	ctxSessionToken contextKey = "session_token"
)

// UserIDFromContext returns the authenticated shopper, or 0 when anonymous.
func UserIDFromContext(ctx context.Context) int64 {
	if ctx == nil {
		return 0
	}
	if v, ok := ctx.Value(ctxUserID).(int64); ok {
		return v
	}
	return 0
}

// SessionTokenFromContext returns the raw session cookie value.
func SessionTokenFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxSessionToken).(string); ok {
		return v
	}
	return ""
}

// WithUserID injects the user identifier into the context.
func WithUserID(ctx context.Context, userID int64) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUserID, userID)
}

func withSessionToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, ctxSessionToken, token)
}
