package middleware

import "context"

type contextKey string

const (
	ctxUserID         contextKey = "user_id"
	ctxRole           contextKey = "role"
	ctxLedgerIdentity contextKey = "ledger_identity"
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

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

// LedgerIdentityFromContext returns the identity stamped onto ledger
// submissions for the authenticated caller.
func LedgerIdentityFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxLedgerIdentity).(string); ok {
		return v
	}
	return ""
}

// WithUserID injects the user identifier into the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUserID, userID)
}

// WithLedgerIdentity injects the caller's ledger identity for downstream
// handlers.
func WithLedgerIdentity(ctx context.Context, identity string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxLedgerIdentity, identity)
}
