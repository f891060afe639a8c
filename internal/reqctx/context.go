package reqctx

import "context"

type ctxKey string

const (
	keyRequestID ctxKey = "request_id"
	keyAccountID ctxKey = "account_id"
)

// WithRequestID stores the correlation id echoed in X-Request-Id.
func WithRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, keyRequestID, rid)
}

// RequestID returns correlation id if present.
func RequestID(ctx context.Context) string {
	v, _ := ctx.Value(keyRequestID).(string)
	return v
}

// WithAccountID stores the authenticated account for log lines written deeper in the stack.
func WithAccountID(ctx context.Context, id uint64) context.Context {
	return context.WithValue(ctx, keyAccountID, id)
}

// AccountID returns account id if present.
func AccountID(ctx context.Context) uint64 {
	v, _ := ctx.Value(keyAccountID).(uint64)
	return v
}
