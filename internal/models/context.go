package models

import "context"

type idempotencyKeyCtx struct{}

// WithIdempotencyKey attaches the key that identifies one booking attempt, so
// a retried create of the same draft is recognised by the backend.
func WithIdempotencyKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, idempotencyKeyCtx{}, key)
}

// IdempotencyKey returns the key set by WithIdempotencyKey, or "".
func IdempotencyKey(ctx context.Context) string {
	key, _ := ctx.Value(idempotencyKeyCtx{}).(string)
	return key
}
