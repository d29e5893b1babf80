package utils

import (
	"context"
)

type contextKey string

const ContextSessionIDKey contextKey = "sessionID"

func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ContextSessionIDKey, id)
}

func GetSessionIDFromContext(ctx context.Context) (string, bool) {
	id := ctx.Value(ContextSessionIDKey)
	idStr, ok := id.(string)
	return idStr, ok && idStr != ""
}
