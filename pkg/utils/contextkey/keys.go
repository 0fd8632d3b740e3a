// Package contextkey defines typed context keys shared across the engine.
package contextkey

import "context"

type key int

const (
	taskIDKey key = iota
)

// WithTaskID returns a context carrying the judge task identifier.
func WithTaskID(ctx context.Context, taskID string) context.Context {
	return context.WithValue(ctx, taskIDKey, taskID)
}

// TaskID extracts the judge task identifier, if any.
func TaskID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(taskIDKey).(string)
	return id, ok
}
