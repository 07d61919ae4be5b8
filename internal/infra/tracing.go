package infra

import (
	"context"

	"github.com/google/uuid"
)

// Тип для ключа в контексте (избегаем коллизий)
type ctxKey string

const traceIDKey ctxKey = "trace_id"

// TraceHeader: заголовок, которым trace-id уходит в бэкенд и возвращается клиентам локального API.
const TraceHeader = "X-Trace-ID"

// WithTraceID кладет trace-id в контекст.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// TraceID достает trace-id из контекста. Если его нет, генерирует новый,
// чтобы каждый запрос к бэкенду можно было найти в логах обеих сторон.
func TraceID(ctx context.Context) string {
	if id, ok := ctx.Value(traceIDKey).(string); ok && id != "" {
		return id
	}
	return uuid.New().String()
}

// EnsureTraceID гарантирует, что у контекста есть trace-id.
func EnsureTraceID(ctx context.Context) (context.Context, string) {
	if id, ok := ctx.Value(traceIDKey).(string); ok && id != "" {
		return ctx, id
	}
	id := uuid.New().String()
	return WithTraceID(ctx, id), id
}
