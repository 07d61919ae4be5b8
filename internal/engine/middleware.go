package engine

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/xela07ax/mdm-merge-console/internal/infra"
	"go.uber.org/zap"
)

// TracingMiddleware инициализирует Trace-ID для каждого запроса к локальному API.
// Тот же ID уходит в бэкенд заголовком X-Trace-ID.
func TracingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 1. Пытаемся достать ID из заголовка (если пришел от клиента/прокси)
		ctx := r.Context()
		if id := r.Header.Get(infra.TraceHeader); id != "" {
			ctx = infra.WithTraceID(ctx, id)
		}

		// 2. Если его нет, генерируем новый
		ctx, traceID := infra.EnsureTraceID(ctx)

		// 3. Добавляем в ответ, чтобы клиент тоже знал ID своего запроса
		w.Header().Set(infra.TraceHeader, traceID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestLogger пишет access-log через zap вместо стандартного логгера chi.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	logger = logger.Named("http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("took", time.Since(start)),
				zap.String("trace_id", infra.TraceID(r.Context())))
		})
	}
}
