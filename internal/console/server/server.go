package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xela07ax/mdm-merge-console/internal/console/handler"
	"github.com/xela07ax/mdm-merge-console/internal/engine"
	"go.uber.org/zap"
)

type ConsoleServer struct {
	router *chi.Mux
	logger *zap.Logger

	backend  string
	gatherer prometheus.Gatherer

	opsHandler *handler.OperationHandler // /v1/operations, /v1/state
}

// NewConsoleServer собирает локальный API консоли со всеми зависимостями
func NewConsoleServer(
	logger *zap.Logger,
	backend string,
	gatherer prometheus.Gatherer,
	opsH *handler.OperationHandler,
) *ConsoleServer {
	s := &ConsoleServer{
		router:     chi.NewRouter(),
		logger:     logger.Named("console-api"),
		backend:    backend,
		gatherer:   gatherer,
		opsHandler: opsH,
	}

	s.routes()
	return s
}

func (s *ConsoleServer) routes() {
	r := s.router

	// --- 1. Глобальные инфраструктурные Middleware ---
	r.Use(middleware.RealIP)
	r.Use(engine.TracingMiddleware)
	r.Use(engine.RequestLogger(s.logger))
	r.Use(middleware.Recoverer)

	// --- 2. Служебные роуты ---
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "UP", "backend": s.backend})
	})
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	// --- 3. Операции и состояние дашборда ---
	r.Mount("/v1/operations", s.opsHandler.Routes())
	r.Get("/v1/state", s.opsHandler.State)
}

// ServeHTTP позволяет использовать ConsoleServer как стандартный http.Handler
func (s *ConsoleServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
