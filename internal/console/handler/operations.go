package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/xela07ax/mdm-merge-console/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Dashboard описывает, что нам нужно от фасада
type Dashboard interface {
	Dispatch(ctx context.Context, op domain.Operation, p domain.Params) (<-chan domain.Lifecycle, error)
	Lifecycle() domain.Lifecycle
	Snapshot() domain.DashboardSnapshot
}

type OperationHandler struct {
	dash    Dashboard
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewOperationHandler. limiter == nil, без ограничения частоты.
func NewOperationHandler(d Dashboard, limiter *rate.Limiter, logger *zap.Logger) *OperationHandler {
	return &OperationHandler{dash: d, limiter: limiter, logger: logger.Named("operations")}
}

// Routes Маршруты для Chi
func (h *OperationHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/{op}", h.Dispatch)
	return r
}

type operationInfo struct {
	Operation domain.Operation `json:"operation"`
	Slug      string           `json:"slug"`
	Method    string           `json:"method"`
	Path      string           `json:"path"`
	Query     []string         `json:"query,omitempty"`
}

// List возвращает таблицу операций
// GET /v1/operations
func (h *OperationHandler) List(w http.ResponseWriter, r *http.Request) {
	ops := domain.Operations()
	out := make([]operationInfo, 0, len(ops))
	for _, op := range ops {
		route, _ := domain.RouteFor(op)
		out = append(out, operationInfo{Operation: op, Slug: op.Slug(), Method: route.Method, Path: route.Path, Query: route.Query})
	}
	writeJSON(w, http.StatusOK, out)
}

// Dispatch запускает операцию.
// POST /v1/operations/{op}[?wait=true], тело, domain.Params (необязательно)
func (h *OperationHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	op, err := domain.ParseOperation(chi.URLParam(r, "op"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if h.limiter != nil && !h.limiter.Allow() {
		writeError(w, http.StatusTooManyRequests, errors.New("too many operations, slow down"))
		return
	}

	var params domain.Params
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, errors.New("invalid JSON body: "+err.Error()))
		return
	}

	// Операция живет дольше HTTP-запроса, но trace-id сохраняется
	done, err := h.dash.Dispatch(context.WithoutCancel(r.Context()), op, params)
	if err != nil {
		var vErr *domain.ValidationError
		switch {
		case errors.As(err, &vErr):
			writeError(w, http.StatusBadRequest, err)
		case errors.Is(err, domain.ErrBusy):
			writeError(w, http.StatusConflict, err)
		default:
			h.logger.Error("dispatch failed", zap.String("op", string(op)), zap.Error(err))
			writeError(w, http.StatusInternalServerError, err)
		}
		return
	}

	if r.URL.Query().Get("wait") == "true" {
		select {
		case lc := <-done:
			writeJSON(w, http.StatusOK, lc)
		case <-r.Context().Done():
			// клиент ушел, операция доиграет сама
		}
		return
	}
	writeJSON(w, http.StatusAccepted, h.dash.Lifecycle())
}

// State возвращает срез для отрисовки
// GET /v1/state
func (h *OperationHandler) State(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.dash.Snapshot())
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
