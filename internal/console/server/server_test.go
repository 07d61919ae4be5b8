package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/xela07ax/mdm-merge-console/internal/connectors"
	"github.com/xela07ax/mdm-merge-console/internal/console/handler"
	"github.com/xela07ax/mdm-merge-console/internal/console/service"
	"github.com/xela07ax/mdm-merge-console/internal/domain"
	"github.com/xela07ax/mdm-merge-console/internal/engine"
	"github.com/xela07ax/mdm-merge-console/internal/infra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// newStack поднимает полный стек: фейковый бэкенд -> адаптер -> дашборд -> локальный API.
func newStack(t *testing.T, backend http.Handler, limiter *rate.Limiter) *httptest.Server {
	t.Helper()
	be := httptest.NewServer(backend)
	t.Cleanup(be.Close)

	adapter, err := connectors.NewHTTPAdapter(be.URL, 0, zap.NewNop())
	if err != nil {
		t.Fatalf("NewHTTPAdapter: %v", err)
	}
	reg := prometheus.NewRegistry()
	dash := service.NewDashboard(adapter.BaseURL(), service.NewComposer(adapter, 20, zap.NewNop()), zap.NewNop(),
		service.WithMetrics(engine.NewMetrics(reg)))

	srv := NewConsoleServer(zap.NewNop(), adapter.BaseURL(), reg, handler.NewOperationHandler(dash, limiter, zap.NewNop()))
	api := httptest.NewServer(srv)
	t.Cleanup(api.Close)
	return api
}

func post(t *testing.T, url, body string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp, data
}

func TestHealthAndTrace(t *testing.T) {
	api := newStack(t, connectors.NewMockBackend(0).Handler(), nil)

	resp, err := http.Get(api.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	if resp.Header.Get(infra.TraceHeader) == "" {
		t.Fatalf("trace id header missing")
	}
}

func TestListOperations(t *testing.T) {
	api := newStack(t, connectors.NewMockBackend(0).Handler(), nil)

	resp, err := http.Get(api.URL + "/v1/operations")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	var ops []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&ops); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(ops) != len(domain.Operations()) {
		t.Fatalf("expected %d operations, got %d", len(domain.Operations()), len(ops))
	}
}

func TestDispatchAndState(t *testing.T) {
	api := newStack(t, connectors.NewMockBackend(0).Handler(), nil)

	resp, body := post(t, api.URL+"/v1/operations/agent-status?wait=true", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.StatusCode, body)
	}
	var lc domain.Lifecycle
	if err := json.Unmarshal(body, &lc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if lc.Phase != domain.PhaseSucceeded || lc.Operation != domain.OpAgentStatus {
		t.Fatalf("unexpected lifecycle %+v", lc)
	}

	stateResp, err := http.Get(api.URL + "/v1/state")
	if err != nil {
		t.Fatalf("GET /v1/state: %v", err)
	}
	defer stateResp.Body.Close()
	var snap domain.DashboardSnapshot
	if err := json.NewDecoder(stateResp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.AgentStatus == nil || snap.AgentStatus.MergeAgents.TotalAgents != 1 {
		t.Fatalf("state does not carry agent status: %+v", snap)
	}
}

func TestDispatchValidation(t *testing.T) {
	api := newStack(t, connectors.NewMockBackend(0).Handler(), nil)

	if resp, _ := post(t, api.URL+"/v1/operations/drop-tables", ""); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown operation: expected 400, got %d", resp.StatusCode)
	}
	if resp, _ := post(t, api.URL+"/v1/operations/merge-entities", "{broken"); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("broken body: expected 400, got %d", resp.StatusCode)
	}

	resp, body := post(t, api.URL+"/v1/operations/merge-entities?wait=true", `{"entityId1":"CRM_001"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	var lc domain.Lifecycle
	if err := json.Unmarshal(body, &lc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if lc.Phase != domain.PhaseFailed || !strings.Contains(lc.Message, "entityId2") {
		t.Fatalf("expected validation failure, got %+v", lc)
	}
}

func TestDispatchConflictWhileLoading(t *testing.T) {
	release := make(chan struct{})
	r := chi.NewRouter()
	r.Post("/api/agent-merge/complete-workflow", func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Write([]byte(`{}`))
	})
	api := newStack(t, r, nil)
	defer close(release)

	resp, body := post(t, api.URL+"/v1/operations/complete-workflow", "")
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", resp.StatusCode, body)
	}
	var lc domain.Lifecycle
	if err := json.Unmarshal(body, &lc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !lc.IsLoading() {
		t.Fatalf("expected Loading, got %+v", lc)
	}

	if resp, _ := post(t, api.URL+"/v1/operations/find-matches", ""); resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestDispatchRateLimited(t *testing.T) {
	api := newStack(t, connectors.NewMockBackend(0).Handler(), rate.NewLimiter(0, 1))

	if resp, _ := post(t, api.URL+"/v1/operations/health?wait=true", ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("first call: expected 200, got %d", resp.StatusCode)
	}
	if resp, _ := post(t, api.URL+"/v1/operations/health?wait=true", ""); resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("second call: expected 429, got %d", resp.StatusCode)
	}
}

func TestTraceIDReachesBackend(t *testing.T) {
	got := make(chan string, 1)
	r := chi.NewRouter()
	r.Get("/api/agent-merge/health", func(w http.ResponseWriter, r *http.Request) {
		got <- r.Header.Get(infra.TraceHeader)
		w.Write([]byte(`{"status":"UP"}`))
	})
	api := newStack(t, r, nil)

	req, _ := http.NewRequest(http.MethodPost, api.URL+"/v1/operations/health?wait=true", nil)
	req.Header.Set(infra.TraceHeader, "trace-from-client")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()

	if id := <-got; id != "trace-from-client" {
		t.Fatalf("backend saw trace id %q", id)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	api := newStack(t, connectors.NewMockBackend(0).Handler(), nil)
	post(t, api.URL+"/v1/operations/find-matches?wait=true", "")

	resp, err := http.Get(api.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(data), `mdm_console_operations_total{operation="FIND_MATCHES"} 1`) {
		t.Fatalf("metrics do not count the operation:\n%s", data)
	}
}
