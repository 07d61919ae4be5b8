package connectors

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/xela07ax/mdm-merge-console/internal/domain"
	"go.uber.org/zap"
)

func TestMockBackendServesEveryRoute(t *testing.T) {
	backend := NewMockBackend(0)
	srv := httptest.NewServer(backend.Handler())
	defer srv.Close()

	a, err := NewHTTPAdapter(srv.URL, 0, zap.NewNop())
	if err != nil {
		t.Fatalf("NewHTTPAdapter: %v", err)
	}

	params := map[string]string{"domain": "LifeSciences", "entityId": "CRM_001", "agentId": "merge-agent-1"}
	query := map[domain.Operation]url.Values{
		domain.OpMergeEntities: {"entityId1": {"CRM_001"}, "entityId2": {"ERP_001"}},
		domain.OpAuditLogs:     {"limit": {"5"}},
	}
	for _, op := range domain.Operations() {
		if _, err := a.Send(context.Background(), op, params, query[op], nil); err != nil {
			t.Fatalf("%s: %v", op, err)
		}
	}
}

func TestMockBackendFailWith(t *testing.T) {
	backend := NewMockBackend(0)
	backend.FailWith("/api/entity-merge/bulk-merge", http.StatusInternalServerError)
	srv := httptest.NewServer(backend.Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/entity-merge/bulk-merge", "application/json", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	if backend.Hits("/api/entity-merge/bulk-merge") != 1 {
		t.Fatalf("expected one hit")
	}

	backend.FailWith("/api/entity-merge/bulk-merge", 0)
	resp, err = http.Post(srv.URL+"/api/entity-merge/bulk-merge", "application/json", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 after clearing failure, got %d", resp.StatusCode)
	}
}

func TestMockBackendAuditTrail(t *testing.T) {
	backend := NewMockBackend(0)
	srv := httptest.NewServer(backend.Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/agent-merge/complete-workflow", "application/json", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/api/agent-merge/audit-logs?limit=1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	var body struct {
		AuditLogs  []map[string]any `json:"auditLogs"`
		Statistics map[string]any   `json:"statistics"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.AuditLogs) != 1 {
		t.Fatalf("limit not honored: %d entries", len(body.AuditLogs))
	}
	if body.AuditLogs[0]["operationType"] != "MERGE_COMPLETED" {
		t.Fatalf("expected newest entry first, got %v", body.AuditLogs[0]["operationType"])
	}
	if body.Statistics["totalLogs"].(float64) != 2 {
		t.Fatalf("unexpected statistics: %v", body.Statistics)
	}
}
