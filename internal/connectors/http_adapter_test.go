package connectors

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/xela07ax/mdm-merge-console/internal/domain"
	"github.com/xela07ax/mdm-merge-console/internal/infra"
	"go.uber.org/zap"
)

func newAdapter(t *testing.T, h http.Handler) *HTTPAdapter {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	a, err := NewHTTPAdapter(srv.URL+"/", 0, zap.NewNop())
	if err != nil {
		t.Fatalf("NewHTTPAdapter: %v", err)
	}
	return a
}

func TestSendBuildsURLFromRouteAndQuery(t *testing.T) {
	var gotMethod, gotQuery, gotTrace, gotContentType string
	r := chi.NewRouter()
	r.Post("/api/entity-merge/merge-entities", func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotQuery = r.URL.RawQuery
		gotTrace = r.Header.Get(infra.TraceHeader)
		gotContentType = r.Header.Get("Content-Type")
		w.Write([]byte(`{"status":"MERGED"}`))
	})
	a := newAdapter(t, r)

	ctx := infra.WithTraceID(context.Background(), "trace-1")
	q := url.Values{"entityId1": {"CRM_001"}, "entityId2": {"ERP_001"}}
	raw, err := a.Send(ctx, domain.OpMergeEntities, nil, q, nil)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if string(raw) != `{"status":"MERGED"}` {
		t.Fatalf("unexpected payload %s", raw)
	}
	if gotMethod != http.MethodPost {
		t.Fatalf("expected POST, got %s", gotMethod)
	}
	if gotQuery != "entityId1=CRM_001&entityId2=ERP_001" {
		t.Fatalf("unexpected query %q", gotQuery)
	}
	if gotTrace != "trace-1" {
		t.Fatalf("trace id not propagated: %q", gotTrace)
	}
	if gotContentType != "" {
		t.Fatalf("no body declared, Content-Type must be absent, got %q", gotContentType)
	}
}

func TestSendRendersPathParams(t *testing.T) {
	var got string
	r := chi.NewRouter()
	r.Get("/api/agent-merge/audit-logs/agent/{agentId}", func(w http.ResponseWriter, r *http.Request) {
		got = chi.URLParam(r, "agentId")
		w.Write([]byte(`{"auditLogs":[]}`))
	})
	a := newAdapter(t, r)

	if _, err := a.Send(context.Background(), domain.OpAgentAuditLogs, map[string]string{"agentId": "merge-agent-1"}, nil, nil); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got != "merge-agent-1" {
		t.Fatalf("unexpected agentId %q", got)
	}
}

func TestSendMissingPathParamIsValidation(t *testing.T) {
	calls := 0
	a := newAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { calls++ }))

	_, err := a.Send(context.Background(), domain.OpEntityAuditLogs, nil, nil, nil)
	var vErr *domain.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected no network calls, got %d", calls)
	}
}

func TestSendClassifiesHTTPError(t *testing.T) {
	a := newAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"boom"}`))
	}))

	_, err := a.Send(context.Background(), domain.OpEntityBulkMerge, nil, nil, nil)
	var tErr *TransportError
	if !errors.As(err, &tErr) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if tErr.Kind != KindHTTP || tErr.StatusCode != 500 {
		t.Fatalf("unexpected classification: %+v", tErr)
	}
	if !strings.Contains(err.Error(), "500") {
		t.Fatalf("message must mention the status: %q", err.Error())
	}
}

func TestSendClassifiesDecodeError(t *testing.T) {
	a := newAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>not json</html>`))
	}))

	_, err := a.Send(context.Background(), domain.OpFindMatches, nil, nil, nil)
	var tErr *TransportError
	if !errors.As(err, &tErr) || tErr.Kind != KindDecode {
		t.Fatalf("expected DECODE error, got %v", err)
	}
}

func TestSendClassifiesNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	a, err := NewHTTPAdapter(base, 0, zap.NewNop())
	if err != nil {
		t.Fatalf("NewHTTPAdapter: %v", err)
	}
	_, err = a.Send(context.Background(), domain.OpAgentStatus, nil, nil, nil)
	if !IsNetwork(err) {
		t.Fatalf("expected NETWORK error, got %v", err)
	}
}

func TestNormalizeBaseURL(t *testing.T) {
	cases := map[string]string{
		"localhost:8080":              "http://localhost:8080",
		"http://localhost:8080/":      "http://localhost:8080",
		"https://mdm.example/prefix/": "https://mdm.example/prefix",
	}
	for in, want := range cases {
		got, err := normalizeBaseURL(in)
		if err != nil {
			t.Fatalf("normalizeBaseURL(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("normalizeBaseURL(%q) = %q, want %q", in, got, want)
		}
	}
	if _, err := normalizeBaseURL("http://"); err == nil {
		t.Fatalf("expected error for empty host")
	}
}
