package engine

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/xela07ax/mdm-merge-console/internal/connectors"
	"github.com/xela07ax/mdm-merge-console/internal/domain"
	"go.uber.org/zap"
)

func TestMetricsFollowLifecycle(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	c := NewController(zap.NewNop(), WithObserver(m.Observer()))

	ok := m.Instrument(domain.OpAgentStatus, func(ctx context.Context) (json.RawMessage, error) {
		return json.RawMessage(`{}`), nil
	})
	fail := m.Instrument(domain.OpEntityBulkMerge, func(ctx context.Context) (json.RawMessage, error) {
		return nil, &connectors.TransportError{Kind: connectors.KindHTTP, StatusCode: 500, Err: errors.New("boom")}
	})

	if _, err := c.Run(context.Background(), domain.OpAgentStatus, ok); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, err := c.Run(context.Background(), domain.OpEntityBulkMerge, fail); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := testutil.ToFloat64(m.OperationsTotal.WithLabelValues("AGENT_STATUS")); got != 1 {
		t.Fatalf("operations_total{AGENT_STATUS} = %v", got)
	}
	if got := testutil.ToFloat64(m.ErrorTotal.WithLabelValues("ENTITY_BULK_MERGE", "http")); got != 1 {
		t.Fatalf("errors_total{http} = %v", got)
	}
	if got := testutil.ToFloat64(m.InFlight); got != 0 {
		t.Fatalf("in_flight must drop to 0 after settle, got %v", got)
	}
	if n := testutil.CollectAndCount(m.OperationDuration); n != 2 {
		t.Fatalf("expected 2 duration series (succeeded, failed), got %d", n)
	}
}

func TestNewMetricsWithoutRegistry(t *testing.T) {
	// Повторное создание без реестра не должно паниковать на дубликатах
	NewMetrics(nil)
	NewMetrics(nil)
}
