package engine

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/xela07ax/mdm-merge-console/internal/connectors"
	"github.com/xela07ax/mdm-merge-console/internal/domain"
	"go.uber.org/zap"
)

type senderFunc func() error

func (f senderFunc) Send(ctx context.Context, op domain.Operation, pathParams map[string]string, query url.Values, body any) (json.RawMessage, error) {
	if err := f(); err != nil {
		return nil, err
	}
	return json.RawMessage(`{"status":"UP"}`), nil
}

func refused() error {
	return &connectors.TransportError{Kind: connectors.KindNetwork, Err: errors.New("connection refused")}
}

func TestWaitReadyRetriesUntilHealthy(t *testing.T) {
	calls := 0
	probe := senderFunc(func() error {
		calls++
		if calls <= 2 {
			return refused()
		}
		return nil
	})

	if err := WaitReady(context.Background(), probe, 5, time.Millisecond, zap.NewNop()); err != nil {
		t.Fatalf("WaitReady: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 probes, got %d", calls)
	}
}

func TestWaitReadyGivesUp(t *testing.T) {
	calls := 0
	probe := senderFunc(func() error {
		calls++
		return refused()
	})

	if err := WaitReady(context.Background(), probe, 3, time.Millisecond, zap.NewNop()); err == nil {
		t.Fatalf("expected error")
	}
	if calls != 3 {
		t.Fatalf("expected 3 probes, got %d", calls)
	}
}

func TestWaitReadyDisabled(t *testing.T) {
	calls := 0
	probe := senderFunc(func() error { calls++; return nil })
	if err := WaitReady(context.Background(), probe, 0, time.Millisecond, zap.NewNop()); err != nil {
		t.Fatalf("WaitReady: %v", err)
	}
	if calls != 0 {
		t.Fatalf("probe disabled, got %d calls", calls)
	}
}
