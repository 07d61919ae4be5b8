package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestLifecycleTransitions(t *testing.T) {
	idle := Idle()
	if err := idle.CanTransitionTo(PhaseLoading); err != nil {
		t.Fatalf("idle -> loading must be allowed: %v", err)
	}
	if err := idle.CanTransitionTo(PhaseSucceeded); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("idle -> succeeded must be rejected, got %v", err)
	}

	loading := Loading(OpFindMatches, time.Unix(10, 0))
	if err := loading.CanTransitionTo(PhaseLoading); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("loading -> loading must be rejected, got %v", err)
	}
	if err := loading.CanTransitionTo(PhaseFailed); err != nil {
		t.Fatalf("loading -> failed must be allowed: %v", err)
	}

	failed := loading.Settle(nil, "HTTP 500", time.Unix(12, 0))
	if failed.Phase != PhaseFailed || failed.Message != "HTTP 500" || failed.Payload != nil {
		t.Fatalf("unexpected failed lifecycle: %+v", failed)
	}
	if err := failed.CanTransitionTo(PhaseLoading); err != nil {
		t.Fatalf("failed -> loading must be allowed: %v", err)
	}
	if failed.Duration() != 2*time.Second {
		t.Fatalf("unexpected duration %v", failed.Duration())
	}
}

func TestSettleSucceededKeepsPayload(t *testing.T) {
	l := Loading(OpBulkMerge, time.Now()).Settle(json.RawMessage(`{"ok":true}`), "", time.Now())
	if l.Phase != PhaseSucceeded || string(l.Payload) != `{"ok":true}` || l.Message != "" {
		t.Fatalf("unexpected lifecycle: %+v", l)
	}
	if !l.IsTerminal() || l.IsLoading() {
		t.Fatalf("succeeded must be terminal")
	}
}

func TestParseAuditStatus(t *testing.T) {
	cases := map[string]AuditStatus{
		"SUCCESS":  AuditSuccess,
		"failed":   AuditFailed,
		"PENDING":  AuditPending,
		"APPROVED": AuditUnknown,
		"":         AuditUnknown,
	}
	for in, want := range cases {
		if got := ParseAuditStatus(in); got != want {
			t.Fatalf("ParseAuditStatus(%q) = %s, want %s", in, got, want)
		}
	}
}
