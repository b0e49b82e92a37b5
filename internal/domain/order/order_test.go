package order

import (
	"strings"
	"testing"
	"time"
)

func TestNewOrderIDFormat(t *testing.T) {
	now := time.Now()
	id := NewOrderID(now)

	parts := strings.SplitN(id, "-", 3)
	if len(parts) != 3 {
		t.Fatalf("unexpected order id shape: %q", id)
	}
	if parts[0] != "ADV" {
		t.Fatalf("expected ADV prefix, got %q", id)
	}
	if len(parts[2]) != 8 {
		t.Fatalf("expected 8-char suffix, got %q", parts[2])
	}

	if NewOrderID(now) == id {
		t.Fatal("order ids must be unique even within one millisecond")
	}
}

func TestParseStatus(t *testing.T) {
	for raw, want := range map[string]Status{
		"COMPLETED":  StatusComplete,
		"success":    StatusComplete,
		" PAID ":     StatusComplete,
		"FAILED":     StatusFailed,
		"declined":   StatusFailed,
		"CANCELED":   StatusCancelled,
		"cancelled":  StatusCancelled,
		"EXPIRED":    StatusTimeout,
		"PROCESSING": StatusProcessing,
		"whatever":   StatusPending,
		"":           StatusPending,
	} {
		if got := ParseStatus(raw); got != want {
			t.Fatalf("ParseStatus(%q) = %v, want %v", raw, got, want)
		}
	}
}

func TestStatusTransitions(t *testing.T) {
	if !CanTransition(StatusPending, StatusProcessing) {
		t.Fatal("pending -> processing must be legal")
	}
	if !CanTransition(StatusProcessing, StatusComplete) {
		t.Fatal("processing -> complete must be legal")
	}
	for _, terminal := range []Status{StatusComplete, StatusFailed, StatusCancelled, StatusTimeout} {
		if !terminal.Terminal() {
			t.Fatalf("%v must be terminal", terminal)
		}
		if CanTransition(terminal, StatusPending) {
			t.Fatalf("terminal %v must have no outgoing transitions", terminal)
		}
	}
}

func TestApplyStatus(t *testing.T) {
	tx, err := NewTransaction("ADV-1-abc", "airtime", "GH", "MTN Ghana", 10, "USD", "hash")
	if err != nil {
		t.Fatalf("new transaction: %v", err)
	}
	if tx.Status != StatusPending {
		t.Fatalf("fresh record must be pending, got %v", tx.Status)
	}

	if err := tx.ApplyStatus(StatusComplete, ""); err != nil {
		t.Fatalf("pending -> complete: %v", err)
	}
	if err := tx.ApplyStatus(StatusFailed, "late failure"); err == nil {
		t.Fatal("complete -> failed must be rejected")
	}
	// Re-applying the current status is a no-op, not an error.
	if err := tx.ApplyStatus(StatusComplete, ""); err != nil {
		t.Fatalf("idempotent apply: %v", err)
	}
}

func TestNewTransactionRejectsBadInput(t *testing.T) {
	if _, err := NewTransaction("", "airtime", "GH", "", 10, "USD", ""); err == nil {
		t.Fatal("empty order id must be rejected")
	}
	if _, err := NewTransaction("ADV-1-abc", "airtime", "GH", "", 0, "USD", ""); err == nil {
		t.Fatal("non-positive amount must be rejected")
	}
}
