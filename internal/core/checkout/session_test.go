package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"advtopup/internal/domain/order"
)

type statusFunc func(ctx context.Context, orderID string) (order.Status, error)

func (f statusFunc) Status(ctx context.Context, orderID string) (order.Status, error) {
	return f(ctx, orderID)
}

func staticStatus(st order.Status, err error) statusFunc {
	return func(ctx context.Context, orderID string) (order.Status, error) { return st, err }
}

func awaitWithDeadline(t *testing.T, m *Manager, s *Session) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.Await(ctx, s)
}

func TestCallbackResolvesComplete(t *testing.T) {
	m := NewManager(staticStatus(order.StatusPending, nil), time.Hour, 120, time.Hour)
	s := m.Open("ADV-1-aaaa")

	if !m.Deliver(Callback{Type: CallbackType, OrderID: "ADV-1-aaaa", Status: "COMPLETED"}) {
		t.Fatal("callback for an open session must be delivered")
	}
	if err := awaitWithDeadline(t, m, s); err != nil {
		t.Fatalf("expected COMPLETE outcome, got %v", err)
	}
}

func TestCallbackResolvesFailed(t *testing.T) {
	m := NewManager(staticStatus(order.StatusPending, nil), time.Hour, 120, time.Hour)
	s := m.Open("ADV-1-bbbb")
	m.Deliver(Callback{Type: CallbackType, OrderID: "ADV-1-bbbb", Status: "FAILED"})

	err := awaitWithDeadline(t, m, s)
	var cErr *Error
	if !errors.As(err, &cErr) || cErr.Status != order.StatusFailed {
		t.Fatalf("expected failed outcome, got %v", err)
	}
	if cErr.Reason != "Payment failed" {
		t.Fatalf("unexpected reason %q", cErr.Reason)
	}
}

func TestNonTerminalCallbackKeepsWaiting(t *testing.T) {
	m := NewManager(staticStatus(order.StatusPending, nil), time.Hour, 120, time.Hour)
	s := m.Open("ADV-1-cccc")
	m.Deliver(Callback{Type: CallbackType, OrderID: "ADV-1-cccc", Status: "PROCESSING"})
	m.Deliver(Callback{Type: CallbackType, OrderID: "ADV-1-cccc", Status: "COMPLETED"})

	if err := awaitWithDeadline(t, m, s); err != nil {
		t.Fatalf("processing callback must not resolve the session, got %v", err)
	}
}

func TestPollResolvesComplete(t *testing.T) {
	m := NewManager(staticStatus(order.StatusComplete, nil), time.Millisecond, 120, time.Hour)
	s := m.Open("ADV-1-dddd")
	if err := awaitWithDeadline(t, m, s); err != nil {
		t.Fatalf("expected poll to resolve COMPLETE, got %v", err)
	}
}

func TestPollTimeoutAfterMaxIterations(t *testing.T) {
	var mu sync.Mutex
	polls := 0
	status := statusFunc(func(ctx context.Context, orderID string) (order.Status, error) {
		mu.Lock()
		polls++
		mu.Unlock()
		return order.StatusPending, nil
	})

	m := NewManager(status, time.Millisecond, 3, time.Hour)
	s := m.Open("ADV-1-eeee")

	err := awaitWithDeadline(t, m, s)
	var cErr *Error
	if !errors.As(err, &cErr) || cErr.Status != order.StatusTimeout {
		t.Fatalf("expected timeout outcome, got %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if polls != 3 {
		t.Fatalf("expected exactly 3 polls, got %d", polls)
	}
}

func TestTransientPollErrorsSwallowed(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	status := statusFunc(func(ctx context.Context, orderID string) (order.Status, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n <= 2 {
			return order.StatusPending, errors.New("payment status not found")
		}
		return order.StatusComplete, nil
	})

	m := NewManager(status, time.Millisecond, 120, time.Hour)
	s := m.Open("ADV-1-ffff")
	if err := awaitWithDeadline(t, m, s); err != nil {
		t.Fatalf("transient lookup errors must not resolve the session, got %v", err)
	}
}

func TestPaymentFailureErrorIsFatal(t *testing.T) {
	status := staticStatus(order.StatusPending, errors.New("Payment failed: card declined"))
	m := NewManager(status, time.Millisecond, 120, time.Hour)
	s := m.Open("ADV-1-gggg")

	err := awaitWithDeadline(t, m, s)
	var cErr *Error
	if !errors.As(err, &cErr) || cErr.Status != order.StatusFailed {
		t.Fatalf("expected failed outcome, got %v", err)
	}
}

func TestClosedWindowChecksStatusOnceBeforeCancelling(t *testing.T) {
	// Gateway already settled: the closed signal must not produce a false
	// cancel.
	m := NewManager(staticStatus(order.StatusComplete, nil), time.Hour, 120, time.Hour)
	s := m.Open("ADV-1-hhhh")
	if !m.NotifyClosed("ADV-1-hhhh") {
		t.Fatal("closed signal for an open session must be accepted")
	}
	if err := awaitWithDeadline(t, m, s); err != nil {
		t.Fatalf("settled payment must win over the closed signal, got %v", err)
	}
}

func TestClosedWindowCancelsWhenStillPending(t *testing.T) {
	m := NewManager(staticStatus(order.StatusPending, nil), time.Hour, 120, time.Hour)
	s := m.Open("ADV-1-iiii")
	m.NotifyClosed("ADV-1-iiii")

	err := awaitWithDeadline(t, m, s)
	var cErr *Error
	if !errors.As(err, &cErr) || cErr.Status != order.StatusCancelled {
		t.Fatalf("expected cancelled outcome, got %v", err)
	}
	if cErr.Reason != "Payment cancelled" {
		t.Fatalf("unexpected reason %q", cErr.Reason)
	}
}

func TestDoubleCloseIsIdempotent(t *testing.T) {
	m := NewManager(staticStatus(order.StatusPending, nil), time.Hour, 120, time.Hour)
	s := m.Open("ADV-1-jjjj")
	m.NotifyClosed("ADV-1-jjjj")
	m.NotifyClosed("ADV-1-jjjj")

	if err := awaitWithDeadline(t, m, s); err == nil {
		t.Fatal("expected cancelled outcome")
	}
}

func TestDeliverDropsUnmatched(t *testing.T) {
	m := NewManager(staticStatus(order.StatusPending, nil), time.Hour, 120, time.Hour)
	m.Open("ADV-1-kkkk")

	if m.Deliver(Callback{Type: "other", OrderID: "ADV-1-kkkk", Status: "COMPLETED"}) {
		t.Fatal("wrong callback type must be dropped")
	}
	if m.Deliver(Callback{Type: CallbackType, OrderID: "ADV-unknown", Status: "COMPLETED"}) {
		t.Fatal("unknown order id must be dropped")
	}
}

func TestLateSignalsAfterResolution(t *testing.T) {
	m := NewManager(staticStatus(order.StatusComplete, nil), time.Millisecond, 120, time.Hour)
	s := m.Open("ADV-1-llll")
	if err := awaitWithDeadline(t, m, s); err != nil {
		t.Fatalf("await: %v", err)
	}

	if m.Deliver(Callback{Type: CallbackType, OrderID: "ADV-1-llll", Status: "FAILED"}) {
		t.Fatal("late callback must be dropped")
	}
	if m.NotifyClosed("ADV-1-llll") {
		t.Fatal("late closed signal must be a no-op")
	}
}

func TestContextCancellation(t *testing.T) {
	m := NewManager(staticStatus(order.StatusPending, nil), time.Hour, 120, time.Hour)
	s := m.Open("ADV-1-mmmm")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := m.Await(ctx, s)
	var cErr *Error
	if !errors.As(err, &cErr) || cErr.Status != order.StatusCancelled {
		t.Fatalf("expected cancelled outcome on context cancellation, got %v", err)
	}
}

func TestContextDeadlineResolvesAsTimeout(t *testing.T) {
	m := NewManager(staticStatus(order.StatusPending, nil), time.Hour, 120, time.Hour)
	s := m.Open("ADV-1-nnnn")

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()

	err := m.Await(ctx, s)
	var cErr *Error
	if !errors.As(err, &cErr) || cErr.Status != order.StatusTimeout {
		t.Fatalf("expected timeout outcome on deadline expiry, got %v", err)
	}
}
