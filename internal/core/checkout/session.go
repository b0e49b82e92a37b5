// Package checkout determines the single terminal outcome of a hosted
// payment attempt. Two asynchronous sources race to resolve it: the payment
// callback delivered by the gateway's redirect page, and a fixed-interval
// polling loop against the gateway's status endpoint. Whichever source
// observes a terminal status first wins; the session is then closed
// idempotently and detached so nothing can act on the outcome twice.
package checkout

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"advtopup/internal/domain/order"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
)

// CallbackType is the discriminator the redirect page sends.
const CallbackType = "payment-callback"

// Callback is the out-of-band payment notification posted by the checkout
// redirect page.
type Callback struct {
	Type    string `json:"type"`
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

// StatusChecker looks up the gateway's payment status for an order id.
type StatusChecker interface {
	Status(ctx context.Context, orderID string) (order.Status, error)
}

// Error is a terminal non-COMPLETE outcome with its user-facing reason.
type Error struct {
	Status order.Status
	Reason string
}

func (e *Error) Error() string { return e.Reason }

// Session tracks one in-flight checkout attempt.
type Session struct {
	orderID   string
	startedAt time.Time

	callback chan Callback
	closed   chan struct{}

	closeOnce  sync.Once
	finishOnce sync.Once
	done       chan struct{}
}

// OrderID returns the session's order id.
func (s *Session) OrderID() string { return s.orderID }

// Manager owns the active checkout sessions. The webhook handler feeds
// callbacks in through Deliver, the client reports the checkout window
// being closed through NotifyClosed, and Await resolves the outcome.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	status       StatusChecker
	pollInterval time.Duration
	maxPolls     int
	sessionTTL   time.Duration
	now          func() time.Time
}

func NewManager(status StatusChecker, pollInterval time.Duration, maxPolls int, sessionTTL time.Duration) *Manager {
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	if maxPolls <= 0 {
		maxPolls = 120
	}
	return &Manager{
		sessions:     make(map[string]*Session),
		status:       status,
		pollInterval: pollInterval,
		maxPolls:     maxPolls,
		sessionTTL:   sessionTTL,
		now:          time.Now,
	}
}

// Open registers a fresh session for an order id. At most one session is
// active per submit; a new submit always allocates a new order id, so ids
// never collide here.
func (m *Manager) Open(orderID string) *Session {
	s := &Session{
		orderID:   orderID,
		startedAt: m.now(),
		callback:  make(chan Callback, 4),
		closed:    make(chan struct{}),
		done:      make(chan struct{}),
	}
	m.mu.Lock()
	m.sessions[orderID] = s
	m.mu.Unlock()
	return s
}

// Deliver routes a payment callback to its session. Callbacks with the
// wrong type, an unknown order id, or arriving after the session resolved
// are dropped.
func (m *Manager) Deliver(cb Callback) bool {
	if cb.Type != CallbackType {
		return false
	}
	m.mu.Lock()
	s, ok := m.sessions[cb.OrderID]
	m.mu.Unlock()
	if !ok {
		return false
	}
	select {
	case s.callback <- cb:
		return true
	case <-s.done:
		return false
	default:
		return false
	}
}

// NotifyClosed records that the customer closed the checkout window. The
// session performs one more status check before treating that as a
// cancellation.
func (m *Manager) NotifyClosed(orderID string) bool {
	m.mu.Lock()
	s, ok := m.sessions[orderID]
	m.mu.Unlock()
	if !ok {
		return false
	}
	s.closeOnce.Do(func() { close(s.closed) })
	return true
}

// Await blocks until the session reaches a terminal outcome. It returns nil
// only for COMPLETE; every other terminal state comes back as *Error. On
// any exit the session is detached so late callbacks and double closes are
// no-ops.
func (m *Manager) Await(ctx context.Context, s *Session) error {
	defer m.finish(s)

	ticker := backoff.NewTicker(backoff.NewConstantBackOff(m.pollInterval))
	defer ticker.Stop()

	polls := 0
	for {
		select {
		case <-ctx.Done():
			// A deadline means the resolution window ran out; anything
			// else is a deliberate cancellation (e.g. shutdown).
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return m.terminal(s, order.StatusTimeout)
			}
			return m.terminal(s, order.StatusCancelled)

		case cb := <-s.callback:
			st := order.ParseStatus(cb.Status)
			log.Debug().
				Str("order_id", s.orderID).
				Str("status", string(st)).
				Msg("checkout: payment callback received")
			if st.Terminal() {
				return m.terminal(s, st)
			}
			// Non-terminal callback: keep waiting.

		case <-s.closed:
			// The window-closed check runs before the status re-check;
			// the single extra lookup avoids a false cancel when the
			// gateway already settled.
			st, err := m.status.Status(ctx, s.orderID)
			if err == nil && st.Terminal() {
				return m.terminal(s, st)
			}
			log.Info().Str("order_id", s.orderID).Msg("checkout: window closed while pending")
			return m.terminal(s, order.StatusCancelled)

		case <-ticker.C:
			polls++
			st, err := m.status.Status(ctx, s.orderID)
			switch {
			case err != nil:
				if isPaymentFailure(err) {
					return m.terminal(s, order.StatusFailed)
				}
				// Transient (e.g. status record not created yet):
				// counts as a normal iteration.
			case st == order.StatusComplete:
				return m.terminal(s, order.StatusComplete)
			case st == order.StatusFailed, st == order.StatusCancelled:
				return m.terminal(s, st)
			}
			if polls >= m.maxPolls {
				return m.terminal(s, order.StatusTimeout)
			}
		}
	}
}

// terminal records the single outcome for a session. Await's select loop is
// the only writer, so whichever source fires first wins and the loop exits
// before the other can act.
func (m *Manager) terminal(s *Session, st order.Status) error {
	log.Info().
		Str("order_id", s.orderID).
		Str("status", string(st)).
		Msg("checkout: session resolved")
	if st == order.StatusComplete {
		return nil
	}
	return &Error{Status: st, Reason: reasonFor(st)}
}

// finish detaches the session: the callback listener is removed and late
// signals are dropped. Safe to call more than once.
func (m *Manager) finish(s *Session) {
	m.mu.Lock()
	delete(m.sessions, s.orderID)
	m.mu.Unlock()
	s.finishOnce.Do(func() { close(s.done) })
}

// Run sweeps sessions whose Await goroutine never resolved them (for
// example after a panic upstream) once they outlive the session TTL.
func (m *Manager) Run(ctx context.Context) {
	if m.sessionTTL <= 0 {
		m.sessionTTL = 15 * time.Minute
	}
	log.Info().Msg("checkout sweeper: started")
	t := time.NewTicker(time.Minute)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("checkout sweeper: stopping")
			return
		case <-t.C:
			m.sweep()
		}
	}
}

func (m *Manager) sweep() {
	cutoff := m.now().Add(-m.sessionTTL)
	m.mu.Lock()
	var stale []*Session
	for _, s := range m.sessions {
		if s.startedAt.Before(cutoff) {
			stale = append(stale, s)
		}
	}
	m.mu.Unlock()

	for _, s := range stale {
		log.Warn().Str("order_id", s.orderID).Msg("checkout sweeper: expiring stale session")
		m.finish(s)
	}
}

func reasonFor(st order.Status) string {
	switch st {
	case order.StatusFailed:
		return "Payment failed"
	case order.StatusCancelled:
		return "Payment cancelled"
	case order.StatusTimeout:
		return "Payment timeout: no confirmation was received"
	default:
		return "Payment did not complete"
	}
}

// isPaymentFailure distinguishes poll errors that describe an actual
// payment failure from transient lookup errors.
func isPaymentFailure(err error) bool {
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "payment") {
		return false
	}
	return strings.Contains(msg, "fail") || strings.Contains(msg, "declin")
}
