package auth

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// GracePeriod is the window after login during which the access token is
// known fresh: a refresh inside it is a no-op, so a 401 that close to login
// is treated as real rather than as token staleness.
const GracePeriod = 2 * time.Minute

// Session is the upstream API credential pair with its creation time.
// It is an explicit value passed to the API client, never ambient state.
type Session struct {
	AccessToken  string
	RefreshToken string
	CreatedAt    time.Time
}

// IsWithinGracePeriod reports whether the session was created recently
// enough that its access token cannot yet be stale.
func (s Session) IsWithinGracePeriod(now time.Time) bool {
	return now.Sub(s.CreatedAt) < GracePeriod
}

// RefreshFunc exchanges a refresh token for a new session.
type RefreshFunc func(ctx context.Context, refreshToken string) (Session, error)

// Manager holds the current session and performs one-shot refreshes on
// behalf of the API client.
type Manager struct {
	mu      sync.RWMutex
	current Session
	refresh RefreshFunc
	now     func() time.Time
}

func NewManager(initial Session, refresh RefreshFunc) *Manager {
	return &Manager{current: initial, refresh: refresh, now: time.Now}
}

// Token returns the current access token.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.AccessToken
}

// Refresh swaps the session for a fresh one. Within the grace period it is
// a no-op: the caller's retry will then surface the original 401.
func (m *Manager) Refresh(ctx context.Context) error {
	m.mu.Lock()
	cur := m.current
	m.mu.Unlock()

	if cur.IsWithinGracePeriod(m.now()) {
		log.Debug().Msg("auth: token within grace period, skipping refresh")
		return nil
	}

	next, err := m.refresh(ctx, cur.RefreshToken)
	if err != nil {
		return err
	}
	if next.CreatedAt.IsZero() {
		next.CreatedAt = m.now()
	}

	m.mu.Lock()
	m.current = next
	m.mu.Unlock()

	log.Info().Msg("auth: upstream access token refreshed")
	return nil
}
