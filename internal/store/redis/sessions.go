// Package redisstore keeps wizard sessions in Redis. Sessions are
// transient by design: they expire with the TTL and are deleted on
// successful completion, so nothing survives a reload beyond the window the
// product allows.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"advtopup/internal/domain/wizard"
	"advtopup/internal/store/repositories"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	keyPrefix  = "wizard:"
	lockPrefix = "wizard:lock:"
)

// lockTTL bounds how long a crashed operation can wedge a session.
const lockTTL = 30 * time.Second

type SessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSessionStore(addr string, ttl time.Duration) *SessionStore {
	return &SessionStore{
		rdb: redis.NewClient(&redis.Options{Addr: addr}),
		ttl: ttl,
	}
}

// Ping verifies connectivity at boot.
func (s *SessionStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *SessionStore) Save(ctx context.Context, state *wizard.State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal wizard session: %w", err)
	}
	if err := s.rdb.Set(ctx, keyPrefix+state.ID, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save wizard session: %w", err)
	}
	return nil
}

func (s *SessionStore) Load(ctx context.Context, id string) (*wizard.State, error) {
	raw, err := s.rdb.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, repositories.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load wizard session: %w", err)
	}
	var state wizard.State
	if err := json.Unmarshal(raw, &state); err != nil {
		log.Error().Err(err).Str("session_id", id).Msg("corrupt wizard session")
		return nil, repositories.ErrNotFound
	}
	return &state, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, keyPrefix+id).Err()
}

// AcquireLock claims the session's mutation lock with a single SET NX, so
// concurrent operations on one session can never both pass a busy check.
func (s *SessionStore) AcquireLock(ctx context.Context, id string) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, lockPrefix+id, 1, lockTTL).Result()
	if err != nil {
		return false, fmt.Errorf("acquire wizard lock: %w", err)
	}
	return ok, nil
}

func (s *SessionStore) ReleaseLock(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, lockPrefix+id).Err()
}
