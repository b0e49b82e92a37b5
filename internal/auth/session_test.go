package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRefreshSkippedWithinGracePeriod(t *testing.T) {
	calls := 0
	m := NewManager(Session{
		AccessToken:  "fresh",
		RefreshToken: "r1",
		CreatedAt:    time.Now(),
	}, func(ctx context.Context, refreshToken string) (Session, error) {
		calls++
		return Session{AccessToken: "new"}, nil
	})

	if err := m.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if calls != 0 {
		t.Fatal("refresh inside the grace period must be a no-op")
	}
	if m.Token() != "fresh" {
		t.Fatalf("token must be unchanged, got %q", m.Token())
	}
}

func TestRefreshSwapsStaleSession(t *testing.T) {
	var gotRefreshToken string
	m := NewManager(Session{
		AccessToken:  "stale",
		RefreshToken: "r1",
		CreatedAt:    time.Now().Add(-10 * time.Minute),
	}, func(ctx context.Context, refreshToken string) (Session, error) {
		gotRefreshToken = refreshToken
		return Session{AccessToken: "new", RefreshToken: "r2"}, nil
	})

	if err := m.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if gotRefreshToken != "r1" {
		t.Fatalf("refresh must use the current refresh token, got %q", gotRefreshToken)
	}
	if m.Token() != "new" {
		t.Fatalf("token must be swapped, got %q", m.Token())
	}
}

func TestRefreshPropagatesFailure(t *testing.T) {
	wantErr := errors.New("upstream down")
	m := NewManager(Session{
		AccessToken: "stale",
		CreatedAt:   time.Now().Add(-10 * time.Minute),
	}, func(ctx context.Context, refreshToken string) (Session, error) {
		return Session{}, wantErr
	})

	if err := m.Refresh(context.Background()); !errors.Is(err, wantErr) {
		t.Fatalf("expected refresh failure, got %v", err)
	}
	if m.Token() != "stale" {
		t.Fatal("failed refresh must keep the old session")
	}
}

func TestIsWithinGracePeriod(t *testing.T) {
	now := time.Now()
	s := Session{CreatedAt: now}
	if !s.IsWithinGracePeriod(now.Add(GracePeriod - time.Second)) {
		t.Fatal("expected within grace period")
	}
	if s.IsWithinGracePeriod(now.Add(GracePeriod + time.Second)) {
		t.Fatal("expected outside grace period")
	}
}
