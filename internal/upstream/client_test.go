package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// recordingTokens swaps in a fresh token on Refresh and counts the calls.
type recordingTokens struct {
	mu        sync.Mutex
	token     string
	next      string
	refreshes int
}

func (s *recordingTokens) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *recordingTokens) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshes++
	s.token = s.next
	return nil
}

func (s *recordingTokens) refreshCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshes
}

func TestStaleTokenRefreshedAndRetriedOnce(t *testing.T) {
	var mu sync.Mutex
	var requests int
	var retryBody []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests++
		mu.Unlock()
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"message":"token expired"}`)
			return
		}
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		retryBody = body
		mu.Unlock()
		io.WriteString(w, `{"ok":true}`)
	}))
	defer srv.Close()

	tokens := &recordingTokens{token: "stale", next: "fresh"}
	c := New(srv.URL, tokens, 5)

	var out struct {
		OK bool `json:"ok"`
	}
	if err := c.PostJSON(context.Background(), "/topups", map[string]string{"orderId": "ADV-1"}, &out); err != nil {
		t.Fatalf("post: %v", err)
	}
	if !out.OK {
		t.Fatal("retry response was not decoded")
	}
	if got := tokens.refreshCount(); got != 1 {
		t.Fatalf("expected exactly one token refresh, got %d", got)
	}
	mu.Lock()
	defer mu.Unlock()
	if requests != 2 {
		t.Fatalf("expected the original request plus one retry, got %d requests", requests)
	}
	var payload map[string]string
	if err := json.Unmarshal(retryBody, &payload); err != nil || payload["orderId"] != "ADV-1" {
		t.Fatalf("retry must resend the request body, got %q", retryBody)
	}
}

func TestPersistentUnauthorizedSurfacesError(t *testing.T) {
	var mu sync.Mutex
	var requests int

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests++
		mu.Unlock()
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"message":"account disabled"}`)
	}))
	defer srv.Close()

	tokens := &recordingTokens{token: "stale", next: "still-bad"}
	c := New(srv.URL, tokens, 5)

	err := c.GetJSON(context.Background(), "/operators/auto-detect", nil)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 to surface, got %d", apiErr.StatusCode)
	}
	if apiErr.Message != "account disabled" {
		t.Fatalf("unexpected message %q", apiErr.Message)
	}
	if got := tokens.refreshCount(); got != 1 {
		t.Fatalf("a persisting 401 must refresh exactly once, got %d", got)
	}
	mu.Lock()
	defer mu.Unlock()
	if requests != 2 {
		t.Fatalf("a persisting 401 must retry exactly once, got %d requests", requests)
	}
}
