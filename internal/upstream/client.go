package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// TokenSource supplies the bearer token for upstream calls and performs a
// refresh when the client sees a 401.
type TokenSource interface {
	Token() string
	Refresh(ctx context.Context) error
}

// Client is the JSON REST client for the remote fintech backend. Every call
// carries a bearer token; a 401 triggers exactly one refresh-and-retry so a
// stale token never surfaces as a fatal error mid-flow.
type Client struct {
	http    *http.Client
	baseURL string
	tokens  TokenSource
}

func New(baseURL string, tokens TokenSource, timeoutSec int) *Client {
	if timeoutSec <= 0 {
		timeoutSec = 20
	}
	return &Client{
		http:    &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
		baseURL: baseURL,
		tokens:  tokens,
	}
}

// GetJSON performs a GET and decodes the 2xx body into out (out may be nil).
func (c *Client) GetJSON(ctx context.Context, endpoint string, out any) error {
	return c.do(ctx, http.MethodGet, endpoint, nil, out)
}

// PostJSON performs a POST with a JSON payload and decodes the 2xx body
// into out (out may be nil).
func (c *Client) PostJSON(ctx context.Context, endpoint string, payload, out any) error {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
	}
	return c.do(ctx, http.MethodPost, endpoint, body, out)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte, out any) error {
	resp, err := c.roundTrip(ctx, method, endpoint, body)
	if err != nil {
		return err
	}

	// One-shot token refresh on 401, then a single retry.
	if resp.StatusCode == http.StatusUnauthorized {
		_ = resp.Body.Close()
		if err := c.tokens.Refresh(ctx); err != nil {
			return fmt.Errorf("refresh token: %w", err)
		}
		resp, err = c.roundTrip(ctx, method, endpoint, body)
		if err != nil {
			return err
		}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := newAPIError(resp.StatusCode, raw)
		log.Debug().
			Str("method", method).
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Str("message", apiErr.Message).
			Msg("upstream request failed")
		return apiErr
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, method, endpoint string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.tokens.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream request: %w", err)
	}
	return resp, nil
}
