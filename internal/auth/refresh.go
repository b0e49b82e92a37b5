package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// NewHTTPRefresher returns a RefreshFunc that exchanges the refresh token at
// the backend's refresh endpoint. It deliberately uses its own bare HTTP
// client: the refresher must not route through the bearer-authenticated
// client it exists to repair.
func NewHTTPRefresher(baseURL string, timeout time.Duration) RefreshFunc {
	client := &http.Client{Timeout: timeout}

	return func(ctx context.Context, refreshToken string) (Session, error) {
		body, _ := json.Marshal(map[string]string{"refreshToken": refreshToken})
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/auth/refresh", bytes.NewReader(body))
		if err != nil {
			return Session{}, fmt.Errorf("create refresh request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			return Session{}, fmt.Errorf("refresh request: %w", err)
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return Session{}, fmt.Errorf("read refresh response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return Session{}, fmt.Errorf("refresh failed: %s", resp.Status)
		}

		var out struct {
			AccessToken  string `json:"accessToken"`
			RefreshToken string `json:"refreshToken"`
		}
		if err := json.Unmarshal(raw, &out); err != nil {
			return Session{}, fmt.Errorf("decode refresh response: %w", err)
		}
		if out.AccessToken == "" {
			return Session{}, fmt.Errorf("refresh response missing access token")
		}

		next := Session{
			AccessToken:  out.AccessToken,
			RefreshToken: out.RefreshToken,
			CreatedAt:    time.Now(),
		}
		if next.RefreshToken == "" {
			next.RefreshToken = refreshToken
		}
		return next, nil
	}
}
