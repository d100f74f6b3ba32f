package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// defaultTokenURL is the Dropbox OAuth2 token-exchange endpoint.
const defaultTokenURL = "https://api.dropboxapi.com/oauth2/token"

// TokenSource exchanges a long-lived refresh token for short-lived
// access tokens using the app key/secret as HTTP basic credentials.
type TokenSource struct {
	AppKey       string
	AppSecret    string
	RefreshToken string

	// TokenURL overrides the token endpoint, used by tests.
	TokenURL string

	HTTPClient *http.Client
}

// AccessToken fetches a fresh short-lived access token.
func (t *TokenSource) AccessToken(ctx context.Context) (string, error) {
	endpoint := t.TokenURL
	if endpoint == "" {
		endpoint = defaultTokenURL
	}
	client := t.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", t.RefreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to build token request: %w", err)
	}
	req.SetBasicAuth(t.AppKey, t.AppSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("token exchange failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token exchange failed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("token exchange returned an empty access token")
	}
	return payload.AccessToken, nil
}
