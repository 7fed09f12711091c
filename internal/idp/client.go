// Package idp talks to the Epico identity provider: it builds the
// browser login URL and exchanges refresh tokens at the API gateway.
package idp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"

	autherrors "github.com/mindbowser/pilot-auth/internal/errors"
)

// TokenPair is the result of a refresh token exchange.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Client calls the identity provider's HTTP endpoints.
type Client struct {
	httpClient *http.Client
	appURL     string
	tokenURL   string
}

// NewClient creates a provider client. The timeout bounds every token
// endpoint call; the gateway itself enforces none.
func NewClient(appURL, tokenURL string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		appURL:     appURL,
		tokenURL:   tokenURL,
	}
}

// LoginURL builds the authorize URL opened in the user's browser. The
// provider's login page redirects back to redirectURI with the issued
// tokens and echoes state for correlation.
func (c *Client) LoginURL(redirectURI, source, state string) string {
	params := url.Values{}
	params.Set("redirect_uri", redirectURI)
	params.Set("source", source)
	params.Set("state", state)

	return c.appURL + "/login?" + params.Encode()
}

// ExchangeRefreshToken trades a refresh token for a fresh token pair.
// A non-2xx response or a response missing either token is reported as
// ErrRefreshRejected; the caller treats that as fatal for the session.
func (c *Client) ExchangeRefreshToken(ctx context.Context, refreshToken string) (TokenPair, error) {
	payload, err := json.Marshal(map[string]string{"refreshToken": refreshToken})
	if err != nil {
		return TokenPair{}, fmt.Errorf("marshalling refresh request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, bytes.NewReader(payload))
	if err != nil {
		return TokenPair{}, fmt.Errorf("creating refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return TokenPair{}, fmt.Errorf("calling token endpoint: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return TokenPair{}, fmt.Errorf("reading token response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return TokenPair{}, fmt.Errorf("token endpoint returned %d: %s: %w",
			resp.StatusCode, string(body), autherrors.ErrRefreshRejected)
	}

	// The gateway nests the pair under "data".
	pair := TokenPair{
		AccessToken:  gjson.GetBytes(body, "data.accessToken").String(),
		RefreshToken: gjson.GetBytes(body, "data.refreshToken").String(),
	}

	if pair.AccessToken == "" || pair.RefreshToken == "" {
		return TokenPair{}, fmt.Errorf("token response missing tokens: %w", autherrors.ErrRefreshRejected)
	}

	return pair, nil
}
