package idp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	autherrors "github.com/mindbowser/pilot-auth/internal/errors"
)

func TestLoginURL(t *testing.T) {
	c := NewClient("https://app.example.com", "https://gw.example.com/token", time.Second)

	raw := c.LoginURL("mindbowser.pilot-auth", "vscode", "state-123")

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/login", u.Path)
	assert.Equal(t, "mindbowser.pilot-auth", u.Query().Get("redirect_uri"))
	assert.Equal(t, "vscode", u.Query().Get("source"))
	assert.Equal(t, "state-123", u.Query().Get("state"))
}

func TestExchangeRefreshToken_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "R1", body["refreshToken"])

		w.Write([]byte(`{"data":{"accessToken":"A2","refreshToken":"R2"}}`))
	}))
	defer srv.Close()

	c := NewClient("https://app.example.com", srv.URL, 5*time.Second)

	pair, err := c.ExchangeRefreshToken(context.Background(), "R1")
	require.NoError(t, err)
	assert.Equal(t, "A2", pair.AccessToken)
	assert.Equal(t, "R2", pair.RefreshToken)
}

func TestExchangeRefreshToken_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"revoked"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient("https://app.example.com", srv.URL, 5*time.Second)

	_, err := c.ExchangeRefreshToken(context.Background(), "R1")
	require.Error(t, err)
	assert.ErrorIs(t, err, autherrors.ErrRefreshRejected)
	assert.Contains(t, err.Error(), "401")
}

func TestExchangeRefreshToken_MissingTokensInBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"accessToken":"A2"}}`))
	}))
	defer srv.Close()

	c := NewClient("https://app.example.com", srv.URL, 5*time.Second)

	_, err := c.ExchangeRefreshToken(context.Background(), "R1")
	assert.ErrorIs(t, err, autherrors.ErrRefreshRejected)
}

func TestExchangeRefreshToken_NetworkError(t *testing.T) {
	// Point at a closed server.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewClient("https://app.example.com", srv.URL, time.Second)

	_, err := c.ExchangeRefreshToken(context.Background(), "R1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, autherrors.ErrRefreshRejected,
		"transport errors are not refresh rejections")
}
