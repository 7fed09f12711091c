// Package session owns the authenticated session for the broker: the
// login flow against the identity provider, the durable session record,
// and the proactive refresh schedule. At most one session exists at a
// time; a new login supersedes the old session atomically.
package session

import (
	"sort"
	"strings"
	"time"
)

// Account identifies the signed-in user as reported by the provider.
// Label is the display name, ID the stable identity (email).
type Account struct {
	Label string `json:"label"`
	ID    string `json:"id"`
}

// Session is the persisted credential record.
//
// ExpiresAt is an absolute unix-millisecond timestamp. The JSON field
// is named expiresInMs for compatibility with the extension's existing
// session files, which used that name for an absolute timestamp.
type Session struct {
	ID           string   `json:"id"`
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
	ExpiresAt    int64    `json:"expiresInMs"`
	Account      Account  `json:"account"`
	Scopes       []string `json:"scopes"`
}

// Expiry returns ExpiresAt as a time.Time.
func (s *Session) Expiry() time.Time {
	return time.UnixMilli(s.ExpiresAt)
}

// scopeKey canonicalizes a scope set into the dedup key for pending
// exchanges. Order does not matter; the empty set is the default scope.
func scopeKey(scopes []string) string {
	if len(scopes) == 0 {
		return ""
	}

	sorted := append([]string(nil), scopes...)
	sort.Strings(sorted)

	return strings.Join(sorted, " ")
}
