package session

import (
	"encoding/json"
	"fmt"

	autherrors "github.com/mindbowser/pilot-auth/internal/errors"
	"github.com/mindbowser/pilot-auth/internal/secret"
)

// sessionsKey is the secret store key holding the session record.
const sessionsKey = "pilot-auth.sessions"

// sessionStore persists the single session record through a
// secret.Store. The secret store is the source of truth; callers
// re-read rather than caching.
type sessionStore struct {
	secrets secret.Store
}

// load returns the persisted session, or nil when none exists. A
// record that fails to parse is reported as ErrStorageCorrupt; callers
// treat that as "no session" rather than a crash.
func (s *sessionStore) load() (*Session, error) {
	data, ok, err := s.secrets.Get(sessionsKey)
	if err != nil {
		return nil, fmt.Errorf("reading session record: %w", err)
	}
	if !ok {
		return nil, nil
	}

	var sess Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return nil, fmt.Errorf("parsing session record: %w: %w", autherrors.ErrStorageCorrupt, err)
	}

	if sess.ID == "" {
		return nil, fmt.Errorf("session record has no id: %w", autherrors.ErrStorageCorrupt)
	}

	return &sess, nil
}

// save persists sess, overwriting any prior record.
func (s *sessionStore) save(sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshalling session record: %w", err)
	}

	if err := s.secrets.Set(sessionsKey, string(data)); err != nil {
		return fmt.Errorf("writing session record: %w", err)
	}

	return nil
}

// clear removes the session record. Clearing an absent record is a no-op.
func (s *sessionStore) clear() error {
	if err := s.secrets.Delete(sessionsKey); err != nil {
		return fmt.Errorf("deleting session record: %w", err)
	}

	return nil
}
