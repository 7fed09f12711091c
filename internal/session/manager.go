package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	autherrors "github.com/mindbowser/pilot-auth/internal/errors"
	"github.com/mindbowser/pilot-auth/internal/idp"
	"github.com/mindbowser/pilot-auth/internal/redirect"
	"github.com/mindbowser/pilot-auth/internal/secret"
)

//go:generate mockgen -source=manager.go -destination=mock_collaborators_test.go -package=session

// Provider is the identity-provider surface the manager needs.
// *idp.Client implements it.
type Provider interface {
	LoginURL(redirectURI, source, state string) string
	ExchangeRefreshToken(ctx context.Context, refreshToken string) (idp.TokenPair, error)
}

// BrowserLauncher opens the login page in the user's browser.
type BrowserLauncher interface {
	Open(ctx context.Context, url string) error
}

// RedirectSource delivers login callbacks matched by correlation state.
type RedirectSource interface {
	Subscribe(state string) <-chan redirect.Callback
	Unsubscribe(state string)
}

// defaultLoginTimeout bounds how long a login waits for the redirect.
const defaultLoginTimeout = 15 * time.Minute

// Config wires a Manager's collaborators.
type Config struct {
	Secrets   secret.Store
	Provider  Provider
	Browser   BrowserLauncher
	Redirects RedirectSource

	// RedirectURI and Source are embedded in the login URL.
	RedirectURI string
	Source      string

	// LoginTimeout defaults to 15 minutes when zero.
	LoginTimeout time.Duration

	Logger *slog.Logger
}

// Manager orchestrates the session lifecycle and is the sole mutator
// of the persisted session record.
type Manager struct {
	store     sessionStore
	provider  Provider
	browser   BrowserLauncher
	redirects RedirectSource

	redirectURI  string
	source       string
	loginTimeout time.Duration

	pending   *pendingRegistry
	scheduler *refreshScheduler
	events    *emitter
	logger    *slog.Logger

	// refreshGroup collapses concurrent refresh triggers (timer fire
	// racing an explicit RefreshSessions call) into one exchange.
	refreshGroup singleflight.Group

	// mu serializes all durable mutations: login commit, refresh
	// commit/drop, and RemoveSession.
	mu sync.Mutex

	// Injection points for tests.
	now    func() time.Time
	window func(accessToken string) time.Duration
}

// NewManager creates a Manager. The refresh scheduler starts disarmed;
// GetSession re-arms it after a process restart.
func NewManager(cfg Config) *Manager {
	if cfg.LoginTimeout <= 0 {
		cfg.LoginTimeout = defaultLoginTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	m := &Manager{
		store:        sessionStore{secrets: cfg.Secrets},
		provider:     cfg.Provider,
		browser:      cfg.Browser,
		redirects:    cfg.Redirects,
		redirectURI:  cfg.RedirectURI,
		source:       cfg.Source,
		loginTimeout: cfg.LoginTimeout,
		pending:      newPendingRegistry(),
		events:       newEmitter(cfg.Logger),
		logger:       cfg.Logger,
		now:          time.Now,
		window:       idp.TokenWindow,
	}

	m.scheduler = newRefreshScheduler(m.scheduledRefresh)

	return m
}

// OnSessionsChanged subscribes to session change batches. The returned
// cancel function closes the channel.
func (m *Manager) OnSessionsChanged() (<-chan ChangeEvent, func()) {
	return m.events.subscribe()
}

// Login drives the browser login flow for the given scopes and returns
// the committed session. Concurrent calls with the same scope set share
// one browser launch and one redirect listener and resolve with the
// same outcome. Cancelling ctx fails the attempt with ErrUserCancelled.
func (m *Manager) Login(ctx context.Context, scopes []string) (*Session, error) {
	ex, isNew := m.pending.acquire(scopeKey(scopes))
	defer m.pending.release(ex)

	if isNew {
		if err := m.startExchange(ctx, ex); err != nil {
			ex.resolve(credentials{}, err)
		}
	}

	creds, err := ex.wait(ctx, m.loginTimeout)
	if err != nil {
		// First failure wins and unblocks every other waiter.
		ex.resolve(credentials{}, err)
		return nil, fmt.Errorf("login: %w", err)
	}

	sess, err := ex.commit(func() (*Session, error) {
		return m.commitLogin(creds, scopes)
	})
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	return sess, nil
}

// startExchange launches the browser flow for a freshly acquired
// exchange: correlation state, redirect listener, authorize URL.
func (m *Manager) startExchange(ctx context.Context, ex *pendingExchange) error {
	ex.state = uuid.NewString()

	ch := m.redirects.Subscribe(ex.state)
	go m.watchCallback(ex, ch)

	loginURL := m.provider.LoginURL(m.redirectURI, m.source, ex.state)

	m.logger.Info("opening login page", slog.String("scopes", ex.scopeKey))

	if err := m.browser.Open(ctx, loginURL); err != nil {
		return fmt.Errorf("opening login page: %w", err)
	}

	return nil
}

// watchCallback resolves the exchange from its matching redirect. It
// exits, deregistering the listener, as soon as the exchange resolves
// by any path, so a late redirect after cancellation is ignored.
func (m *Manager) watchCallback(ex *pendingExchange, ch <-chan redirect.Callback) {
	defer m.redirects.Unsubscribe(ex.state)

	select {
	case cb := <-ch:
		ex.resolve(credentialsFromCallback(cb))
	case <-ex.done:
	}
}

// credentialsFromCallback extracts the token and account fields from a
// redirect. Every field is required.
func credentialsFromCallback(cb redirect.Callback) (credentials, error) {
	creds := credentials{
		accessToken:  cb.Params.Get("accessToken"),
		refreshToken: cb.Params.Get("refreshToken"),
		name:         cb.Params.Get("name"),
		email:        cb.Params.Get("email"),
	}

	for field, value := range map[string]string{
		"accessToken":  creds.accessToken,
		"refreshToken": creds.refreshToken,
		"name":         creds.name,
		"email":        creds.email,
	} {
		if value == "" {
			return credentials{}, fmt.Errorf("%s: %w", field, autherrors.ErrMissingCredentialField)
		}
	}

	return creds, nil
}

// commitLogin persists a new session from successful login credentials,
// superseding any prior session, and arms the refresh schedule.
func (m *Manager) commitLogin(creds credentials, scopes []string) (*Session, error) {
	sess := &Session{
		ID:           uuid.NewString(),
		AccessToken:  creds.accessToken,
		RefreshToken: creds.refreshToken,
		ExpiresAt:    m.now().Add(m.window(creds.accessToken)).UnixMilli(),
		Account:      Account{Label: creds.name, ID: creds.email},
		Scopes:       append([]string(nil), scopes...),
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.save(sess); err != nil {
		return nil, err
	}

	m.events.emit(ChangeEvent{Added: []Session{*sess}})
	m.scheduler.arm(sess.Expiry())

	m.logger.Info("signed in", slog.String("account", sess.Account.ID))

	return sess, nil
}

// GetSession returns the persisted session, or nil when none exists.
// Finding one re-arms the refresh schedule so a restarted process
// resumes the refresh cadence. A corrupt record reads as no session.
func (m *Manager) GetSession() (*Session, error) {
	sess, err := m.store.load()
	if err != nil {
		if errors.Is(err, autherrors.ErrStorageCorrupt) {
			m.logger.Warn("ignoring corrupt session record", slog.Any("error", err))
			return nil, nil
		}
		return nil, err
	}

	if sess == nil {
		return nil, nil
	}

	m.scheduler.arm(sess.Expiry())

	return sess, nil
}

// RemoveSession deletes the session with the given id, disarms the
// refresh schedule, and emits a removed event. Unknown ids are a no-op.
func (m *Manager) RemoveSession(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, err := m.store.load()
	if err != nil {
		if errors.Is(err, autherrors.ErrStorageCorrupt) {
			// Nothing valid to emit; just drop the record.
			m.scheduler.disarm()
			return m.store.clear()
		}
		return err
	}

	if sess == nil || sess.ID != id {
		return nil
	}

	if err := m.store.clear(); err != nil {
		return err
	}

	m.scheduler.disarm()
	m.events.emit(ChangeEvent{Removed: []Session{*sess}})

	m.logger.Info("signed out", slog.String("account", sess.Account.ID))

	return nil
}

// RefreshSessions exchanges the current refresh token for a new token
// pair. On success the session is updated in place (same ID, same
// Account) and the schedule re-armed; on rejection the session is
// dropped and a removed event emitted — there is no retry, a rejected
// refresh token is almost never transient. Concurrent calls collapse
// into one exchange.
func (m *Manager) RefreshSessions(ctx context.Context) error {
	_, err, _ := m.refreshGroup.Do("refresh", func() (any, error) {
		return nil, m.refreshOnce(ctx)
	})

	return err
}

func (m *Manager) refreshOnce(ctx context.Context) error {
	sess, err := m.store.load()
	if err != nil {
		if errors.Is(err, autherrors.ErrStorageCorrupt) {
			return fmt.Errorf("refresh: %w", autherrors.ErrNoSession)
		}
		return err
	}
	if sess == nil {
		return fmt.Errorf("refresh: %w", autherrors.ErrNoSession)
	}

	pair, exchangeErr := m.provider.ExchangeRefreshToken(ctx, sess.RefreshToken)

	m.mu.Lock()
	defer m.mu.Unlock()

	// The session may have been removed or superseded while the
	// exchange was in flight; a stale result must not clobber it.
	current, err := m.store.load()
	if err != nil || current == nil || current.ID != sess.ID {
		return fmt.Errorf("refresh: %w", autherrors.ErrNoSession)
	}

	if exchangeErr != nil {
		if clearErr := m.store.clear(); clearErr != nil {
			return clearErr
		}

		m.scheduler.disarm()
		m.events.emit(ChangeEvent{Removed: []Session{*current}})

		m.logger.Warn("refresh rejected; session dropped",
			slog.String("account", current.Account.ID),
			slog.Any("error", exchangeErr),
		)

		return fmt.Errorf("refreshing session: %w", exchangeErr)
	}

	current.AccessToken = pair.AccessToken
	current.RefreshToken = pair.RefreshToken
	current.ExpiresAt = m.now().Add(m.window(pair.AccessToken)).UnixMilli()

	if err := m.store.save(current); err != nil {
		return err
	}

	m.events.emit(ChangeEvent{Changed: []Session{*current}})
	m.scheduler.arm(current.Expiry())

	m.logger.Debug("session refreshed", slog.String("account", current.Account.ID))

	return nil
}

// scheduledRefresh is the timer callback. No caller is waiting, so
// failures are only observable through the removed event.
func (m *Manager) scheduledRefresh() {
	if err := m.RefreshSessions(context.Background()); err != nil {
		if !errors.Is(err, autherrors.ErrNoSession) {
			m.logger.Warn("scheduled refresh failed", slog.Any("error", err))
		}
	}
}

// Close disarms the refresh schedule. In-flight logins are unaffected;
// their waiters still time out or cancel through their own contexts.
func (m *Manager) Close() {
	m.scheduler.disarm()
}
