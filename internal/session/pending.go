package session

import (
	"context"
	"sync"
	"time"

	autherrors "github.com/mindbowser/pilot-auth/internal/errors"
)

// credentials is the payload a successful login callback produces.
type credentials struct {
	accessToken  string
	refreshToken string
	name         string
	email        string
}

// pendingExchange correlates one in-flight login attempt. All
// concurrent Login calls sharing a scope key wait on the same exchange;
// the first resolution, by whichever path, is the outcome for everyone.
type pendingExchange struct {
	scopeKey string

	// state is the correlation token embedded in the authorize URL and
	// expected back in the redirect.
	state string

	// done is closed exactly once when the exchange resolves; creds
	// and err are immutable afterwards.
	done  chan struct{}
	once  sync.Once
	creds credentials
	err   error

	// commitOnce guards session creation so that concurrent winners
	// commit a single session.
	commitOnce sync.Once
	committed  *Session
	commitErr  error
}

// resolve records the outcome and unblocks every waiter. Only the
// first call has any effect.
func (p *pendingExchange) resolve(creds credentials, err error) {
	p.once.Do(func() {
		p.creds = creds
		p.err = err
		close(p.done)
	})
}

// wait blocks until the exchange resolves, ctx is cancelled, or the
// timeout elapses, returning the corresponding outcome.
func (p *pendingExchange) wait(ctx context.Context, timeout time.Duration) (credentials, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-p.done:
		return p.creds, p.err
	case <-ctx.Done():
		return credentials{}, autherrors.ErrUserCancelled
	case <-timer.C:
		return credentials{}, autherrors.ErrLoginTimedOut
	}
}

// commit runs fn at most once per exchange and returns its result to
// every caller.
func (p *pendingExchange) commit(fn func() (*Session, error)) (*Session, error) {
	p.commitOnce.Do(func() {
		p.committed, p.commitErr = fn()
	})

	return p.committed, p.commitErr
}

// pendingRegistry holds at most one exchange per scope key.
type pendingRegistry struct {
	mu        sync.Mutex
	exchanges map[string]*pendingExchange
}

func newPendingRegistry() *pendingRegistry {
	return &pendingRegistry{exchanges: make(map[string]*pendingExchange)}
}

// acquire returns the exchange for key, creating one when absent. The
// second return reports whether the caller created it and therefore
// owns the browser launch and redirect listener.
func (r *pendingRegistry) acquire(key string) (*pendingExchange, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ex, ok := r.exchanges[key]; ok {
		return ex, false
	}

	ex := &pendingExchange{
		scopeKey: key,
		done:     make(chan struct{}),
	}
	r.exchanges[key] = ex

	return ex, true
}

// release removes ex from the registry. Removal is pointer-matched so
// a caller releasing a superseded exchange cannot evict its successor;
// every acquire must be paired with exactly one deferred release.
func (r *pendingRegistry) release(ex *pendingExchange) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.exchanges[ex.scopeKey]; ok && current == ex {
		delete(r.exchanges, ex.scopeKey)
	}
}
