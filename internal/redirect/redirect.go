// Package redirect delivers identity-provider login callbacks to the
// session manager. A callback is a set of query parameters carrying the
// issued tokens plus the correlation state from the original authorize
// URL. Sources route each callback to the single listener registered
// for its state; callbacks with an unknown state are dropped.
package redirect

import (
	"log/slog"
	"net/url"
	"sync"
)

// StateParam is the query parameter carrying the correlation state.
const StateParam = "state"

// Callback is one inbound login redirect.
type Callback struct {
	Params url.Values
}

// Source delivers callbacks to listeners registered by correlation state.
type Source interface {
	// Subscribe registers a listener for callbacks whose state matches.
	// The channel has capacity 1; at most one callback is delivered.
	Subscribe(state string) <-chan Callback

	// Unsubscribe removes the listener. Callbacks arriving afterwards
	// for that state are dropped. Safe to call more than once.
	Unsubscribe(state string)
}

// dispatcher implements the listener registry shared by all sources.
type dispatcher struct {
	mu        sync.Mutex
	listeners map[string]chan Callback
	logger    *slog.Logger
}

func newDispatcher(logger *slog.Logger) *dispatcher {
	return &dispatcher{
		listeners: make(map[string]chan Callback),
		logger:    logger,
	}
}

func (d *dispatcher) Subscribe(state string) <-chan Callback {
	ch := make(chan Callback, 1)

	d.mu.Lock()
	d.listeners[state] = ch
	d.mu.Unlock()

	return ch
}

func (d *dispatcher) Unsubscribe(state string) {
	d.mu.Lock()
	delete(d.listeners, state)
	d.mu.Unlock()
}

// dispatch routes params to the listener registered for their state.
// Unmatched or repeated callbacks are dropped: a state that was never
// issued, or whose login already resolved, must not mint credentials.
func (d *dispatcher) dispatch(params url.Values) {
	state := params.Get(StateParam)

	d.mu.Lock()
	ch, ok := d.listeners[state]
	d.mu.Unlock()

	if !ok {
		d.logger.Warn("dropping login callback with unknown state")
		return
	}

	select {
	case ch <- Callback{Params: params}:
	default:
		d.logger.Warn("dropping duplicate login callback")
	}
}
