package session

import (
	"log/slog"
	"sync"
)

// ChangeEvent is one batch of session changes. Events are emitted
// strictly after the durable state mutation they describe.
type ChangeEvent struct {
	Added   []Session
	Removed []Session
	Changed []Session
}

// subscriberBuffer is the per-subscriber channel capacity. A
// subscriber that falls this far behind loses events.
const subscriberBuffer = 16

// emitter fans ChangeEvents out to subscribers.
type emitter struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan ChangeEvent
	logger *slog.Logger
}

func newEmitter(logger *slog.Logger) *emitter {
	return &emitter{
		subs:   make(map[int]chan ChangeEvent),
		logger: logger,
	}
}

// subscribe returns a channel of change events and a cancel function.
// The channel is closed on cancel.
func (e *emitter) subscribe() (<-chan ChangeEvent, func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.nextID
	e.nextID++

	ch := make(chan ChangeEvent, subscriberBuffer)
	e.subs[id] = ch

	cancel := func() {
		e.mu.Lock()
		defer e.mu.Unlock()

		if ch, ok := e.subs[id]; ok {
			delete(e.subs, id)
			close(ch)
		}
	}

	return ch, cancel
}

// emit delivers ev to all subscribers without blocking. Slow
// subscribers drop events; the session store remains the truth.
func (e *emitter) emit(ev ChangeEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for id, ch := range e.subs {
		select {
		case ch <- ev:
		default:
			e.logger.Warn("dropping session change event for slow subscriber", slog.Int("subscriber", id))
		}
	}
}
