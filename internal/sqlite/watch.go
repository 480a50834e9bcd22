package sqlite

import (
	"context"
	"sync"
)

// hub fans table-change signals out to live queries. Signals carry no
// payload; a woken query re-reads its table.
type hub struct {
	mu     sync.Mutex
	closed bool
	subs   map[string]map[chan struct{}]struct{}
}

func newHub() *hub {
	return &hub{subs: make(map[string]map[chan struct{}]struct{})}
}

// subscribe registers interest in table. The returned channel has a buffer
// of one so bursts of writes collapse into a single wake-up. It is closed
// when the hub closes. ok is false if the hub is already closed.
func (h *hub) subscribe(table string) (ch chan struct{}, ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, false
	}
	ch = make(chan struct{}, 1)
	if h.subs[table] == nil {
		h.subs[table] = make(map[chan struct{}]struct{})
	}
	h.subs[table][ch] = struct{}{}
	return ch, true
}

func (h *hub) unsubscribe(table string, ch chan struct{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[table][ch]; !ok {
		return
	}
	delete(h.subs[table], ch)
	close(ch)
}

func (h *hub) notify(table string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[table] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for _, set := range h.subs {
		for ch := range set {
			close(ch)
		}
	}
	h.subs = nil
}

// watch runs query now and after every committed write to table, sending
// each result on the returned channel until ctx is done or the backend
// detaches. The channel holds one snapshot; an unread snapshot is replaced
// by the newer one. A failed query is logged and skipped.
func watch[T any](ctx context.Context, b *Backend, table string, query func(ctx context.Context) ([]T, error)) <-chan []T {
	out := make(chan []T, 1)

	b.mu.RLock()
	var (
		wake chan struct{}
		ok   bool
	)
	if b.attached {
		wake, ok = b.hub.subscribe(table)
	}
	h := b.hub
	b.mu.RUnlock()

	if !ok {
		close(out)
		return out
	}

	go func() {
		defer close(out)
		defer h.unsubscribe(table, wake)

		emit := func() {
			rows, err := query(ctx)
			if err != nil {
				if ctx.Err() == nil {
					b.log.Warn().Err(err).Str("table", table).Msg("live query failed")
				}
				return
			}
			select {
			case <-out:
			default:
			}
			out <- rows
		}

		emit()
		for {
			select {
			case <-ctx.Done():
				return
			case _, open := <-wake:
				if !open {
					return
				}
				emit()
			}
		}
	}()
	return out
}
