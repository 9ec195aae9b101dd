// Package subscriber provides the registry of live subscriber sockets
// and the broadcast path that pushes change events to all of them.
//
// A subscription is one (identity, connection) pair. The same identity
// may hold several concurrent subscriptions; each is tracked and removed
// independently. The registry is self-healing: a socket that fails
// during a broadcast is evicted immediately and delivery continues to
// the rest.
package subscriber

import (
	"net"
	"sync"
	"time"

	"github.com/nerrad567/docstore-core/internal/infrastructure/logging"
	"github.com/nerrad567/docstore-core/internal/metrics"
	"github.com/nerrad567/docstore-core/internal/protocol"
	"github.com/nerrad567/docstore-core/internal/wire"
)

// writeTimeout bounds a single event delivery so one stalled socket
// cannot hold up a broadcast indefinitely; a timed-out socket is treated
// as dead and evicted.
const writeTimeout = 5 * time.Second

// Subscription is one registered (identity, connection) pair. The
// dispatcher keeps the returned handle to remove exactly this pair on
// disconnect, leaving the identity's other subscriptions untouched.
type Subscription struct {
	Identity string
	conn     net.Conn
	codec    *wire.Codec
}

// Registry tracks live subscriptions and broadcasts events to them.
//
// One coarse mutex covers add, remove, broadcast, and close-all, which
// gives broadcasts a consistent snapshot and per-connection FIFO
// delivery. Contention is not a concern at this registry's scale.
type Registry struct {
	logger  *logging.Logger
	metrics *metrics.Metrics

	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *logging.Logger, m *metrics.Metrics) *Registry {
	return &Registry{
		logger:  logger,
		metrics: m,
		subs:    make(map[*Subscription]struct{}),
	}
}

// Add registers a live subscription and returns its handle.
func (r *Registry) Add(identity string, conn net.Conn, codec *wire.Codec) *Subscription {
	sub := &Subscription{Identity: identity, conn: conn, codec: codec}

	r.mu.Lock()
	r.subs[sub] = struct{}{}
	count := len(r.subs)
	r.mu.Unlock()

	r.metrics.Subscribers.Set(float64(count))
	r.logger.Debug("subscriber registered", "identity", identity, "subscribers", count)
	return sub
}

// Remove unregisters a subscription. It is idempotent: removing a
// subscription that was already evicted or closed is a no-op.
func (r *Registry) Remove(sub *Subscription) {
	r.mu.Lock()
	_, existed := r.subs[sub]
	delete(r.subs, sub)
	count := len(r.subs)
	r.mu.Unlock()

	if existed {
		r.metrics.Subscribers.Set(float64(count))
		r.logger.Debug("subscriber removed", "identity", sub.Identity, "subscribers", count)
	}
}

// Broadcast delivers the event to every registered socket. A failed
// delivery evicts that socket, logs the failure, and continues; one dead
// subscriber never aborts the broadcast or fails the write that
// triggered it.
func (r *Registry) Broadcast(event protocol.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for sub := range r.subs {
		_ = sub.conn.SetWriteDeadline(time.Now().Add(writeTimeout)) //nolint:errcheck // Best-effort deadline; write error caught below
		if err := sub.codec.Send(event); err != nil {
			delete(r.subs, sub)
			_ = sub.conn.Close() //nolint:errcheck // Socket already failed
			r.metrics.BroadcastEvictions.Inc()
			r.logger.Warn("evicting dead subscriber",
				"identity", sub.Identity,
				"error", err,
			)
			continue
		}
		_ = sub.conn.SetWriteDeadline(time.Time{}) //nolint:errcheck // Best-effort deadline reset
		r.metrics.BroadcastDeliveries.Inc()
	}
	r.metrics.Subscribers.Set(float64(len(r.subs)))
}

// CloseAll best-effort closes every registered socket. Used only at
// process shutdown so parked subscriber handlers unblock and exit.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for sub := range r.subs {
		_ = sub.conn.Close() //nolint:errcheck // Best-effort shutdown
		delete(r.subs, sub)
	}
	r.metrics.Subscribers.Set(0)
}

// Count returns the number of live subscriptions.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}
