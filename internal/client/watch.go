package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/nerrad567/docstore-core/internal/infrastructure/logging"
	"github.com/nerrad567/docstore-core/internal/protocol"
	"github.com/nerrad567/docstore-core/internal/wire"
)

// eventPoll is the read deadline used while waiting for events, so the
// watcher stays responsive to cancellation.
const eventPoll = 1 * time.Second

// Watcher subscribes to a docstore server and delivers every change
// event to a callback, reconnecting after a fixed delay whenever the
// connection or the subscription fails.
type Watcher struct {
	Addr       string
	Identity   string
	RetryDelay time.Duration
	Logger     *logging.Logger

	// OnEvent is called for each received change event, in arrival
	// order, from a single goroutine.
	OnEvent func(event protocol.Event)
}

// Run subscribes and listens until ctx is cancelled. Connection
// failures, rejected subscriptions, and server-side closes all result in
// a retry after RetryDelay; the server never retries on our behalf.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		if err := w.runOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			w.Logger.Error("subscription failed", "error", err, "retry", w.RetryDelay.String())
		} else {
			if ctx.Err() != nil {
				return nil
			}
			w.Logger.Warn("connection closed by server", "retry", w.RetryDelay.String())
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(w.RetryDelay):
		}
	}
}

// runOnce performs one full subscription: connect, subscribe, await the
// acknowledgement, then receive events until the socket closes or ctx is
// cancelled. A nil return means the server closed an established
// subscription.
func (w *Watcher) runOnce(ctx context.Context) error {
	conn, err := net.DialTimeout("tcp", w.Addr, dialTimeout)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", w.Addr, err)
	}
	defer conn.Close() //nolint:errcheck // Reconnect loop owns recovery

	codec := wire.NewCodec(conn, maxFrameBytes)

	_ = conn.SetDeadline(time.Now().Add(dialTimeout)) //nolint:errcheck // Best-effort deadline
	req := protocol.Request{UUID: w.Identity, Action: string(protocol.ActionSubscribe)}
	if err := codec.Send(req); err != nil {
		return err
	}

	var ack protocol.Response
	if err := codec.Receive(&ack); err != nil {
		return fmt.Errorf("reading subscribe ack: %w", err)
	}
	if !ack.OK {
		return fmt.Errorf("subscription rejected: %s", ack.Error)
	}
	_ = conn.SetDeadline(time.Time{}) //nolint:errcheck // Clear the handshake deadline

	w.Logger.Info("subscribed, awaiting events", "addr", w.Addr, "identity", w.Identity)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		_ = conn.SetReadDeadline(time.Now().Add(eventPoll)) //nolint:errcheck // Best-effort deadline; errors caught below
		var event protocol.Event
		err := codec.Receive(&event)
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("reading event: %w", err)
		}
		if w.OnEvent != nil {
			w.OnEvent(event)
		}
	}
}
