package server

import (
	"context"
	"errors"
	"io"
	"net"
	"time"

	"github.com/nerrad567/docstore-core/internal/protocol"
	"github.com/nerrad567/docstore-core/internal/wire"
)

// handleConn reads exactly one framed request, validates it, dispatches
// to the service, and writes the response. A subscribe request leaves
// the connection open and parked; everything else closes after one
// exchange. Malformed or absent input closes the connection without a
// response.
func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer s.wg.Done()
	defer s.untrackConn(conn)

	codec := wire.NewCodec(conn, s.cfg.Protocol.MaxFrameBytes)

	defer func() {
		if r := recover(); r != nil {
			// Never let one connection take the process down. Best
			// effort: the client may still be owed a response.
			s.logger.Error("connection handler panic",
				"remote", conn.RemoteAddr().String(),
				"panic", r,
			)
			_ = codec.Send(protocol.Failure("internal error")) //nolint:errcheck // Best effort before close
		}
		_ = conn.Close() //nolint:errcheck // Connection is done either way
	}()

	var req protocol.Request
	if err := codec.Receive(&req); err != nil {
		if !errors.Is(err, io.EOF) {
			s.logger.Debug("unreadable request",
				"remote", conn.RemoteAddr().String(),
				"error", err,
			)
		}
		return
	}

	cmd, err := req.Validate()
	if err != nil {
		s.metrics.ValidationFailures.Inc()
		s.logger.Debug("request rejected",
			"remote", conn.RemoteAddr().String(),
			"error", err,
		)
		_ = codec.Send(protocol.Failure(err.Error())) //nolint:errcheck // Client may already be gone
		return
	}

	if cmd.Action == protocol.ActionSubscribe {
		s.handleSubscribe(ctx, conn, codec, cmd)
		return
	}

	var resp protocol.Response
	switch cmd.Action {
	case protocol.ActionGet:
		resp = s.service.Get(ctx, cmd.Identity, cmd.ItemID)
	case protocol.ActionList:
		resp = s.service.List(ctx, cmd.Identity)
	case protocol.ActionSet:
		resp = s.service.Set(ctx, cmd.Identity, cmd.ItemID, cmd.Data)
	}

	s.countRequest(cmd.Action, resp)
	if err := codec.Send(resp); err != nil {
		s.logger.Debug("response write failed",
			"remote", conn.RemoteAddr().String(),
			"error", err,
		)
	}
}

// handleSubscribe acknowledges the subscription, registers the
// connection, and parks it until the peer disconnects or the server
// shuts down.
//
// Ordering matters: the acknowledgement is written before the
// registration, so no broadcast can reach this connection ahead of its
// ack, and after registration only the registry writes to the socket.
func (s *Server) handleSubscribe(ctx context.Context, conn net.Conn, codec *wire.Codec, cmd *protocol.Command) {
	resp := s.service.Subscribe(ctx, cmd.Identity)
	if err := codec.Send(resp); err != nil {
		s.logger.Debug("subscribe ack write failed",
			"remote", conn.RemoteAddr().String(),
			"error", err,
		)
		return
	}

	sub := s.registry.Add(cmd.Identity, conn, codec)
	s.countRequest(protocol.ActionSubscribe, resp)
	s.logger.Info("subscriber connected",
		"identity", cmd.Identity,
		"remote", conn.RemoteAddr().String(),
	)

	s.park(ctx, conn, codec)

	s.registry.Remove(sub)
	s.logger.Info("subscriber disconnected",
		"identity", cmd.Identity,
		"remote", conn.RemoteAddr().String(),
	)
}

// park blocks until the peer closes the connection or the server shuts
// down. The socket is never read for application messages again; the
// idle-interval probe exists purely to notice peer closure and to keep
// this goroutine responsive to cancellation. A probe timeout is not a
// disconnect.
func (s *Server) park(ctx context.Context, conn net.Conn, codec *wire.Codec) {
	idle := s.cfg.GetSubscriberIdleCheck()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_ = conn.SetReadDeadline(time.Now().Add(idle)) //nolint:errcheck // Best-effort deadline; probe error caught below
		err := codec.Probe()
		if err == nil {
			// Stray byte from the peer; subscribers have nothing to
			// say, so discard and keep watching.
			continue
		}
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			continue
		}
		// Peer closed or the socket failed (possibly evicted by a
		// broadcast, or closed by shutdown).
		return
	}
}

// countRequest records one accepted request in the metrics.
func (s *Server) countRequest(action protocol.Action, resp protocol.Response) {
	outcome := "ok"
	if !resp.OK {
		outcome = "error"
	}
	s.metrics.Requests.WithLabelValues(string(action), outcome).Inc()
}
