package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/nerrad567/docstore-core/internal/infrastructure/config"
	"github.com/nerrad567/docstore-core/internal/infrastructure/logging"
	"github.com/nerrad567/docstore-core/internal/metrics"
	"github.com/nerrad567/docstore-core/internal/service"
	"github.com/nerrad567/docstore-core/internal/subscriber"
)

// drainTimeout is how long shutdown waits for in-flight handlers before
// force-closing their connections.
const drainTimeout = 5 * time.Second

// Server owns the TCP listener and the per-connection handler goroutines.
type Server struct {
	cfg      *config.Config
	service  *service.Service
	registry *subscriber.Registry
	metrics  *metrics.Metrics
	logger   *logging.Logger

	listener *net.TCPListener
	wg       sync.WaitGroup

	connMu sync.Mutex
	conns  map[net.Conn]struct{}
}

// New creates a Server over the shared service, registry, and metrics
// instances constructed at startup.
func New(cfg *config.Config, svc *service.Service, registry *subscriber.Registry, m *metrics.Metrics, logger *logging.Logger) *Server {
	return &Server{
		cfg:      cfg,
		service:  svc,
		registry: registry,
		metrics:  m,
		logger:   logger,
		conns:    make(map[net.Conn]struct{}),
	}
}

// Listen binds the configured TCP address. A bind failure is the only
// fatal startup error the server itself produces.
func (s *Server) Listen() error {
	addr := s.cfg.ListenAddr()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("binding %s: %w", addr, err)
	}
	tcpLn, ok := ln.(*net.TCPListener)
	if !ok {
		ln.Close() //nolint:errcheck // Best effort cleanup on error path
		return fmt.Errorf("unexpected listener type %T", ln)
	}
	s.listener = tcpLn
	s.logger.Info("listening", "addr", tcpLn.Addr().String())
	return nil
}

// Addr returns the bound listener address. Only valid after Listen.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Serve runs the accept loop until ctx is cancelled, then shuts down
// gracefully. The loop never blocks longer than the configured poll
// interval, so a shutdown signal is observed promptly.
func (s *Server) Serve(ctx context.Context) error {
	poll := s.cfg.GetAcceptPoll()

	for {
		if ctx.Err() != nil {
			break
		}

		if err := s.listener.SetDeadline(time.Now().Add(poll)); err != nil {
			break
		}
		conn, err := s.listener.Accept()
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			if ctx.Err() != nil {
				break
			}
			s.logger.Warn("accept failed", "error", err)
			continue
		}

		s.trackConn(conn)
		s.wg.Add(1)
		go s.handleConn(ctx, conn)
	}

	s.shutdown()
	return nil
}

// ListenAndServe binds the listener and runs the accept loop.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve(ctx)
}

// shutdown stops accepting, closes every subscriber socket so parked
// handlers unblock, and drains in-flight handlers. Short requests are
// left to complete naturally within the grace period; no audit append or
// document mutation already in progress is aborted.
func (s *Server) shutdown() {
	s.logger.Info("shutting down", "subscribers", s.registry.Count())

	_ = s.listener.Close() //nolint:errcheck // Listener is going away regardless
	s.registry.CloseAll()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(drainTimeout):
		s.logger.Warn("drain timeout, closing remaining connections")
		s.closeAllConns()
		<-done
	}

	s.logger.Info("stopped")
}

func (s *Server) trackConn(conn net.Conn) {
	s.connMu.Lock()
	s.conns[conn] = struct{}{}
	s.connMu.Unlock()
}

func (s *Server) untrackConn(conn net.Conn) {
	s.connMu.Lock()
	delete(s.conns, conn)
	s.connMu.Unlock()
}

func (s *Server) closeAllConns() {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	for conn := range s.conns {
		_ = conn.Close() //nolint:errcheck // Best-effort shutdown
	}
}
