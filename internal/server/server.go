package server

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	reuseport "github.com/kavu/go_reuseport"
	"github.com/oklog/ulid/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/eternalApril/moonwire/internal/config"
	"github.com/eternalApril/moonwire/internal/metrics"
	"github.com/eternalApril/moonwire/internal/resp"
)

// ErrServerClosed is returned by Serve and ListenAndServe after Close or Shutdown
var ErrServerClosed = errors.New("server closed")

const maxAcceptDelay = time.Second

// Option configures a Server
type Option func(*Server)

// WithMetrics reports to r instead of a private registry
func WithMetrics(r *metrics.Registry) Option {
	return func(s *Server) {
		s.metrics = r
	}
}

// Server accepts RESP connections and runs every one of them in its own goroutine.
// Connections share nothing but the dispatcher
type Server struct {
	cfg        *config.Config
	dispatcher Dispatcher
	decoder    *resp.Decoder
	metrics    *metrics.Registry
	limiter    *rate.Limiter // nil when accepting is unlimited
	log        *zap.Logger

	mu       sync.Mutex
	listener net.Listener
	sessions map[*session]struct{}
	closing  bool
	wg       sync.WaitGroup
}

// New builds a Server. Nothing is bound until ListenAndServe or Serve is called
func New(cfg *config.Config, d Dispatcher, log *zap.Logger, opts ...Option) *Server {
	s := &Server{
		cfg:        cfg,
		dispatcher: d,
		decoder: &resp.Decoder{
			MaxDepth:    cfg.Protocol.MaxDepth,
			MaxBulkLen:  cfg.Protocol.MaxBulkLen,
			MaxArrayLen: cfg.Protocol.MaxArrayLen,
			MaxLineLen:  cfg.Protocol.MaxLineLen,
		},
		log:      log.Named("server"),
		sessions: make(map[*session]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.NewRegistry()
	}
	if cfg.Server.AcceptRate > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.Server.AcceptRate), max(cfg.Server.AcceptBurst, 1))
	}

	return s
}

// ListenAndServe binds the configured address and serves it until ctx is done
// or the server is closed
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := s.listen(ctx)
	if err != nil {
		return err
	}

	return s.Serve(ctx, ln)
}

func (s *Server) listen(ctx context.Context) (net.Listener, error) {
	addr := s.cfg.Server.Addr()

	if s.cfg.Server.Reuseport {
		return reuseport.Listen("tcp", addr)
	}

	var lc net.ListenConfig
	return lc.Listen(ctx, "tcp", addr)
}

// Serve accepts connections on ln and always returns a non-nil error;
// ErrServerClosed once the listener was closed. Cancelling ctx stops accepting,
// connections already running keep going until Shutdown or Close
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		ln.Close() //nolint:errcheck
		return ErrServerClosed
	}
	s.listener = ln
	s.mu.Unlock()

	stop := context.AfterFunc(ctx, func() {
		s.closeListener() //nolint:errcheck
	})
	defer stop()

	s.log.Info("listening", zap.String("address", ln.Addr().String()))

	var delay time.Duration
	for {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				s.closeListener() //nolint:errcheck
				return ErrServerClosed
			}
		}

		nc, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return ErrServerClosed
			}

			if delay == 0 {
				delay = 5 * time.Millisecond
			} else {
				delay = min(2*delay, maxAcceptDelay)
			}
			s.log.Error("accept error", zap.Error(err), zap.Duration("retry_in", delay))
			time.Sleep(delay)
			continue
		}
		delay = 0

		s.mu.Lock()
		if s.closing {
			s.mu.Unlock()
			nc.Close() //nolint:errcheck
			continue
		}
		s.wg.Add(1)
		s.mu.Unlock()

		go s.handle(ctx, nc)
	}
}

// handle handles a connection for a single client
func (s *Server) handle(ctx context.Context, nc net.Conn) {
	defer s.wg.Done()

	id := ulid.Make().String()
	log := s.log.With(zap.String("conn", id), zap.String("addr", nc.RemoteAddr().String()))

	sess := &session{
		id: id,
		conn: resp.NewConn(nc,
			resp.WithDecoder(s.decoder),
			resp.WithReadBufferSize(s.cfg.Server.ReadBuffer),
			resp.WithIdleTimeout(s.cfg.Server.IdleTimeout),
			resp.WithWriteTimeout(s.cfg.Server.WriteTimeout),
			resp.WithObserver(s.metrics.Observer()),
		),
		dispatcher: s.dispatcher,
		metrics:    s.metrics,
		log:        log,
		closing:    s.isClosing,
	}

	if !s.track(sess) {
		nc.Close() //nolint:errcheck
		return
	}
	defer s.untrack(sess)

	s.metrics.ConnectionsAccepted.Inc()
	s.metrics.ConnectionsActive.Inc()
	defer s.metrics.ConnectionsActive.Dec()

	if log.Core().Enabled(zap.DebugLevel) {
		log.Debug("client connected")
	}

	err := sess.serve(ctx)
	reason := sess.closeReason(err)
	s.metrics.ConnectionsClosed.WithLabelValues(reason).Inc()

	switch reason {
	case metrics.ReasonClean, metrics.ReasonShutdown:
		log.Debug("client disconnected", zap.String("reason", reason))
	default:
		log.Warn("connection failed", zap.String("reason", reason), zap.Error(err))
	}

	if err := sess.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		log.Debug("close failed", zap.Error(err))
	}
}

func (s *Server) track(sess *session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closing {
		return false
	}
	s.sessions[sess] = struct{}{}
	return true
}

func (s *Server) untrack(sess *session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sess)
}

func (s *Server) isClosing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.closing
}

// Addr returns the listener address, or nil before Serve
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *Server) closeListener() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return nil
	}
	err := s.listener.Close()
	s.listener = nil
	return err
}

// closeSessions closes every tracked connection and forbids new ones
func (s *Server) closeSessions() (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closing = true
	for sess := range s.sessions {
		if cerr := sess.conn.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) {
			err = multierr.Append(err, cerr)
		}
	}
	return err
}

// Close immediately closes the listener and all active connections, then waits
// for the connection goroutines to exit.
//
// For a graceful shutdown, use Shutdown()
func (s *Server) Close() error {
	err := s.closeListener()
	err = multierr.Append(err, s.closeSessions())

	s.wg.Wait()
	return err
}

// Shutdown stops accepting and waits for clients to disconnect on their own.
// When ctx expires first the remaining connections are closed and ctx.Err() is returned
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.closeListener()

	s.mu.Lock()
	s.closing = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return err
	case <-ctx.Done():
		s.log.Warn("shutdown timed out, closing remaining connections")
		err = multierr.Append(err, s.closeSessions())
		<-done
		return multierr.Append(err, ctx.Err())
	}
}
