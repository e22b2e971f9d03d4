package server

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/codetesla51/raw-http-db/store"
	"github.com/rs/zerolog"
)

// ErrServerClosed is returned by Serve after Shutdown
var ErrServerClosed = errors.New("server closed")

const (
	minAcceptDelay = 5 * time.Millisecond
	maxAcceptDelay = time.Second
)

// Server accepts connections and hands each one to its dispatcher
type Server struct {
	config     *Config
	router     *Router
	logger     zerolog.Logger
	dispatcher Dispatcher
	opener     Opener
	now        func() time.Time
	ctx        context.Context

	mu       sync.Mutex
	listener net.Listener
	closed   bool
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the logger
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithDispatcher replaces the default worker pool
func WithDispatcher(d Dispatcher) Option {
	return func(s *Server) { s.dispatcher = d }
}

// WithOpener sets how workers open their database executor
func WithOpener(open Opener) Option {
	return func(s *Server) { s.opener = open }
}

// WithClock sets the time source for the Date header
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New creates a server. Unless a dispatcher is supplied, a WorkerPool of
// config.WorkerCount() workers is started, each with its own sqlite
// executor when the database is enabled.
func New(config *Config, opts ...Option) (*Server, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	s := &Server{
		config: config,
		logger: zerolog.Nop(),
		now:    time.Now,
		ctx:    context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.opener == nil && config.Database.Enabled {
		path := config.Database.Path
		s.opener = func() (store.Executor, error) {
			return store.Open(s.ctx, path)
		}
	}
	if !config.Database.Enabled {
		s.opener = nil
	}

	s.router = NewRouter(config, s.logger.With().Str("component", "router").Logger())

	if s.dispatcher == nil {
		pool, err := NewWorkerPool(config.WorkerCount(), s.opener, s.logger.With().Str("component", "pool").Logger())
		if err != nil {
			return nil, err
		}
		s.dispatcher = pool
	}

	return s, nil
}

// ListenAndServe listens on the configured address and serves until
// Shutdown or a fatal accept error.
func (s *Server) ListenAndServe() error {
	listener, err := net.Listen("tcp", s.config.Address())
	if err != nil {
		return err
	}
	return s.Serve(listener)
}

// Serve accepts connections on listener. Accept errors such as running out
// of file descriptors are logged and retried with backoff; the loop only
// ends on Shutdown or when the listener is closed underneath it.
func (s *Server) Serve(listener net.Listener) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		listener.Close()
		return ErrServerClosed
	}
	s.listener = listener
	s.mu.Unlock()

	s.logger.Info().Str("addr", listener.Addr().String()).Msg("server listening")

	var delay time.Duration
	for {
		conn, err := listener.Accept()
		if err != nil {
			if s.isClosed() {
				return ErrServerClosed
			}
			if errors.Is(err, net.ErrClosed) {
				s.logger.Error().Err(err).Msg("listener closed")
				return err
			}
			delay = acceptBackoff(delay)
			s.logger.Warn().Err(err).Dur("retry_in", delay).Msg("accept failed")
			time.Sleep(delay)
			continue
		}
		delay = 0

		s.logger.Debug().Str("remote", remoteAddr(conn)).Msg("client connected")

		if err := s.dispatcher.Submit(func(exec store.Executor) {
			s.serveConn(conn, exec)
		}); err != nil {
			s.logger.Warn().Err(err).Msg("dropping connection")
			conn.Close()
		}
	}
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

// Shutdown stops accepting connections and waits for queued and in-flight
// connections to finish. It does not interrupt them.
func (s *Server) Shutdown() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	listener := s.listener
	s.mu.Unlock()

	if listener != nil {
		listener.Close()
	}
	s.dispatcher.Close()
	s.logger.Info().Msg("server stopped")
}

// acceptBackoff doubles the previous delay, from 5ms up to one second
func acceptBackoff(prev time.Duration) time.Duration {
	if prev == 0 {
		return minAcceptDelay
	}
	if next := prev * 2; next < maxAcceptDelay {
		return next
	}
	return maxAcceptDelay
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
