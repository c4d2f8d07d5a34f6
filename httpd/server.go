package httpd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/caarlos0/env/v11"
	"golang.org/x/net/netutil"

	"dqx0.com/go/httpd/internal/obs"
)

const (
	// DefaultIdleTimeout is how long an idle keep-alive connection is
	// kept before closing.
	DefaultIdleTimeout = 10 * time.Second
	// DefaultMaxSockets caps concurrently accepted connections.
	DefaultMaxSockets = 4096
)

// Server is the acceptor configuration. Build it with New and the
// chained setters, then call Listen or Standalone; the configuration
// is snapshotted at that point and further setter calls have no effect
// on the running server.
type Server struct {
	addr        string
	keepAlive   bool
	idleTimeout time.Duration
	maxSockets  int
	maxHeader   int
	maxBody     int64
	binder      TransportBinder
	logger      obs.Logger
	meter       obs.Meter
}

// New returns a server configuration for addr with keep-alive on, a
// 10s idle timeout, and at most DefaultMaxSockets open connections.
func New(addr string) *Server {
	return &Server{
		addr:        addr,
		keepAlive:   true,
		idleTimeout: DefaultIdleTimeout,
		maxSockets:  DefaultMaxSockets,
		binder:      NewHTTP1Binder(),
		logger:      obs.NopLogger{},
		meter:       obs.NopMeter{},
	}
}

type envConfig struct {
	Addr        string        `env:"HTTPD_ADDR" envDefault:":8080"`
	KeepAlive   bool          `env:"HTTPD_KEEP_ALIVE" envDefault:"true"`
	IdleTimeout time.Duration `env:"HTTPD_IDLE_TIMEOUT" envDefault:"10s"`
	MaxSockets  int           `env:"HTTPD_MAX_SOCKETS" envDefault:"4096"`
}

// FromEnv builds a server configuration from HTTPD_* environment
// variables.
func FromEnv() (*Server, error) {
	var cfg envConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("httpd: parse env: %w", err)
	}
	return New(cfg.Addr).
		KeepAlive(cfg.KeepAlive).
		IdleTimeout(cfg.IdleTimeout).
		MaxSockets(cfg.MaxSockets), nil
}

// KeepAlive enables or disables serving more than one request per
// connection. Default is true.
func (s *Server) KeepAlive(v bool) *Server {
	s.keepAlive = v
	return s
}

// IdleTimeout sets how long an idle connection is kept before closing.
// Zero disables the timeout. Default is 10 seconds.
func (s *Server) IdleTimeout(d time.Duration) *Server {
	s.idleTimeout = d
	return s
}

// MaxSockets caps concurrently open accepted sockets; accepts past the
// cap are deferred until a connection closes. Zero removes the cap.
// Default is 4096.
func (s *Server) MaxSockets(n int) *Server {
	s.maxSockets = n
	return s
}

// MaxHeaderBytes bounds one decoded request head.
func (s *Server) MaxHeaderBytes(n int) *Server {
	s.maxHeader = n
	return s
}

// MaxBodyBytes bounds one request body.
func (s *Server) MaxBodyBytes(n int64) *Server {
	s.maxBody = n
	return s
}

// Transport replaces the default HTTP/1.1 transport binder.
func (s *Server) Transport(b TransportBinder) *Server {
	s.binder = b
	return s
}

// Logger routes server logs to l.
func (s *Server) Logger(l *slog.Logger) *Server {
	s.logger = obs.SlogLogger{L: l}
	return s
}

// Instrument installs observability hooks directly.
func (s *Server) Instrument(l obs.Logger, m obs.Meter) *Server {
	if l != nil {
		s.logger = l
	}
	if m != nil {
		s.meter = m
	}
	return s
}

// Listen binds the configured address and starts accepting
// connections, one fresh Handler from factory per connection. Bind or
// listen failures are returned synchronously as a *BindError. The
// returned Listening handle reports the bound address and stops the
// accept loop on Close.
func (s *Server) Listen(factory HandlerFactory) (*Listening, error) {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return nil, &BindError{Addr: s.addr, Err: err}
	}
	if s.maxSockets > 0 {
		ln = netutil.LimitListener(ln, s.maxSockets)
	}
	l := &Listening{addr: ln.Addr(), ln: ln, done: make(chan struct{})}
	srv := *s // snapshot: setters after Listen must not affect it
	go srv.acceptLoop(ln, factory, l)
	return l, nil
}

// Standalone is Listen plus a LoopDriver that blocks the calling
// goroutine until the Listening handle shuts the server down.
func (s *Server) Standalone(factory HandlerFactory) (*Listening, *LoopDriver, error) {
	l, err := s.Listen(factory)
	if err != nil {
		return nil, nil, err
	}
	return l, &LoopDriver{done: l.done}, nil
}

// acceptLoop owns the listening socket. Per-accept errors are logged
// and the loop continues; only a closed listener stops it. Connection
// tasks are not waited for on shutdown.
func (s *Server) acceptLoop(ln net.Listener, factory HandlerFactory, l *Listening) {
	defer close(l.done)
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				s.logger.Logf(obs.Debug, "listener %s closed", l.addr)
				return
			}
			s.logger.Logf(obs.Error, "accept on %s: %v", l.addr, err)
			time.Sleep(10 * time.Millisecond)
			continue
		}
		s.meter.Counter("httpd_connections_accepted", 1)
		sc := &serverConn{
			conn: conn,
			tr: s.binder.Bind(conn, TransportOptions{
				KeepAlive:      s.keepAlive,
				MaxHeaderBytes: s.maxHeader,
				MaxBodyBytes:   s.maxBody,
			}),
			adapter:     &serviceAdapter{handler: factory.New(), meter: s.meter},
			keepAlive:   s.keepAlive,
			idleTimeout: s.idleTimeout,
			logger:      s.logger,
			meter:       s.meter,
		}
		go sc.serve(context.Background())
	}
}
