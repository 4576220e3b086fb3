// Package server exposes one battle over the network: a JSON query API and
// committing endpoints over HTTP, a websocket event stream, and the same
// query surface over QUIC for game clients that already hold a QUIC
// connection.
package server

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/quic-go/quic-go"
	"gopkg.in/yaml.v3"

	"github.com/wargrid/wargrid/internal/core/ai"
	"github.com/wargrid/wargrid/internal/core/battle"
	"github.com/wargrid/wargrid/internal/core/events/bus"
	"github.com/wargrid/wargrid/internal/core/observability/log"
	"github.com/wargrid/wargrid/pkg/generic"
)

// Config holds server configuration.
type Config struct {
	HTTPAddr string `json:"http_addr" yaml:"http_addr"`
	QUICAddr string `json:"quic_addr" yaml:"quic_addr"`
	// EnableQUIC starts the QUIC query listener alongside HTTP.
	EnableQUIC bool `json:"enable_quic" yaml:"enable_quic"`

	ReadTimeout     time.Duration `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`

	// MaxFrameSize bounds one QUIC query frame.
	MaxFrameSize int `json:"max_frame_size" yaml:"max_frame_size"`

	LogLevel string `json:"log_level" yaml:"log_level"`
}

// DefaultConfig returns the development defaults.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:        "127.0.0.1:8080",
		QUICAddr:        "127.0.0.1:8443",
		EnableQUIC:      false,
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    10 * time.Second,
		ShutdownTimeout: 5 * time.Second,
		MaxFrameSize:    64 * 1024,
		LogLevel:        "info",
	}
}

// LoadConfig reads a YAML config file over the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("server: read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("server: parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects configs the server cannot start with.
func (c Config) Validate() error {
	if c.HTTPAddr == "" {
		return fmt.Errorf("%w: empty http address", ErrInvalidConfig)
	}
	if c.EnableQUIC && c.QUICAddr == "" {
		return fmt.Errorf("%w: quic enabled with empty address", ErrInvalidConfig)
	}
	if c.MaxFrameSize <= 0 {
		return fmt.Errorf("%w: non-positive max frame size", ErrInvalidConfig)
	}
	return nil
}

// Server serves one battle.
type Server struct {
	cfg    Config
	b      *battle.Battle
	scorer *ai.Scorer
	events *bus.Bus
	logger log.Log

	httpServer *http.Server
	quicLn     *quic.Listener

	encPool  *generic.Pool[*bytes.Buffer]
	sessions int64 // atomic: live websocket + quic sessions

	mu      sync.Mutex
	running bool
	closed  bool

	workers  sync.WaitGroup
	stopChan chan struct{}
}

// New wires a server around an assembled battle. events must be the bus the
// battle publishes on, or nil to disable the event stream.
func New(cfg Config, b *battle.Battle, events *bus.Bus, logger log.Log) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b == nil {
		return nil, fmt.Errorf("%w: nil battle", ErrInvalidConfig)
	}
	s := &Server{
		cfg:      cfg,
		b:        b,
		scorer:   ai.NewScorer(ai.DefaultConfig(), b, logger),
		events:   events,
		logger:   logger.With(log.String("component", "server")),
		encPool:  generic.NewHotPool(func() *bytes.Buffer { return new(bytes.Buffer) }, 8),
		stopChan: make(chan struct{}),
	}
	s.httpServer = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      s.routes(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s, nil
}

// Handler returns the HTTP surface, for embedding and tests.
func (s *Server) Handler() http.Handler {
	return s.routes()
}

// Start begins serving. It returns once the listeners are bound; serving
// continues in background goroutines until Stop.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrServerClosed
	}
	if s.running {
		s.mu.Unlock()
		return ErrServerAlreadyRunning
	}
	s.running = true
	s.mu.Unlock()

	ln, err := net.Listen("tcp", s.cfg.HTTPAddr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", s.cfg.HTTPAddr, err)
	}
	s.workers.Add(1)
	go func() {
		defer s.workers.Done()
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http serve stopped", log.Error(err))
		}
	}()
	s.logger.Info("http listening",
		log.String("addr", ln.Addr().String()),
		log.String("battle", s.b.ID()))

	if s.cfg.EnableQUIC {
		if err := s.startQUIC(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Stop shuts both listeners down, draining in-flight HTTP requests up to the
// shutdown timeout.
func (s *Server) Stop() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.running = false
	s.mu.Unlock()

	close(s.stopChan)

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	err := s.httpServer.Shutdown(ctx)

	if s.quicLn != nil {
		_ = s.quicLn.Close()
	}
	s.workers.Wait()
	s.logger.Info("server stopped")
	return err
}

// Sessions returns the number of live event-stream and QUIC sessions.
func (s *Server) Sessions() int64 {
	return atomic.LoadInt64(&s.sessions)
}

func (s *Server) trackSession(delta int64) {
	atomic.AddInt64(&s.sessions, delta)
}
