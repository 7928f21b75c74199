// Package api provides the HTTP server: JSON question answering, SSE
// streaming, and health probes.
package api

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"time"

	"github.com/manna-labs/manna/internal/answer"
	"github.com/manna-labs/manna/internal/engine"
	"github.com/manna-labs/manna/internal/log"
)

// Server timeouts. The write timeout must accommodate a full streamed
// answer, so it is much longer than the handshake timeouts.
const (
	readHeaderTimeout = 10 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 5 * time.Minute
	idleTimeout       = 2 * time.Minute
	shutdownTimeout   = 10 * time.Second
)

// Asker is the engine surface the server depends on. *engine.Engine
// satisfies it.
type Asker interface {
	Ask(ctx context.Context, req engine.Request) (answer.Answer, error)
	AskStream(ctx context.Context, req engine.Request) ([]answer.Source, iter.Seq2[string, error], error)
}

// Pinger reports database liveness for the readiness probe.
// *pgxpool.Pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config configures the HTTP server.
type Config struct {
	// Addr is the listen address, for example ":8080".
	Addr string

	// Engine answers questions. Required.
	Engine Asker

	// DB backs the readiness probe. Optional; nil reports ready.
	DB Pinger

	// RateLimit is the sustained requests per second allowed on the ask
	// endpoints; RateBurst is the burst size. Zero disables limiting.
	RateLimit float64
	RateBurst int

	// Logger for request logging. A nil logger discards output.
	Logger log.Logger
}

// Server is the manna HTTP server.
type Server struct {
	mux    *http.ServeMux
	addr   string
	logger log.Logger
}

// New creates a Server with all routes configured.
func New(cfg Config) (*Server, error) {
	if cfg.Engine == nil {
		return nil, errors.New("engine is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NewNop()
	}

	mux := http.NewServeMux()

	health := newHealthHandler(cfg.DB)
	mux.HandleFunc("GET /health", health.live)
	mux.HandleFunc("GET /ready", health.ready)

	askHandler := newAskHandler(cfg.Engine, cfg.Logger)
	var ask http.Handler = http.HandlerFunc(askHandler.ask)
	var askStream http.Handler = http.HandlerFunc(askHandler.askStream)
	if cfg.RateLimit > 0 {
		limit := rateLimitMiddleware(cfg.RateLimit, cfg.RateBurst)
		ask = limit(ask)
		askStream = limit(askStream)
	}
	mux.Handle("POST /api/ask", ask)
	mux.Handle("POST /api/ask/stream", askStream)

	return &Server{
		mux:    mux,
		addr:   cfg.Addr,
		logger: cfg.Logger,
	}, nil
}

// Handler returns the full middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	var handler http.Handler = s.mux
	handler = loggingMiddleware(s.logger)(handler)
	handler = recoveryMiddleware(s.logger)(handler)
	return handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}
