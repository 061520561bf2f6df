// Package api serves the intake parser over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/coolbeans/exhibit/pkg/extract"
	"github.com/coolbeans/exhibit/pkg/intake"
	"github.com/coolbeans/exhibit/pkg/ruleset"
)

// DefaultMaxBodyBytes bounds request bodies, uploads included.
const DefaultMaxBodyBytes = intake.DefaultMaxBytes + 1<<20

const shutdownTimeout = 10 * time.Second

// Server exposes parse and CMS endpoints over a ruleset registry.
type Server struct {
	registry ruleset.Registry
	detector *ruleset.Detector
	reader   *intake.Reader
	logger   *zap.Logger
	maxBody  int64
	limiter  *rate.Limiter
	metrics  *metrics

	// parsers holds one parser per ruleset id, replaced when a reload
	// registers a new *Ruleset under that id.
	mu      sync.Mutex
	parsers map[string]*extract.Parser

	handler http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithReader sets the document reader used for uploads.
func WithReader(reader *intake.Reader) Option {
	return func(s *Server) {
		if reader != nil {
			s.reader = reader
		}
	}
}

// WithMaxBodyBytes caps request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBody = n
		}
	}
}

// WithRateLimit allows perSecond requests with the given burst across all
// clients.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(s *Server) {
		if perSecond > 0 && burst > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}
}

// New creates a server over registry.
func New(registry ruleset.Registry, opts ...Option) *Server {
	s := &Server{
		registry: registry,
		detector: ruleset.NewDetector(registry),
		logger:   zap.NewNop(),
		maxBody:  DefaultMaxBodyBytes,
		metrics:  newMetrics(),
		parsers:  make(map[string]*extract.Parser),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.reader == nil {
		s.reader = intake.NewReader(intake.WithLogger(s.logger))
	}
	s.handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/parse", s.handleParse)
	mux.HandleFunc("POST /v1/cms", s.handleCMS)
	mux.HandleFunc("GET /v1/rulesets", s.handleRulesets)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.handler())

	var h http.Handler = s.metrics.instrument(mux)
	h = limitBody(s.maxBody)(h)
	h = rateLimit(s.limiter)(h)
	h = logging(s.logger)(h)
	h = requestID(h)
	h = recoverer(s.logger)(h)
	return h
}

// Handler returns the server's root handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is canceled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("server starting", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down server: %w", err)
		}
		s.logger.Info("server stopped")
		return nil
	})
	return g.Wait()
}

// parser returns the cached parser for rs.
func (s *Server) parser(rs *ruleset.Ruleset) (*extract.Parser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.parsers[rs.ID]; ok && p.Ruleset() == rs {
		return p, nil
	}
	p, err := extract.NewParser(rs)
	if err != nil {
		return nil, err
	}
	s.parsers[rs.ID] = p
	return p, nil
}
