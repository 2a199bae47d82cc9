// Package api serves section search over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultAddr is the listen address used when none is configured.
	DefaultAddr = ":8080"

	// DefaultRequestTimeout bounds the handling of a single request.
	DefaultRequestTimeout = 30 * time.Second

	// ShutdownTimeout bounds graceful shutdown once Run's context is done.
	ShutdownTimeout = 10 * time.Second
)

var (
	// ErrSearcherRequired is returned when no searcher is supplied.
	ErrSearcherRequired = errors.New("searcher is required")

	// ErrStatsRequired is returned when no stats source is supplied.
	ErrStatsRequired = errors.New("stats source is required")

	// ErrInvalidRateLimit is returned for a negative rate or burst.
	ErrInvalidRateLimit = errors.New("rate limit and burst must not be negative")
)

// Server is the HTTP front end.
type Server struct {
	addr           string
	corsOrigin     string
	requestTimeout time.Duration
	limiter        *rate.Limiter
	logger         *slog.Logger
	handler        http.Handler
}

// Option configures a Server.
type Option func(*Server) error

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(s *Server) error {
		if addr != "" {
			s.addr = addr
		}
		return nil
	}
}

// WithCORSOrigin sets the Access-Control-Allow-Origin value.
// Default is "*".
func WithCORSOrigin(origin string) Option {
	return func(s *Server) error {
		if origin != "" {
			s.corsOrigin = origin
		}
		return nil
	}
}

// WithRequestTimeout bounds each request's context.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) error {
		if d > 0 {
			s.requestTimeout = d
		}
		return nil
	}
}

// WithRateLimit enables a shared token bucket of perSecond requests with the
// given burst. A zero perSecond disables limiting.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(s *Server) error {
		if perSecond < 0 || burst < 0 {
			return ErrInvalidRateLimit
		}
		if perSecond == 0 {
			s.limiter = nil
			return nil
		}
		if burst == 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewServer builds the routed and wrapped handler.
func NewServer(searcher Searcher, stats Stats, opts ...Option) (*Server, error) {
	if searcher == nil {
		return nil, ErrSearcherRequired
	}
	if stats == nil {
		return nil, ErrStatsRequired
	}

	s := &Server{
		addr:           DefaultAddr,
		corsOrigin:     "*",
		requestTimeout: DefaultRequestTimeout,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/bns/predict", handlePredict(searcher, s.logger))
	mux.HandleFunc("GET /api/health", handleHealth(stats, s.logger))

	chain := []Middleware{
		Recover(s.logger),
		OTel("nyaya"),
		Logger(s.logger),
		CORS(s.corsOrigin),
	}
	if s.limiter != nil {
		chain = append(chain, RateLimit(s.limiter))
	}
	chain = append(chain, Timeout(s.requestTimeout), MaxBytes(MaxQueryBytes))
	s.handler = Chain(mux, chain...)

	return s, nil
}

// Handler returns the fully wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.addr
}

// Run listens on the configured address until ctx is done, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: s.requestTimeout + 5*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api server starting", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutCtx)
}
