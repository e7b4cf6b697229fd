// Package api exposes the orbital picture over HTTP: the catalog, live
// position frames, conjunction assessments, debris clusters, and
// maneuver planning, plus a websocket stream of engine output.
package api

import (
	"bufio"
	"context"
	"net"
	"net/http"
	"time"

	"github.com/signalsfoundry/sentinel-orbital/internal/logging"
	"github.com/signalsfoundry/sentinel-orbital/internal/observability"
	"github.com/signalsfoundry/sentinel-orbital/internal/sim"
	"github.com/signalsfoundry/sentinel-orbital/timectrl"
	"golang.org/x/time/rate"
)

const requestIDHeader = "X-Request-Id"

// Config carries the listener settings for the API server.
type Config struct {
	Addr string

	// RateLimitPerSec and RateLimitBurst bound per-IP request rates.
	// Zero values fall back to the defaults.
	RateLimitPerSec float64
	RateLimitBurst  int
}

// Server serves the HTTP API over one engine and one simulation clock.
type Server struct {
	httpServer *http.Server
	engine     *sim.Engine
	clock      timectrl.SimClock
	collector  *observability.APICollector
	limiter    *IPRateLimiter
	log        logging.Logger
}

// NewServer wires the route table and middleware chain. collector may
// be nil when metrics are not exported.
func NewServer(cfg Config, engine *sim.Engine, clock timectrl.SimClock, collector *observability.APICollector, log logging.Logger) *Server {
	if log == nil {
		log = logging.Noop()
	}
	if cfg.RateLimitPerSec <= 0 {
		cfg.RateLimitPerSec = 50
	}
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 100
	}

	s := &Server{
		engine:    engine,
		clock:     clock,
		collector: collector,
		limiter:   NewIPRateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst),
		log:       log,
	}

	mux := http.NewServeMux()
	mux.Handle("GET /{$}", s.route("/", http.HandlerFunc(s.handleRoot)))
	mux.Handle("GET /api/orbit", s.route("/api/orbit", http.HandlerFunc(s.handleOrbit)))
	mux.Handle("GET /api/orbit/paths", s.route("/api/orbit/paths", http.HandlerFunc(s.handleOrbitPaths)))
	mux.Handle("GET /api/positions", s.route("/api/positions", http.HandlerFunc(s.handlePositions)))
	mux.Handle("GET /api/conjunctions", s.route("/api/conjunctions", http.HandlerFunc(s.handleConjunctions)))
	mux.Handle("GET /api/clusters", s.route("/api/clusters", http.HandlerFunc(s.handleClusters)))
	mux.Handle("POST /api/maneuver", s.route("/api/maneuver", http.HandlerFunc(s.handleManeuver)))
	mux.Handle("GET /api/stream", s.route("/api/stream", http.HandlerFunc(s.handleStream)))
	mux.Handle("GET /healthz", s.probe("/healthz", http.HandlerFunc(s.handleHealthz)))
	mux.Handle("GET /readyz", s.probe("/readyz", http.HandlerFunc(s.handleReadyz)))

	var handler http.Handler = mux
	handler = loggingMiddleware(log)(handler)
	handler = requestIDMiddleware(log)(handler)

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// route builds the per-endpoint chain: tracing, then metrics, then the
// per-IP rate limit, then the handler.
func (s *Server) route(pattern string, h http.Handler) http.Handler {
	h = s.limiter.Middleware(h)
	h = s.collector.Middleware(pattern, h)
	return tracingMiddleware(pattern, h)
}

// probe skips tracing and rate limiting for health endpoints so
// monitors are never throttled.
func (s *Server) probe(pattern string, h http.Handler) http.Handler {
	return s.collector.Middleware(pattern, h)
}

// Handler returns the fully wrapped handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts the HTTP server on the configured address.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the provided listener.
func (s *Server) Serve(lis net.Listener) error {
	return s.httpServer.Serve(lis)
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) currentSimTime() float64 {
	if s.clock == nil {
		return 0
	}
	return s.clock.SimSeconds()
}

// requestIDMiddleware ensures a request ID is present on the context,
// sourcing it from the inbound header if provided, and attaches a
// per-request logger annotated with request_id, method, and path.
func requestIDMiddleware(base logging.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = logging.Noop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if incoming := r.Header.Get(requestIDHeader); incoming != "" {
				ctx = logging.ContextWithRequestID(ctx, incoming)
			}

			ctx, reqLog := logging.WithRequestLogger(ctx, base.With(
				logging.String("method", r.Method),
				logging.String("path", r.URL.Path),
			))
			ctx = logging.ContextWithLogger(ctx, reqLog)

			w.Header().Set(requestIDHeader, logging.RequestIDFromContext(ctx))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// probePath reports whether the path is a health probe that should log
// at debug rather than info.
func probePath(path string) bool {
	return path == "/healthz" || path == "/readyz"
}

func loggingMiddleware(log logging.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = logging.Noop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			ctx := r.Context()
			fields := []logging.Field{
				logging.String("request_id", logging.RequestIDFromContext(ctx)),
				logging.String("method", r.Method),
				logging.String("path", r.URL.Path),
				logging.Int("status", rec.status),
				logging.Duration("duration", time.Since(start)),
				logging.String("remote", r.RemoteAddr),
			}
			if probePath(r.URL.Path) {
				log.Debug(ctx, "request", fields...)
				return
			}
			log.Info(ctx, "request", fields...)
		})
	}
}

// responseRecorder captures the response status for the request log.
// Hijack passes through so the websocket upgrade keeps working behind
// the middleware chain.
type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *responseRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, http.ErrNotSupported
	}
	return h.Hijack()
}
