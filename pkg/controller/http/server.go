package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/courier/pkg/domain/interfaces"
	"github.com/m-mizutani/courier/pkg/domain/types"
	"github.com/m-mizutani/courier/pkg/utils/metrics"
	"github.com/m-mizutani/courier/pkg/utils/ratelimit"
	"github.com/m-mizutani/courier/pkg/utils/signature"
)

const (
	DefaultMaxBodyBytes   = 1 << 20
	DefaultRequestTimeout = 30 * time.Second
)

// config holds internal HTTP server configuration
type config struct {
	addr           string
	env            types.Environment
	verifier       *signature.Verifier
	maxBodyBytes   int64
	requestTimeout time.Duration
	debugEndpoints bool
	trustProxy     bool
	limiter        *ratelimit.Limiter
	metrics        *metrics.Metrics
	configView     any
	startedAt      time.Time
}

// Option is a functional option for Server configuration
type Option func(*config)

// WithAddr sets the server address
func WithAddr(addr string) Option {
	return func(c *config) {
		c.addr = addr
	}
}

// WithEnvironment sets the deployment environment. Error detail is hidden in production.
func WithEnvironment(env types.Environment) Option {
	return func(c *config) {
		c.env = env
	}
}

// WithVerifier sets the signature verifier for inbound events
func WithVerifier(v *signature.Verifier) Option {
	return func(c *config) {
		c.verifier = v
	}
}

// WithMaxBodyBytes sets the request body ceiling
func WithMaxBodyBytes(n int64) Option {
	return func(c *config) {
		if n > 0 {
			c.maxBodyBytes = n
		}
	}
}

// WithRequestTimeout sets the per-request processing deadline
func WithRequestTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.requestTimeout = d
		}
	}
}

// WithDebugEndpoints mounts the /debug routes
func WithDebugEndpoints(enabled bool) Option {
	return func(c *config) {
		c.debugEndpoints = enabled
	}
}

// WithTrustProxyHeaders takes the client address from X-Forwarded-For, X-Real-IP or
// True-Client-IP. Enable only behind a proxy that overwrites those headers.
func WithTrustProxyHeaders(trust bool) Option {
	return func(c *config) {
		c.trustProxy = trust
	}
}

// WithIngressLimiter rejects clients that exceed the limiter's rate
func WithIngressLimiter(l *ratelimit.Limiter) Option {
	return func(c *config) {
		c.limiter = l
	}
}

// WithMetrics exposes and records Prometheus metrics
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *config) {
		c.metrics = m
	}
}

// WithConfigView sets the redacted configuration served by /debug/config
func WithConfigView(v any) Option {
	return func(c *config) {
		c.configView = v
	}
}

// WithStartedAt sets the process start time used for uptime reporting
func WithStartedAt(t time.Time) Option {
	return func(c *config) {
		c.startedAt = t
	}
}

// Server represents the HTTP server
type Server struct {
	*http.Server
}

// NewServer creates a new HTTP server
func NewServer(
	ctx context.Context,
	relayUC interfaces.RelayUseCase,
	opts ...Option,
) (*Server, error) {
	// Default configuration
	cfg := &config{
		addr:           "localhost:8080",
		env:            types.EnvProduction,
		maxBodyBytes:   DefaultMaxBodyBytes,
		requestTimeout: DefaultRequestTimeout,
		startedAt:      time.Now(),
	}

	// Apply options
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.verifier == nil {
		cfg.verifier = signature.NewVerifier("")
	}

	router := chi.NewRouter()

	// Global middleware
	router.Use(middleware.RequestID)
	if cfg.trustProxy {
		router.Use(middleware.RealIP)
	}
	router.Use(LoggingMiddleware(ctx))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(cfg.requestTimeout))

	// Health check
	router.Get("/health", handleHealth)

	// Webhook endpoint
	webhookHandler := NewWebhookHandler(cfg.verifier, relayUC, cfg.env)
	router.With(
		IngressLimitMiddleware(cfg.limiter, cfg.metrics),
		BodyLimitMiddleware(cfg.maxBodyBytes),
	).Post("/hooks/events", webhookHandler.Handle)

	if cfg.debugEndpoints {
		debug := &debugHandler{
			relayUC:    relayUC,
			startedAt:  cfg.startedAt,
			configView: cfg.configView,
		}
		router.Route("/debug", func(r chi.Router) {
			r.Get("/health", debug.handleHealth)
			r.Get("/config", debug.handleConfig)
			r.Method(http.MethodGet, "/metrics", cfg.metrics.Handler())
		})
	}

	server := &Server{
		Server: &http.Server{
			Addr:              cfg.addr,
			Handler:           router,
			ReadHeaderTimeout: 15 * time.Second,
		},
	}

	return server, nil
}
