package http

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/courier/pkg/domain/model"
	"github.com/m-mizutani/courier/pkg/utils/metrics"
	"github.com/m-mizutani/courier/pkg/utils/ratelimit"
	"github.com/m-mizutani/ctxlog"
)

// LoggingMiddleware returns a middleware that logs HTTP requests. The request context
// carries a logger tagged with the request ID.
func LoggingMiddleware(ctx context.Context) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			logger := ctxlog.From(ctx).With("request_id", middleware.GetReqID(r.Context()))

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				logger.Info("HTTP request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration_ms", time.Since(start).Milliseconds(),
					"remote_addr", r.RemoteAddr,
				)
			}()

			next.ServeHTTP(ww, r.WithContext(ctxlog.With(r.Context(), logger)))
		})
	}
}

// IngressLimitMiddleware rejects clients over the limiter's rate with 429. Clients are
// identified by real IP and User-Agent. A nil limiter lets everything through.
func IngressLimitMiddleware(limiter *ratelimit.Limiter, m *metrics.Metrics) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := limiter.Allow(clientKey(r))

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))

			if !decision.Allowed {
				m.ObserveIngressRejected()
				retryAfter := int64((decision.RetryAfter + time.Second - 1) / time.Second)
				h.Set("Retry-After", strconv.FormatInt(max(retryAfter, 1), 10))
				ctxlog.From(r.Context()).Warn("Ingress rate limit exceeded",
					"remote_addr", r.RemoteAddr,
					"retry_after_ms", decision.RetryAfter.Milliseconds(),
				)
				writeJSON(r.Context(), w, http.StatusTooManyRequests, errorResponse{Error: "too many requests"})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return host + "|" + r.UserAgent()
}

// BodyLimitMiddleware rejects bodies larger than maxBytes with 413. A declared
// Content-Length over the ceiling is rejected before the body is read.
func BodyLimitMiddleware(maxBytes int64) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				writeJSON(r.Context(), w, http.StatusRequestEntityTooLarge, errorResponse{Error: "request body too large"})
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

type errorResponse struct {
	Error  string                  `json:"error"`
	Detail string                  `json:"detail,omitempty"`
	Issues []model.ValidationIssue `json:"issues,omitempty"`
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		ctxlog.From(ctx).Error("Failed to encode response", "error", err)
	}
}

// writeError writes an error response
func writeError(ctx context.Context, w http.ResponseWriter, err error, status int) {
	writeJSON(ctx, w, status, errorResponse{Error: err.Error()})
}
