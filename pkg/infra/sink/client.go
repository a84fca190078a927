// Package sink delivers messages to the chat webhook. It paces requests against the
// quota the sink reports and retries transient failures.
package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"github.com/m-mizutani/courier/pkg/domain/model"
	"github.com/m-mizutani/courier/pkg/domain/types"
	"github.com/m-mizutani/courier/pkg/utils/metrics"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
)

const (
	DefaultMaxAttempts  = 3
	DefaultBaseDelay    = time.Second
	DefaultMinInterval  = 250 * time.Millisecond
	DefaultSafetyBuffer = 250 * time.Millisecond
	DefaultTimeout      = 10 * time.Second

	maxResponseBody = 64 * 1024
)

// Client sends messages to the sink. It is safe for concurrent use.
type Client struct {
	httpClient   *http.Client
	username     string
	avatarURL    string
	maxAttempts  int
	baseDelay    time.Duration
	minInterval  time.Duration
	safetyBuffer time.Duration
	metrics      *metrics.Metrics

	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func() float64

	mu       sync.Mutex
	state    model.RateLimitState
	lastSlot time.Time
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithIdentity sets the username and avatar shown for relayed messages
func WithIdentity(username, avatarURL string) Option {
	return func(c *Client) {
		c.username = username
		c.avatarURL = avatarURL
	}
}

// WithMaxAttempts sets the total number of attempts including the first
func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithBaseDelay sets the first retry delay
func WithBaseDelay(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.baseDelay = d
		}
	}
}

// WithMinInterval sets the minimum spacing between any two requests
func WithMinInterval(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.minInterval = d
		}
	}
}

// WithSafetyBuffer sets the margin added after a quota reset or Retry-After
func WithSafetyBuffer(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.safetyBuffer = d
		}
	}
}

// WithMetrics records attempts and deliveries
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// WithSleep replaces the context-aware sleep used for pacing and backoff
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) {
		c.sleep = sleep
	}
}

// WithJitter replaces the jitter source. The function must return a value in [-1, 1].
func WithJitter(jitter func() float64) Option {
	return func(c *Client) {
		c.jitter = jitter
	}
}

// New creates a sink client
func New(opts ...Option) *Client {
	c := &Client{
		httpClient:   &http.Client{Timeout: DefaultTimeout},
		maxAttempts:  DefaultMaxAttempts,
		baseDelay:    DefaultBaseDelay,
		minInterval:  DefaultMinInterval,
		safetyBuffer: DefaultSafetyBuffer,
		now:          time.Now,
		sleep:        sleepContext,
		jitter:       func() float64 { return rand.Float64()*2 - 1 },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DeliveryError is the outcome of one failed attempt
type DeliveryError struct {
	StatusCode int
	Retryable  bool
	RetryAfter time.Duration
	Body       string
	cause      error
}

func (e *DeliveryError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("sink request failed: %v", e.cause)
	}
	if e.Body != "" {
		return fmt.Sprintf("sink responded %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("sink responded %d", e.StatusCode)
}

func (e *DeliveryError) Unwrap() error {
	return e.cause
}

// Payload is the JSON body posted to the sink
type Payload struct {
	Username  string        `json:"username,omitempty"`
	AvatarURL string        `json:"avatar_url,omitempty"`
	Content   string        `json:"content,omitempty"`
	Embeds    []model.Embed `json:"embeds,omitempty"`
}

// Payload wraps msg with the configured sender identity
func (c *Client) Payload(msg model.Message) Payload {
	return Payload{
		Username:  c.username,
		AvatarURL: c.avatarURL,
		Content:   msg.Content,
		Embeds:    msg.Embeds,
	}
}

// State returns the most recently observed sink quota
func (c *Client) State() model.RateLimitState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Send posts msg to destination. It waits for the sink's quota, retries 429, 5xx and
// transport failures up to the configured attempts, and fails immediately on any other
// 4xx.
func (c *Client) Send(ctx context.Context, destination string, msg model.Message) (*model.DeliveryResult, error) {
	logger := ctxlog.From(ctx)
	started := c.now()

	body, err := json.Marshal(c.Payload(msg))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to encode sink payload", goerr.T(types.ErrTagDelivery))
	}

	var lastErr *DeliveryError
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := c.sleep(ctx, c.reserve()); err != nil {
			c.metrics.ObserveDelivery("abandoned", c.now().Sub(started).Seconds())
			return nil, goerr.Wrap(err, "delivery abandoned while pacing",
				goerr.T(types.ErrTagDelivery), goerr.V("attempt", attempt))
		}

		status, derr := c.post(ctx, destination, body)
		if derr == nil {
			c.metrics.ObserveDelivery("success", c.now().Sub(started).Seconds())
			logger.Debug("message delivered", slog.Int("attempts", attempt), slog.Int("status", status))
			return &model.DeliveryResult{Attempts: attempt, StatusCode: status}, nil
		}
		lastErr = derr

		if ctx.Err() != nil {
			c.metrics.ObserveDelivery("abandoned", c.now().Sub(started).Seconds())
			return nil, goerr.Wrap(ctx.Err(), "delivery abandoned",
				goerr.T(types.ErrTagDelivery), goerr.V("attempt", attempt), goerr.V("last_error", derr.Error()))
		}

		if !derr.Retryable {
			c.metrics.ObserveDelivery("rejected", c.now().Sub(started).Seconds())
			return nil, goerr.Wrap(derr, "sink rejected message",
				goerr.T(types.ErrTagDelivery), goerr.T(types.ErrTagDeliveryFatal),
				goerr.V("attempt", attempt), goerr.V("status", derr.StatusCode))
		}

		if attempt == c.maxAttempts {
			break
		}

		delay := Backoff(attempt, c.baseDelay, c.jitter())
		if derr.RetryAfter > 0 {
			delay = derr.RetryAfter + c.safetyBuffer
		}
		logger.Warn("sink delivery attempt failed, retrying",
			slog.Int("attempt", attempt),
			slog.Int("status", derr.StatusCode),
			slog.Duration("delay", delay),
			slog.Any("error", derr),
		)

		if err := c.sleep(ctx, delay); err != nil {
			c.metrics.ObserveDelivery("abandoned", c.now().Sub(started).Seconds())
			return nil, goerr.Wrap(err, "delivery abandoned during backoff",
				goerr.T(types.ErrTagDelivery), goerr.V("attempt", attempt), goerr.V("last_error", derr.Error()))
		}
	}

	c.metrics.ObserveDelivery("exhausted", c.now().Sub(started).Seconds())
	return nil, goerr.Wrap(lastErr, fmt.Sprintf("delivery failed after %d attempts", c.maxAttempts),
		goerr.T(types.ErrTagDelivery), goerr.V("attempts", c.maxAttempts), goerr.V("status", lastErr.StatusCode))
}

// reserve claims the next send slot and returns how long to wait for it. Holding the
// lock across the decision keeps concurrent senders on distinct slots.
func (c *Client) reserve() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	at := now

	if c.state.Known() && c.state.Remaining <= 1 && c.state.ResetAt.After(now) {
		at = c.state.ResetAt.Add(c.safetyBuffer)
	}
	if !c.lastSlot.IsZero() {
		if next := c.lastSlot.Add(c.minInterval); next.After(at) {
			at = next
		}
	}
	c.lastSlot = at

	if c.state.Known() && c.state.Remaining > 0 {
		c.state.Remaining--
	}

	return at.Sub(now)
}

func (c *Client) post(ctx context.Context, destination string, body []byte) (int, *DeliveryError) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, destination, bytes.NewReader(body))
	if err != nil {
		return 0, &DeliveryError{cause: goerr.Wrap(err, "failed to build sink request")}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", types.ServiceName+"/"+types.Version)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveAttempt("error")
		return 0, &DeliveryError{Retryable: true, cause: err}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))

	now := c.now()
	if state, ok := ParseRateLimit(resp.Header, now); ok {
		c.mu.Lock()
		c.state = state
		c.mu.Unlock()
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		c.metrics.ObserveAttempt("2xx")
		return resp.StatusCode, nil

	case resp.StatusCode == http.StatusTooManyRequests:
		c.metrics.ObserveAttempt("429")
		return resp.StatusCode, &DeliveryError{
			StatusCode: resp.StatusCode,
			Retryable:  true,
			RetryAfter: ParseRetryAfter(resp.Header, respBody, now),
			Body:       string(respBody),
		}

	case resp.StatusCode >= 500:
		c.metrics.ObserveAttempt("5xx")
		return resp.StatusCode, &DeliveryError{
			StatusCode: resp.StatusCode,
			Retryable:  true,
			Body:       string(respBody),
		}

	default:
		c.metrics.ObserveAttempt("4xx")
		return resp.StatusCode, &DeliveryError{
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
