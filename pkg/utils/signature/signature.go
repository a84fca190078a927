// Package signature authenticates inbound events. The source signs the exact raw
// request body with HMAC-SHA256 and sends "t=<unix_ms>,v1=<hex digest>". The header
// timestamp is not covered by the digest, so freshness is also checked against the
// webhookTimestamp inside the signed body.
package signature

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/m-mizutani/courier/pkg/domain/model"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
)

const (
	// HeaderName is the request header carrying the composite signature
	HeaderName = "X-Webhook-Signature"

	// DefaultWindow is the maximum accepted distance between the signed timestamp and now
	DefaultWindow = 60 * time.Second
)

// ParseHeader splits "t=<unix_ms>,v1=<hex>" into its timestamp and digest
func ParseHeader(header string) (int64, string, error) {
	parts := strings.Split(strings.TrimSpace(header), ",")
	if len(parts) != 2 {
		return 0, "", goerr.New("signature header must have exactly two fields", goerr.V("fields", len(parts)))
	}

	var (
		timestamp       int64
		digest          string
		hasTS, hasValue bool
	)
	for _, part := range parts {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			return 0, "", goerr.New("signature header field is not key=value")
		}
		switch key {
		case "t":
			ts, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return 0, "", goerr.Wrap(err, "signature timestamp is not numeric")
			}
			timestamp, hasTS = ts, true
		case "v1":
			digest, hasValue = value, true
		default:
			return 0, "", goerr.New("unknown signature header field", goerr.V("key", key))
		}
	}

	if !hasTS || !hasValue || digest == "" {
		return 0, "", goerr.New("signature header lacks t or v1")
	}

	return timestamp, digest, nil
}

// Compute returns the hex encoded HMAC-SHA256 of body
func Compute(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Sign builds a signature header value for body signed at timestampMs
func Sign(body []byte, secret string, timestampMs int64) string {
	return fmt.Sprintf("t=%d,v1=%s", timestampMs, Compute(body, secret))
}

// Verify checks the digest of body against signature and rejects timestamps outside of
// window around now. The comparison runs in constant time; a length mismatch is a
// plain non-match.
func Verify(body []byte, signature, secret string, claimedMs int64, now time.Time, window time.Duration) bool {
	if !fresh(claimedMs, now, window) {
		return false
	}

	expected := Compute(body, secret)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}

func fresh(ms int64, now time.Time, window time.Duration) bool {
	diff := now.UnixMilli() - ms
	if diff < 0 {
		diff = -diff
	}
	return diff <= window.Milliseconds()
}

// SignedTimestamp returns the webhookTimestamp field of a JSON event body in unix
// milliseconds. A missing or null field is an error.
func SignedTimestamp(body []byte) (int64, error) {
	var envelope struct {
		WebhookTimestamp json.RawMessage `json:"webhookTimestamp"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return 0, goerr.Wrap(err, "signed body is not a JSON object")
	}

	raw := bytes.TrimSpace(envelope.WebhookTimestamp)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, goerr.New("signed body has no webhookTimestamp")
	}
	return model.ParseUnixMilli(string(raw))
}

// Verifier holds the shared secret and verification policy of the process
type Verifier struct {
	secret   string
	disabled bool
	window   time.Duration
	now      func() time.Time
	warnOnce sync.Once
}

// Option configures a Verifier
type Option func(*Verifier)

// WithWindow sets the freshness window
func WithWindow(window time.Duration) Option {
	return func(v *Verifier) {
		v.window = window
	}
}

// WithDisabled turns verification off. Every request passes.
func WithDisabled(disabled bool) Option {
	return func(v *Verifier) {
		v.disabled = disabled
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(v *Verifier) {
		v.now = now
	}
}

// NewVerifier creates a Verifier
func NewVerifier(secret string, opts ...Option) *Verifier {
	v := &Verifier{
		secret: secret,
		window: DefaultWindow,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Degraded returns true if every request passes verification
func (v *Verifier) Degraded() bool {
	return v.secret == "" || v.disabled
}

// Verify authenticates body with the raw signature header value. Both the header
// timestamp and the webhookTimestamp of the signed body must be inside the window.
func (v *Verifier) Verify(ctx context.Context, body []byte, header string) bool {
	if v.Degraded() {
		v.warnOnce.Do(func() {
			ctxlog.From(ctx).Warn("SIGNATURE VERIFICATION IS DISABLED: inbound events are accepted without authentication",
				slog.Bool("secret_configured", v.secret != ""),
				slog.Bool("disabled", v.disabled),
			)
		})
		return true
	}

	ts, digest, err := ParseHeader(header)
	if err != nil {
		ctxlog.From(ctx).Debug("Malformed signature header", slog.Any("error", err))
		return false
	}

	now := v.now()
	if !Verify(body, digest, v.secret, ts, now, v.window) {
		return false
	}

	signedAt, err := SignedTimestamp(body)
	if err != nil {
		ctxlog.From(ctx).Warn("Signed body carries no usable webhookTimestamp", slog.Any("error", err))
		return false
	}
	if !fresh(signedAt, now, v.window) {
		ctxlog.From(ctx).Warn("Signed webhookTimestamp is outside the freshness window",
			slog.Int64("webhook_timestamp", signedAt),
			slog.Int64("header_timestamp", ts),
		)
		return false
	}
	return true
}
