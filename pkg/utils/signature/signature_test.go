package signature_test

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/courier/pkg/utils/signature"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/gt"
)

func eventBody(signedAt time.Time) []byte {
	return fmt.Appendf(nil, `{"action":"create","type":"Issue","webhookTimestamp":%d,"data":{"id":"1"}}`, signedAt.UnixMilli())
}

func TestSignVerifyRoundTrip(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	bodies := [][]byte{
		eventBody(now),
		fmt.Appendf(nil, `{"webhookTimestamp":%d,"data":{"title":"日本語 payload"}}`, now.UnixMilli()),
		fmt.Appendf(nil, `{"webhookTimestamp":%d}`, now.UnixMilli()),
	}
	secrets := []string{"s3cr3t", "another-secret-value"}

	for _, body := range bodies {
		for _, secret := range secrets {
			header := signature.Sign(body, secret, now.UnixMilli())
			v := signature.NewVerifier(secret, signature.WithClock(func() time.Time { return now.Add(10 * time.Second) }))
			gt.True(t, v.Verify(context.Background(), body, header))
		}
	}
}

func TestVerify_TamperedBody(t *testing.T) {
	now := time.Now()
	body := eventBody(now)
	header := signature.Sign(body, "secret", now.UnixMilli())
	v := signature.NewVerifier("secret")
	gt.True(t, v.Verify(context.Background(), body, header))

	for i := range body {
		tampered := bytes.Clone(body)
		tampered[i] ^= 0x01
		gt.False(t, v.Verify(context.Background(), tampered, header))
	}
}

func TestVerify_Window(t *testing.T) {
	signedAt := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	body := eventBody(signedAt)
	header := signature.Sign(body, "secret", signedAt.UnixMilli())

	tests := []struct {
		name   string
		now    time.Time
		window time.Duration
		want   bool
	}{
		{name: "fresh", now: signedAt.Add(59 * time.Second), window: time.Minute, want: true},
		{name: "boundary", now: signedAt.Add(time.Minute), window: time.Minute, want: true},
		{name: "expired", now: signedAt.Add(61 * time.Second), window: time.Minute, want: false},
		{name: "from the future", now: signedAt.Add(-2 * time.Minute), window: time.Minute, want: false},
		{name: "custom window", now: signedAt.Add(4 * time.Minute), window: 5 * time.Minute, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := tt.now
			v := signature.NewVerifier("secret",
				signature.WithWindow(tt.window),
				signature.WithClock(func() time.Time { return now }),
			)
			gt.Equal(t, v.Verify(context.Background(), body, header), tt.want)
		})
	}
}

func TestVerify_ReplayWithRewrittenHeaderTimestamp(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	signedAt := now.Add(-time.Hour)
	body := eventBody(signedAt)

	ts, digest, err := signature.ParseHeader(signature.Sign(body, "secret", signedAt.UnixMilli()))
	gt.NoError(t, err)
	gt.Equal(t, ts, signedAt.UnixMilli())

	v := signature.NewVerifier("secret", signature.WithClock(func() time.Time { return now }))

	captured := fmt.Sprintf("t=%d,v1=%s", signedAt.UnixMilli(), digest)
	gt.False(t, v.Verify(context.Background(), body, captured))

	rewritten := fmt.Sprintf("t=%d,v1=%s", now.UnixMilli(), digest)
	gt.False(t, v.Verify(context.Background(), body, rewritten))
}

func TestVerify_SignedTimestampRequired(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	v := signature.NewVerifier("secret", signature.WithClock(func() time.Time { return now }))

	bodies := map[string][]byte{
		"missing":    []byte(`{"action":"create","type":"Issue","data":{"id":"1"}}`),
		"null":       []byte(`{"webhookTimestamp":null}`),
		"string":     fmt.Appendf(nil, `{"webhookTimestamp":"%d"}`, now.UnixMilli()),
		"not json":   []byte("raw payload"),
		"empty body": []byte(``),
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			gt.False(t, v.Verify(context.Background(), body, signature.Sign(body, "secret", now.UnixMilli())))
		})
	}

	t.Run("exponent notation", func(t *testing.T) {
		body := []byte(`{"webhookTimestamp":1.7924148e12}`)
		at := time.UnixMilli(1792414800000)
		v := signature.NewVerifier("secret", signature.WithClock(func() time.Time { return at }))
		gt.True(t, v.Verify(context.Background(), body, signature.Sign(body, "secret", at.UnixMilli())))
	})
}

func TestSignedTimestamp(t *testing.T) {
	ts, err := signature.SignedTimestamp([]byte(`{"webhookTimestamp":1792404000000}`))
	gt.NoError(t, err)
	gt.Equal(t, ts, int64(1792404000000))

	_, err = signature.SignedTimestamp([]byte(`{}`))
	gt.Error(t, err)
}

func TestVerify_MalformedHeader(t *testing.T) {
	now := time.Now()
	body := eventBody(now)
	digest := signature.Compute(body, "secret")

	headers := []string{
		"",
		"v1=" + digest,
		"t=abc,v1=" + digest,
		"t=1,v1=" + digest + ",v2=x",
		"t,v1",
		"x=1,v1=" + digest,
		"t=" + now.Format(time.RFC3339) + ",v1=" + digest,
		"t=1,v1=",
	}

	v := signature.NewVerifier("secret")
	for _, h := range headers {
		t.Run(h, func(t *testing.T) {
			gt.False(t, v.Verify(context.Background(), body, h))
		})
	}

	t.Run("valid reference", func(t *testing.T) {
		gt.True(t, v.Verify(context.Background(), body, signature.Sign(body, "secret", now.UnixMilli())))
	})
}

func TestVerify_DigestMismatch(t *testing.T) {
	now := time.Now()
	body := []byte(`{}`)

	gt.False(t, signature.Verify(body, "abcd", "secret", now.UnixMilli(), now, time.Minute))
	gt.False(t, signature.Verify(body, signature.Compute(body, "other"), "secret", now.UnixMilli(), now, time.Minute))
	gt.True(t, signature.Verify(body, strings.ToUpper(signature.Compute(body, "secret")), "secret", now.UnixMilli(), now, time.Minute))
}

func TestParseHeader(t *testing.T) {
	ts, digest, err := signature.ParseHeader("v1=deadbeef, t=1700000000000")
	gt.NoError(t, err)
	gt.Equal(t, ts, int64(1700000000000))
	gt.Equal(t, digest, "deadbeef")
}

func TestVerifier_Degraded(t *testing.T) {
	var buf bytes.Buffer
	ctx := ctxlog.With(context.Background(), slog.New(slog.NewTextHandler(&buf, nil)))

	t.Run("empty secret passes and warns once", func(t *testing.T) {
		v := signature.NewVerifier("")
		gt.True(t, v.Degraded())
		gt.True(t, v.Verify(ctx, []byte("x"), ""))
		gt.True(t, v.Verify(ctx, []byte("y"), "garbage"))
		gt.Equal(t, strings.Count(buf.String(), "SIGNATURE VERIFICATION IS DISABLED"), 1)
	})

	t.Run("administratively disabled", func(t *testing.T) {
		v := signature.NewVerifier("secret", signature.WithDisabled(true))
		gt.True(t, v.Verify(ctx, []byte("x"), "t=1,v1=00"))
	})
}
