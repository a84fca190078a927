package sink_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/m-mizutani/courier/pkg/infra/sink"
	"github.com/m-mizutani/gt"
)

func TestParseRateLimit(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	t.Run("all headers", func(t *testing.T) {
		h := http.Header{}
		h.Set(sink.HeaderLimit, "5")
		h.Set(sink.HeaderRemaining, "0")
		h.Set(sink.HeaderReset, "1790000000.5")
		h.Set(sink.HeaderResetAfter, "2.25")
		h.Set(sink.HeaderBucket, "bucket-1")

		state, ok := sink.ParseRateLimit(h, now)
		gt.True(t, ok)
		gt.Equal(t, state.Limit, 5)
		gt.Equal(t, state.Remaining, 0)
		gt.Equal(t, state.ResetAt, now.Add(2250*time.Millisecond))
		gt.Equal(t, state.Bucket, "bucket-1")
		gt.Equal(t, state.ObservedAt, now)
	})

	t.Run("absolute reset", func(t *testing.T) {
		h := http.Header{}
		h.Set(sink.HeaderRemaining, "3")
		h.Set(sink.HeaderReset, "1790000000.5")

		state, ok := sink.ParseRateLimit(h, now)
		gt.True(t, ok)
		gt.Equal(t, state.ResetAt.UnixMilli(), int64(1790000000500))
	})

	t.Run("no headers", func(t *testing.T) {
		_, ok := sink.ParseRateLimit(http.Header{}, now)
		gt.False(t, ok)
	})

	t.Run("garbage values are ignored", func(t *testing.T) {
		h := http.Header{}
		h.Set(sink.HeaderLimit, "five")
		h.Set(sink.HeaderResetAfter, "-1")
		_, ok := sink.ParseRateLimit(h, now)
		gt.False(t, ok)
	})
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		header string
		body   string
		want   time.Duration
	}{
		{name: "integer seconds", header: "2", want: 2 * time.Second},
		{name: "fractional seconds", header: "0.75", want: 750 * time.Millisecond},
		{name: "http date", header: now.Add(3 * time.Second).Format(http.TimeFormat), want: 3 * time.Second},
		{name: "past http date", header: now.Add(-3 * time.Second).Format(http.TimeFormat), want: 0},
		{name: "body only", body: `{"retry_after":1.5}`, want: 1500 * time.Millisecond},
		{name: "header wins over body", header: "4", body: `{"retry_after":1}`, want: 4 * time.Second},
		{name: "invalid header falls back to body", header: "soon", body: `{"retry_after":1}`, want: time.Second},
		{name: "nothing", want: 0},
		{name: "non json body", body: `rate limited`, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			if tt.header != "" {
				h.Set(sink.HeaderRetryAfter, tt.header)
			}
			gt.Equal(t, sink.ParseRetryAfter(h, []byte(tt.body), now), tt.want)
		})
	}
}
