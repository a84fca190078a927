package sink_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/m-mizutani/courier/pkg/domain/interfaces"
	"github.com/m-mizutani/courier/pkg/domain/model"
	"github.com/m-mizutani/courier/pkg/domain/types"
	"github.com/m-mizutani/courier/pkg/infra/sink"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
)

var _ interfaces.Sink = (*sink.Client)(nil)

type fakeClock struct {
	mu    sync.Mutex
	now   time.Time
	slept []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
	f.slept = append(f.slept, d)
	return nil
}

func (f *fakeClock) Slept() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.slept)
}

func newFakeClient(clock *fakeClock, opts ...sink.Option) *sink.Client {
	base := []sink.Option{
		sink.WithClock(clock.Now),
		sink.WithSleep(clock.Sleep),
		sink.WithJitter(func() float64 { return 0 }),
	}
	return sink.New(append(base, opts...)...)
}

// statusSequence answers with the given status codes in order, repeating the last one
func statusSequence(t *testing.T, codes ...int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(calls.Add(1))
		code := codes[min(n, len(codes))-1]
		w.WriteHeader(code)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

var testMessage = model.Message{
	Content: "Alice created issue ENG-1: Fix login",
	Embeds: []model.Embed{
		{Title: "New issue: ENG-1 Fix login", Color: model.ColorSuccess},
	},
}

func TestSend_Success(t *testing.T) {
	var got map[string]any
	var contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)

		w.Header().Set(sink.HeaderLimit, "5")
		w.Header().Set(sink.HeaderRemaining, "4")
		w.Header().Set(sink.HeaderResetAfter, "1.5")
		w.Header().Set(sink.HeaderBucket, "abc")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	clock := newFakeClock()
	client := newFakeClient(clock, sink.WithIdentity("courier", "https://example.com/avatar.png"))

	result, err := client.Send(context.Background(), srv.URL, testMessage)
	gt.NoError(t, err)
	gt.Equal(t, result.Attempts, 1)
	gt.Equal(t, result.StatusCode, http.StatusNoContent)

	gt.Equal(t, contentType, "application/json")
	gt.Equal(t, got["username"], "courier")
	gt.Equal(t, got["avatar_url"], "https://example.com/avatar.png")
	gt.Equal(t, got["content"], "Alice created issue ENG-1: Fix login")
	embeds, ok := got["embeds"].([]any)
	gt.True(t, ok)
	gt.A(t, embeds).Length(1)

	state := client.State()
	gt.True(t, state.Known())
	gt.Equal(t, state.Limit, 5)
	gt.Equal(t, state.Remaining, 4)
	gt.Equal(t, state.Bucket, "abc")
	gt.Equal(t, state.ResetAt, clock.Now().Add(1500*time.Millisecond))
}

func TestSend_RateLimitedThenSuccess(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set(sink.HeaderRetryAfter, "2")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"message":"You are being rate limited.","retry_after":2,"global":false}`))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := sink.New()

	started := time.Now()
	result, err := client.Send(context.Background(), srv.URL, testMessage)
	elapsed := time.Since(started)

	gt.NoError(t, err)
	gt.Equal(t, result.Attempts, 2)
	gt.Equal(t, calls.Load(), int32(2))
	gt.True(t, elapsed >= 2*time.Second)
}

func TestSend_RetryAfterFromBody(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"retry_after":0.5}`))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	clock := newFakeClock()
	client := newFakeClient(clock)

	_, err := client.Send(context.Background(), srv.URL, testMessage)
	gt.NoError(t, err)
	gt.Equal(t, clock.Slept(), []time.Duration{750 * time.Millisecond})
}

func TestSend_ServerErrorRetries(t *testing.T) {
	srv, calls := statusSequence(t, 500, 502, 200)
	clock := newFakeClock()
	client := newFakeClient(clock)

	result, err := client.Send(context.Background(), srv.URL, testMessage)
	gt.NoError(t, err)
	gt.Equal(t, result.Attempts, 3)
	gt.Equal(t, calls.Load(), int32(3))
	gt.Equal(t, clock.Slept(), []time.Duration{time.Second, 2 * time.Second})
}

func TestSend_FatalClientError(t *testing.T) {
	for _, code := range []int{400, 401, 403, 404, 413} {
		srv, calls := statusSequence(t, code)
		client := newFakeClient(newFakeClock())

		_, err := client.Send(context.Background(), srv.URL, testMessage)
		gt.Error(t, err)
		gt.Equal(t, calls.Load(), int32(1))
		gt.True(t, goerr.HasTag(err, types.ErrTagDeliveryFatal))
		gt.True(t, goerr.HasTag(err, types.ErrTagDelivery))

		var derr *sink.DeliveryError
		gt.True(t, errors.As(err, &derr))
		gt.Equal(t, derr.StatusCode, code)
		gt.False(t, derr.Retryable)
	}
}

func TestSend_Exhausted(t *testing.T) {
	srv, calls := statusSequence(t, http.StatusServiceUnavailable)
	client := newFakeClient(newFakeClock(), sink.WithMaxAttempts(4))

	_, err := client.Send(context.Background(), srv.URL, testMessage)
	gt.Error(t, err)
	gt.Equal(t, calls.Load(), int32(4))
	gt.True(t, strings.Contains(err.Error(), "after 4 attempts"))
	gt.True(t, strings.Contains(err.Error(), "503"))
	gt.True(t, goerr.HasTag(err, types.ErrTagDelivery))
	gt.False(t, goerr.HasTag(err, types.ErrTagDeliveryFatal))
}

func TestSend_TransportErrorIsRetried(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	clock := newFakeClock()
	client := newFakeClient(clock)

	_, err := client.Send(context.Background(), url, testMessage)
	gt.Error(t, err)
	gt.True(t, strings.Contains(err.Error(), "after 3 attempts"))
	gt.Equal(t, clock.Slept(), []time.Duration{time.Second, 2 * time.Second})
}

func TestSend_ContextCancelled(t *testing.T) {
	srv, calls := statusSequence(t, http.StatusOK)
	client := newFakeClient(newFakeClock())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Send(ctx, srv.URL, testMessage)
	gt.Error(t, err)
	gt.True(t, errors.Is(err, context.Canceled))
	gt.Equal(t, calls.Load(), int32(0))
}

func TestSend_WaitsForQuotaReset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(sink.HeaderLimit, "5")
		w.Header().Set(sink.HeaderRemaining, "0")
		w.Header().Set(sink.HeaderResetAfter, "5")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	clock := newFakeClock()
	client := newFakeClient(clock)

	_, err := client.Send(context.Background(), srv.URL, testMessage)
	gt.NoError(t, err)
	gt.A(t, clock.Slept()).Length(0)

	_, err = client.Send(context.Background(), srv.URL, testMessage)
	gt.NoError(t, err)
	gt.Equal(t, clock.Slept(), []time.Duration{5*time.Second + 250*time.Millisecond})
}

func TestSend_MinInterval(t *testing.T) {
	srv, _ := statusSequence(t, http.StatusOK)
	clock := newFakeClock()
	client := newFakeClient(clock)

	for range 3 {
		_, err := client.Send(context.Background(), srv.URL, testMessage)
		gt.NoError(t, err)
	}
	gt.Equal(t, clock.Slept(), []time.Duration{250 * time.Millisecond, 250 * time.Millisecond})
}

func TestSend_ConcurrentSendersGetDistinctSlots(t *testing.T) {
	srv, calls := statusSequence(t, http.StatusOK)

	const interval = 100 * time.Millisecond
	var (
		mu    sync.Mutex
		slots []time.Time
	)
	sleep := func(ctx context.Context, d time.Duration) error {
		mu.Lock()
		slots = append(slots, time.Now().Add(d))
		mu.Unlock()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d):
			return nil
		}
	}
	client := sink.New(sink.WithMinInterval(interval), sink.WithSleep(sleep))

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.Send(context.Background(), srv.URL, testMessage)
			gt.NoError(t, err)
		}()
	}
	wg.Wait()

	gt.Equal(t, calls.Load(), int32(5))
	gt.A(t, slots).Length(5)
	slices.SortFunc(slots, func(a, b time.Time) int { return a.Compare(b) })
	for i := 1; i < len(slots); i++ {
		gt.True(t, slots[i].Sub(slots[i-1]) >= interval-10*time.Millisecond)
	}
}

func TestSend_RetryAfterOverridesBackoff(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			w.WriteHeader(http.StatusBadGateway)
		case 2:
			w.Header().Set(sink.HeaderRetryAfter, "5")
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	clock := newFakeClock()
	client := newFakeClient(clock)

	result, err := client.Send(context.Background(), srv.URL, testMessage)
	gt.NoError(t, err)
	gt.Equal(t, result.Attempts, 3)
	gt.Equal(t, clock.Slept(), []time.Duration{time.Second, 5*time.Second + 250*time.Millisecond})
}
