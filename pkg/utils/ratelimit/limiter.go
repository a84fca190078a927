// Package ratelimit bounds the inbound request rate per client with a sliding window.
package ratelimit

import (
	"sync"
	"time"
)

// Decision is the outcome of one Allow call
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	// ResetAt is when the oldest request in the window expires
	ResetAt time.Time
	// RetryAfter is set when the request was rejected
	RetryAfter time.Duration
}

type window struct {
	mu         sync.Mutex
	timestamps []time.Time
	lastSeen   time.Time
	// inflight counts Allow calls holding this window; sweeps skip it while non-zero
	inflight int
}

// Limiter is a sliding window counter keyed by client identity
type Limiter struct {
	limit  int
	period time.Duration
	now    func() time.Time

	mu      sync.Mutex
	clients map[string]*window
	calls   int
}

// Option configures a Limiter
type Option func(*Limiter)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// New creates a limiter that accepts at most limit requests per period and client.
// A limit of 0 or less disables limiting.
func New(limit int, period time.Duration, opts ...Option) *Limiter {
	l := &Limiter{
		limit:   limit,
		period:  period,
		now:     time.Now,
		clients: make(map[string]*window),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// sweepEvery is how many Allow calls happen between sweeps of idle clients
const sweepEvery = 1024

func (l *Limiter) client(key string, now time.Time) *window {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.calls++
	if l.calls%sweepEvery == 0 {
		l.sweepLocked(now)
	}

	w, ok := l.clients[key]
	if !ok {
		w = &window{}
		l.clients[key] = w
	}

	w.mu.Lock()
	w.inflight++
	w.lastSeen = now
	w.mu.Unlock()
	return w
}

// Allow records a request of client key and reports whether it is within the limit
func (l *Limiter) Allow(key string) Decision {
	if l.limit <= 0 {
		return Decision{Allowed: true, Limit: l.limit}
	}

	now := l.now()
	return l.allow(l.client(key, now), now)
}

func (l *Limiter) allow(w *window, now time.Time) Decision {
	w.mu.Lock()
	defer func() {
		w.inflight--
		w.mu.Unlock()
	}()

	cutoff := now.Add(-l.period)
	kept := w.timestamps[:0]
	for _, ts := range w.timestamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	w.timestamps = kept
	w.lastSeen = now

	if len(w.timestamps) >= l.limit {
		resetAt := w.timestamps[0].Add(l.period)
		return Decision{
			Allowed:    false,
			Limit:      l.limit,
			Remaining:  0,
			ResetAt:    resetAt,
			RetryAfter: resetAt.Sub(now),
		}
	}

	w.timestamps = append(w.timestamps, now)
	return Decision{
		Allowed:   true,
		Limit:     l.limit,
		Remaining: l.limit - len(w.timestamps),
		ResetAt:   w.timestamps[0].Add(l.period),
	}
}

// Sweep removes clients that have been idle for longer than the window
func (l *Limiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sweepLocked(l.now())
}

func (l *Limiter) sweepLocked(now time.Time) {
	cutoff := now.Add(-l.period)
	for key, w := range l.clients {
		w.mu.Lock()
		idle := w.inflight == 0 && !w.lastSeen.After(cutoff)
		w.mu.Unlock()
		if idle {
			delete(l.clients, key)
		}
	}
}

// Len returns the number of tracked clients
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}
