package sink

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/m-mizutani/courier/pkg/domain/model"
)

// Rate limit headers reported by the sink
const (
	HeaderLimit      = "X-RateLimit-Limit"
	HeaderRemaining  = "X-RateLimit-Remaining"
	HeaderReset      = "X-RateLimit-Reset"
	HeaderResetAfter = "X-RateLimit-Reset-After"
	HeaderBucket     = "X-RateLimit-Bucket"
	HeaderRetryAfter = "Retry-After"
)

// ParseRateLimit reads the quota headers of a sink response. The second return value
// is false when the response carried none of them.
func ParseRateLimit(h http.Header, now time.Time) (model.RateLimitState, bool) {
	var (
		state model.RateLimitState
		found bool
	)

	if n, ok := parseInt(h.Get(HeaderLimit)); ok {
		state.Limit, found = n, true
	}
	if n, ok := parseInt(h.Get(HeaderRemaining)); ok {
		state.Remaining, found = n, true
	}

	if secs, ok := parseSeconds(h.Get(HeaderResetAfter)); ok {
		state.ResetAt, found = now.Add(secs), true
	} else if epoch, ok := parseFloat(h.Get(HeaderReset)); ok {
		state.ResetAt, found = time.UnixMilli(int64(math.Round(epoch*1000))), true
	}

	if bucket := strings.TrimSpace(h.Get(HeaderBucket)); bucket != "" {
		state.Bucket, found = bucket, true
	}

	if found {
		state.ObservedAt = now
	}
	return state, found
}

// ParseRetryAfter returns how long the sink asked us to wait. The Retry-After header
// wins over the "retry_after" field of a JSON body. Zero means no instruction.
func ParseRetryAfter(h http.Header, body []byte, now time.Time) time.Duration {
	if v := strings.TrimSpace(h.Get(HeaderRetryAfter)); v != "" {
		if d, ok := parseSeconds(v); ok {
			return d
		}
		if at, err := http.ParseTime(v); err == nil {
			if d := at.Sub(now); d > 0 {
				return d
			}
			return 0
		}
	}

	var resp struct {
		RetryAfter *float64 `json:"retry_after"`
	}
	if len(body) > 0 && json.Unmarshal(body, &resp) == nil && resp.RetryAfter != nil && *resp.RetryAfter > 0 {
		return time.Duration(*resp.RetryAfter * float64(time.Second))
	}
	return 0
}

func parseInt(v string) (int, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func parseFloat(v string) (float64, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseSeconds(v string) (time.Duration, bool) {
	f, ok := parseFloat(v)
	if !ok || f < 0 {
		return 0, false
	}
	return time.Duration(f * float64(time.Second)), true
}
