package sink

import "time"

// MaxBackoff caps the computed retry delay. It does not cap a sink-provided Retry-After.
const MaxBackoff = 30 * time.Second

const jitterRatio = 0.25

// Backoff returns the delay before retry number attempt (1-based) given a base delay and
// a jitter factor in [-1, 1]. The result is base*2^(attempt-1) varied by up to 25%,
// never below base and never above MaxBackoff.
func Backoff(attempt int, base time.Duration, jitter float64) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if jitter < -1 {
		jitter = -1
	} else if jitter > 1 {
		jitter = 1
	}

	d := float64(base)
	for i := 1; i < attempt && d < float64(MaxBackoff); i++ {
		d *= 2
	}
	d += d * jitterRatio * jitter

	delay := time.Duration(d)
	if delay < base {
		delay = base
	}
	if delay > MaxBackoff {
		delay = MaxBackoff
	}
	return delay
}
