package model

import "time"

// RateLimitState is the most recently observed sink quota. It is advisory pacing data;
// the sink's live response always wins.
type RateLimitState struct {
	Limit      int       `json:"limit"`
	Remaining  int       `json:"remaining"`
	ResetAt    time.Time `json:"reset_at"`
	Bucket     string    `json:"bucket,omitempty"`
	ObservedAt time.Time `json:"observed_at"`
}

// Known returns true if any quota information has been observed
func (s RateLimitState) Known() bool {
	return !s.ObservedAt.IsZero()
}

// DeliveryResult describes a message the sink accepted
type DeliveryResult struct {
	Attempts   int
	StatusCode int
}
