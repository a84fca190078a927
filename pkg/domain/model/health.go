package model

// HealthStatus represents the health check status
type HealthStatus struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// DetailedHealth is served by the debug-gated health endpoint
type DetailedHealth struct {
	HealthStatus
	UptimeSeconds int64          `json:"uptime_seconds"`
	SinkRateLimit RateLimitState `json:"sink_rate_limit"`
}

// RelayResult reports what happened to one relayed event
type RelayResult struct {
	DeliveryID string `json:"delivery_id"`
	EntityType string `json:"entity_type"`
	Action     string `json:"action"`
	Attempts   int    `json:"attempts"`
}
