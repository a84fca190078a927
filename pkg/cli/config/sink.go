package config

import (
	"time"

	"github.com/m-mizutani/courier/pkg/infra/sink"
	"github.com/m-mizutani/courier/pkg/usecase/embed"
	"github.com/m-mizutani/courier/pkg/utils/metrics"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Sink holds configuration of the chat webhook
type Sink struct {
	WebhookURL  string `masq:"secret"`
	Username    string
	AvatarURL   string
	LinkBase    string
	MaxAttempts int
	BaseDelay   time.Duration
	MinInterval time.Duration
}

// Flags returns CLI flags for sink configuration
func (c *Sink) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "sink-webhook-url",
			Usage:       "Chat webhook URL messages are delivered to",
			Destination: &c.WebhookURL,
			Sources:     cli.EnvVars("COURIER_SINK_WEBHOOK_URL"),
		},
		&cli.StringFlag{
			Name:        "sink-username",
			Usage:       "Display name of relayed messages",
			Value:       "courier",
			Destination: &c.Username,
			Sources:     cli.EnvVars("COURIER_SINK_USERNAME"),
		},
		&cli.StringFlag{
			Name:        "sink-avatar-url",
			Usage:       "Avatar image URL of relayed messages",
			Destination: &c.AvatarURL,
			Sources:     cli.EnvVars("COURIER_SINK_AVATAR_URL"),
		},
		&cli.StringFlag{
			Name:        "link-base",
			Usage:       "Base URL for entity links when an event carries none",
			Value:       embed.DefaultLinkBase,
			Destination: &c.LinkBase,
			Sources:     cli.EnvVars("COURIER_LINK_BASE"),
		},
		&cli.IntFlag{
			Name:        "sink-max-attempts",
			Usage:       "Delivery attempts per message including the first",
			Value:       sink.DefaultMaxAttempts,
			Destination: &c.MaxAttempts,
			Sources:     cli.EnvVars("COURIER_SINK_MAX_ATTEMPTS"),
		},
		&cli.DurationFlag{
			Name:        "sink-base-delay",
			Usage:       "First retry delay, doubled on each retry",
			Value:       sink.DefaultBaseDelay,
			Destination: &c.BaseDelay,
			Sources:     cli.EnvVars("COURIER_SINK_BASE_DELAY"),
		},
		&cli.DurationFlag{
			Name:        "sink-min-interval",
			Usage:       "Minimum spacing between two requests to the sink",
			Value:       sink.DefaultMinInterval,
			Destination: &c.MinInterval,
			Sources:     cli.EnvVars("COURIER_SINK_MIN_INTERVAL"),
		},
	}
}

// Validate checks settings required for delivery
func (c *Sink) Validate() error {
	if c.WebhookURL == "" {
		return goerr.New("sink webhook URL is required")
	}
	if c.MaxAttempts < 1 {
		return goerr.New("sink max attempts must be positive", goerr.V("max_attempts", c.MaxAttempts))
	}
	return nil
}

// Client builds the delivery client
func (c *Sink) Client(m *metrics.Metrics) *sink.Client {
	return sink.New(
		sink.WithIdentity(c.Username, c.AvatarURL),
		sink.WithMaxAttempts(c.MaxAttempts),
		sink.WithBaseDelay(c.BaseDelay),
		sink.WithMinInterval(c.MinInterval),
		sink.WithMetrics(m),
	)
}

// EmbedFactory builds the entity transformer
func (c *Sink) EmbedFactory() *embed.Factory {
	return embed.New(embed.WithLinkBase(c.LinkBase))
}
