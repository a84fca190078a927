package config

import (
	"time"

	"github.com/m-mizutani/courier/pkg/domain/types"
	"github.com/urfave/cli/v3"
)

// Server holds server configuration
type Server struct {
	Addr           string
	Env            string
	MaxBodyBytes   int64
	RequestTimeout time.Duration
	DebugEndpoints bool
	TrustProxy     bool
	IngressLimit   int
	IngressWindow  time.Duration
}

// Flags returns CLI flags for server configuration
func (c *Server) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "Server address",
			Value:       "localhost:8080",
			Destination: &c.Addr,
			Sources:     cli.EnvVars("COURIER_ADDR"),
		},
		&cli.StringFlag{
			Name:        "env",
			Usage:       "Deployment environment. Error details are returned to clients unless production",
			Value:       string(types.EnvProduction),
			Destination: &c.Env,
			Sources:     cli.EnvVars("COURIER_ENV"),
		},
		&cli.Int64Flag{
			Name:        "max-body-bytes",
			Usage:       "Maximum accepted request body size",
			Value:       1 << 20,
			Destination: &c.MaxBodyBytes,
			Sources:     cli.EnvVars("COURIER_MAX_BODY_BYTES"),
		},
		&cli.DurationFlag{
			Name:        "request-timeout",
			Usage:       "Deadline for processing one inbound event including delivery",
			Value:       30 * time.Second,
			Destination: &c.RequestTimeout,
			Sources:     cli.EnvVars("COURIER_REQUEST_TIMEOUT"),
		},
		&cli.BoolFlag{
			Name:        "debug-endpoints",
			Usage:       "Expose /debug/health, /debug/metrics and /debug/config",
			Destination: &c.DebugEndpoints,
			Sources:     cli.EnvVars("COURIER_DEBUG_ENDPOINTS"),
		},
		&cli.BoolFlag{
			Name:        "trust-proxy-headers",
			Usage:       "Identify clients by X-Forwarded-For/X-Real-IP. Enable only behind a trusted reverse proxy",
			Destination: &c.TrustProxy,
			Sources:     cli.EnvVars("COURIER_TRUST_PROXY_HEADERS"),
		},
		&cli.IntFlag{
			Name:        "ingress-limit",
			Usage:       "Maximum inbound requests per client and window (0 disables)",
			Value:       60,
			Destination: &c.IngressLimit,
			Sources:     cli.EnvVars("COURIER_INGRESS_LIMIT"),
		},
		&cli.DurationFlag{
			Name:        "ingress-window",
			Usage:       "Sliding window of the inbound rate limit",
			Value:       time.Minute,
			Destination: &c.IngressWindow,
			Sources:     cli.EnvVars("COURIER_INGRESS_WINDOW"),
		},
	}
}

// Environment returns the parsed deployment environment
func (c *Server) Environment() types.Environment {
	return types.Environment(c.Env)
}
