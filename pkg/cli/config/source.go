package config

import (
	"time"

	"github.com/m-mizutani/courier/pkg/utils/signature"
	"github.com/urfave/cli/v3"
)

// Source holds configuration of the event source
type Source struct {
	Secret              string `masq:"secret"`
	DisableVerification bool
	TimeWindow          time.Duration
}

// Flags returns CLI flags for source configuration
func (c *Source) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "source-secret",
			Usage:       "Shared secret used to verify event signatures",
			Destination: &c.Secret,
			Sources:     cli.EnvVars("COURIER_SOURCE_SECRET"),
		},
		&cli.BoolFlag{
			Name:        "disable-signature-verification",
			Usage:       "Accept unsigned events. Never use in production",
			Destination: &c.DisableVerification,
			Sources:     cli.EnvVars("COURIER_DISABLE_SIGNATURE_VERIFICATION"),
		},
		&cli.DurationFlag{
			Name:        "signature-window",
			Usage:       "Maximum age of a signed timestamp",
			Value:       signature.DefaultWindow,
			Destination: &c.TimeWindow,
			Sources:     cli.EnvVars("COURIER_SIGNATURE_WINDOW"),
		},
	}
}

// Verifier builds the signature verifier
func (c *Source) Verifier() *signature.Verifier {
	return signature.NewVerifier(c.Secret,
		signature.WithWindow(c.TimeWindow),
		signature.WithDisabled(c.DisableVerification),
	)
}
