package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/m-mizutani/courier/pkg/utils/signature"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdSign() *cli.Command {
	var (
		secret    string
		timestamp int64
	)

	return &cli.Command{
		Name:      "sign",
		Usage:     "Print the signature header value for an event body",
		ArgsUsage: "[FILE]  (reads stdin when omitted or \"-\")",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "source-secret",
				Usage:       "Shared secret used to sign the body",
				Required:    true,
				Destination: &secret,
				Sources:     cli.EnvVars("COURIER_SOURCE_SECRET"),
			},
			&cli.Int64Flag{
				Name:        "timestamp",
				Usage:       "Signing time in unix milliseconds (default: the body's webhookTimestamp, or now)",
				Destination: &timestamp,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			body, err := readInput(c.Args().First())
			if err != nil {
				return err
			}

			if timestamp == 0 {
				if signedAt, err := signature.SignedTimestamp(body); err == nil {
					timestamp = signedAt
				} else {
					timestamp = time.Now().UnixMilli()
				}
			}

			_, err = fmt.Fprintln(c.Root().Writer, signature.Sign(body, secret, timestamp))
			return err
		},
	}
}

func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		body, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read stdin")
		}
		return body, nil
	}

	body, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read input file", goerr.V("path", path))
	}
	return body, nil
}
