package cli

import (
	"context"
	"encoding/json"

	"github.com/m-mizutani/courier/pkg/cli/config"
	"github.com/m-mizutani/courier/pkg/usecase"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdRender() *cli.Command {
	var sinkCfg config.Sink

	return &cli.Command{
		Name:      "render",
		Usage:     "Print the sink payload an event body would produce, without delivering it",
		ArgsUsage: "[FILE]  (reads stdin when omitted or \"-\")",
		Flags:     sinkCfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			body, err := readInput(c.Args().First())
			if err != nil {
				return err
			}

			relayUC, err := usecase.NewRelay(nil, "", usecase.WithTransformer(sinkCfg.EmbedFactory()))
			if err != nil {
				return goerr.Wrap(err, "failed to create relay use case")
			}

			_, msg, err := relayUC.Render(body)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(c.Root().Writer)
			enc.SetIndent("", "  ")
			if err := enc.Encode(sinkCfg.Client(nil).Payload(msg)); err != nil {
				return goerr.Wrap(err, "failed to encode payload")
			}
			return nil
		},
	}
}
