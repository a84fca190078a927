package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/courier/pkg/cli/config"
	controller "github.com/m-mizutani/courier/pkg/controller/http"
	"github.com/m-mizutani/courier/pkg/usecase"
	"github.com/m-mizutani/courier/pkg/utils/metrics"
	"github.com/m-mizutani/courier/pkg/utils/ratelimit"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var (
		serverCfg config.Server
		sourceCfg config.Source
		sinkCfg   config.Sink
		sentryCfg config.Sentry
	)

	var flags []cli.Flag
	flags = append(flags, serverCfg.Flags()...)
	flags = append(flags, sourceCfg.Flags()...)
	flags = append(flags, sinkCfg.Flags()...)
	flags = append(flags, sentryCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)
			startedAt := time.Now()

			if err := sinkCfg.Validate(); err != nil {
				return err
			}
			if err := sentryCfg.Configure(); err != nil {
				return err
			}
			defer sentryCfg.Flush()

			logger.Info("Starting courier server",
				slog.String("addr", serverCfg.Addr),
				slog.Any("server", serverCfg),
				slog.Any("source", sourceCfg),
				slog.Any("sink", sinkCfg),
			)

			m := metrics.New()
			verifier := sourceCfg.Verifier()
			if verifier.Degraded() {
				logger.Warn("Signature verification is disabled; every inbound request will be accepted")
			}

			// Create use cases
			relayUC, err := usecase.NewRelay(
				sinkCfg.Client(m),
				sinkCfg.WebhookURL,
				usecase.WithTransformer(sinkCfg.EmbedFactory()),
				usecase.WithMetrics(m),
			)
			if err != nil {
				return goerr.Wrap(err, "failed to create relay use case")
			}

			opts := []controller.Option{
				controller.WithAddr(serverCfg.Addr),
				controller.WithEnvironment(serverCfg.Environment()),
				controller.WithVerifier(verifier),
				controller.WithMaxBodyBytes(serverCfg.MaxBodyBytes),
				controller.WithRequestTimeout(serverCfg.RequestTimeout),
				controller.WithDebugEndpoints(serverCfg.DebugEndpoints),
				controller.WithTrustProxyHeaders(serverCfg.TrustProxy),
				controller.WithMetrics(m),
				controller.WithConfigView(config.View(&serverCfg, &sourceCfg, &sinkCfg, &sentryCfg)),
				controller.WithStartedAt(startedAt),
			}
			if serverCfg.IngressLimit > 0 {
				opts = append(opts, controller.WithIngressLimiter(
					ratelimit.New(serverCfg.IngressLimit, serverCfg.IngressWindow),
				))
			}

			// Create HTTP server with options
			server, err := controller.NewServer(ctx, relayUC, opts...)
			if err != nil {
				return goerr.Wrap(err, "failed to create HTTP server")
			}

			// Start server in goroutine
			go func() {
				logger.Info("HTTP server starting", slog.String("addr", serverCfg.Addr))
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("HTTP server error", slog.Any("error", err))
				}
			}()

			// Wait for interrupt signal
			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			select {
			case <-ctx.Done():
				logger.Info("Context cancelled, shutting down...")
			case sig := <-sigChan:
				logger.Info("Signal received, shutting down...", slog.Any("signal", sig))
			}

			// Graceful shutdown
			shutdownCtx, cancel := context.WithTimeout(context.Background(), serverCfg.RequestTimeout+5*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return goerr.Wrap(err, "failed to shutdown server gracefully")
			}

			logger.Info("Server shutdown complete")
			return nil
		},
	}
}
