package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/m-mizutani/courier/pkg/domain/interfaces"
	"github.com/m-mizutani/courier/pkg/domain/model"
	"github.com/m-mizutani/courier/pkg/domain/types"
	"github.com/m-mizutani/courier/pkg/usecase/compactor"
	"github.com/m-mizutani/courier/pkg/usecase/decoder"
	"github.com/m-mizutani/courier/pkg/usecase/embed"
	"github.com/m-mizutani/courier/pkg/utils/metrics"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
)

type relayUseCase struct {
	decoder     *decoder.Decoder
	transformer interfaces.Transformer
	compactor   *compactor.Compactor
	sink        interfaces.Sink
	destination string
	metrics     *metrics.Metrics
}

// RelayOption configures the relay use case
type RelayOption func(*relayUseCase)

// WithDecoder replaces the default payload decoder
func WithDecoder(d *decoder.Decoder) RelayOption {
	return func(uc *relayUseCase) {
		uc.decoder = d
	}
}

// WithTransformer replaces the default embed factory
func WithTransformer(t interfaces.Transformer) RelayOption {
	return func(uc *relayUseCase) {
		uc.transformer = t
	}
}

// WithCompactor replaces the default compactor
func WithCompactor(c *compactor.Compactor) RelayOption {
	return func(uc *relayUseCase) {
		uc.compactor = c
	}
}

// WithMetrics records event outcomes
func WithMetrics(m *metrics.Metrics) RelayOption {
	return func(uc *relayUseCase) {
		uc.metrics = m
	}
}

// NewRelay creates a new instance of RelayUseCase. sink may be nil when the use case is
// only used for offline rendering.
func NewRelay(sink interfaces.Sink, destination string, opts ...RelayOption) (*relayUseCase, error) {
	uc := &relayUseCase{
		transformer: embed.New(),
		compactor:   compactor.New(compactor.DefaultLimits),
		sink:        sink,
		destination: destination,
	}
	for _, opt := range opts {
		opt(uc)
	}

	if uc.decoder == nil {
		d, err := decoder.New()
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create payload decoder")
		}
		uc.decoder = d
	}

	return uc, nil
}

// ProcessEvent decodes the raw body, builds and compacts the message, and delivers it
func (uc *relayUseCase) ProcessEvent(ctx context.Context, raw []byte) (*model.RelayResult, error) {
	env, err := uc.decoder.Decode(raw)
	if err != nil {
		uc.metrics.ObserveEvent("unknown", "unknown", "rejected")
		return nil, err
	}

	logger := ctxlog.From(ctx).With(
		slog.String("delivery_id", env.DeliveryID),
		slog.String("entity_type", env.TypeName()),
		slog.String("action", string(env.Action)),
	)
	ctx = ctxlog.With(ctx, logger)

	logger.Info("Relaying event",
		"organization_id", env.OrganizationID,
		"actor", env.Actor.DisplayName(),
	)

	msg, err := uc.render(env)
	if err != nil {
		uc.metrics.ObserveEvent(env.TypeName(), string(env.Action), "failed")
		return nil, err
	}

	if uc.sink == nil {
		return nil, goerr.New("no sink configured", goerr.T(types.ErrTagDelivery))
	}

	sent, err := uc.sink.Send(ctx, uc.destination, msg)
	if err != nil {
		uc.metrics.ObserveEvent(env.TypeName(), string(env.Action), "undelivered")
		return nil, goerr.Wrap(err, "failed to deliver event",
			goerr.V("delivery_id", env.DeliveryID),
			goerr.V("entity_type", env.TypeName()),
			goerr.V("action", env.Action),
		)
	}

	uc.metrics.ObserveEvent(env.TypeName(), string(env.Action), "delivered")
	logger.Info("Event relayed", "attempts", sent.Attempts)

	return &model.RelayResult{
		DeliveryID: env.DeliveryID,
		EntityType: env.TypeName(),
		Action:     string(env.Action),
		Attempts:   sent.Attempts,
	}, nil
}

// Render decodes the raw body and returns the compacted message without delivering it
func (uc *relayUseCase) Render(raw []byte) (*model.EventEnvelope, model.Message, error) {
	env, err := uc.decoder.Decode(raw)
	if err != nil {
		return nil, model.Message{}, err
	}

	msg, err := uc.render(env)
	if err != nil {
		return nil, model.Message{}, err
	}
	return env, msg, nil
}

// SinkState returns the last observed sink quota
func (uc *relayUseCase) SinkState() model.RateLimitState {
	if uc.sink == nil {
		return model.RateLimitState{}
	}
	return uc.sink.State()
}

func (uc *relayUseCase) render(env *model.EventEnvelope) (msg model.Message, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = goerr.New("failed to build message",
				goerr.T(types.ErrTagTransformation),
				goerr.V("panic", fmt.Sprint(r)),
				goerr.V("delivery_id", env.DeliveryID),
				goerr.V("entity_type", env.TypeName()),
				goerr.V("action", env.Action),
			)
		}
	}()

	built := uc.transformer.Transform(env)

	compacted, stats := uc.compactor.CompactWithStats(built)
	uc.metrics.ObserveCompactionDrops("embed", stats.DroppedEmbeds)
	uc.metrics.ObserveCompactionDrops("field", stats.DroppedFields)

	return compacted, nil
}
