package interfaces

//go:generate moq -out mocks/usecase_mock.go -pkg mocks . RelayUseCase

import (
	"context"

	"github.com/m-mizutani/courier/pkg/domain/model"
)

// RelayUseCase defines the interface for relaying inbound events to the sink
type RelayUseCase interface {
	// ProcessEvent decodes, transforms and delivers one raw event body
	ProcessEvent(ctx context.Context, raw []byte) (*model.RelayResult, error)

	// SinkState returns the last observed sink quota for diagnostics
	SinkState() model.RateLimitState
}

// Transformer builds the chat message for a decoded event
type Transformer interface {
	Transform(env *model.EventEnvelope) model.Message
}
