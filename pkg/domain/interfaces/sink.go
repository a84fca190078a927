package interfaces

import (
	"context"

	"github.com/m-mizutani/courier/pkg/domain/model"
)

// Sink defines operations of the chat webhook delivery client
type Sink interface {
	// Send delivers msg to destination, pacing and retrying as needed
	Send(ctx context.Context, destination string, msg model.Message) (*model.DeliveryResult, error)

	// State returns the most recently observed quota
	State() model.RateLimitState
}
