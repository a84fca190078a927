package types

import "github.com/m-mizutani/goerr/v2"

// Error tags classify failures of the event pipeline. The HTTP controller maps them to
// response status codes.
var (
	// ErrTagAuthentication marks bad, missing or replayed signatures
	ErrTagAuthentication = goerr.NewTag("authentication")

	// ErrTagValidation marks malformed or schema-nonconforming payloads
	ErrTagValidation = goerr.NewTag("validation")

	// ErrTagTransformation marks a failure to build a message. It indicates a bug.
	ErrTagTransformation = goerr.NewTag("transformation")

	// ErrTagDelivery marks a delivery that failed after all attempts
	ErrTagDelivery = goerr.NewTag("delivery")

	// ErrTagDeliveryFatal marks a non-retryable delivery failure (4xx other than 429)
	ErrTagDeliveryFatal = goerr.NewTag("delivery_fatal")
)
