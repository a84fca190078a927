package errutil

import (
	"context"
	"log/slog"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
)

// Handle logs err with its goerr values and reports it to Sentry. The hub bound to ctx
// is used when present, otherwise the global one. Reporting is a no-op when Sentry has
// not been initialized.
func Handle(ctx context.Context, msg string, err error) {
	if err == nil {
		return
	}

	values := map[string]any{}
	if gErr := goerr.Unwrap(err); gErr != nil {
		for k, v := range gErr.Values() {
			values[k] = v
		}
	}

	attrs := []any{slog.Any("error", err)}
	for k, v := range values {
		attrs = append(attrs, slog.Any(k, v))
	}
	ctxlog.From(ctx).Error(msg, attrs...)

	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub = hub.Clone()
	hub.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag("message", msg)
		if len(values) > 0 {
			scope.SetContext("goerr", sentry.Context(values))
		}
	})
	if eventID := hub.CaptureException(err); eventID != nil {
		ctxlog.From(ctx).Info("error reported to sentry", slog.String("event_id", string(*eventID)))
	}
}
