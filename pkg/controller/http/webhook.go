package http

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/m-mizutani/courier/pkg/domain/interfaces"
	"github.com/m-mizutani/courier/pkg/domain/model"
	"github.com/m-mizutani/courier/pkg/domain/types"
	"github.com/m-mizutani/courier/pkg/utils/errutil"
	"github.com/m-mizutani/courier/pkg/utils/signature"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
)

// WebhookHandler handles inbound source events
type WebhookHandler struct {
	verifier *signature.Verifier
	relayUC  interfaces.RelayUseCase
	env      types.Environment
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(verifier *signature.Verifier, relayUC interfaces.RelayUseCase, env types.Environment) *WebhookHandler {
	return &WebhookHandler{
		verifier: verifier,
		relayUC:  relayUC,
		env:      env,
	}
}

// Handle processes webhook requests
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := ctxlog.From(ctx)

	// Read payload
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			logger.Warn("Request body too large", "limit", tooLarge.Limit)
			writeJSON(ctx, w, http.StatusRequestEntityTooLarge, errorResponse{Error: "request body too large"})
			return
		}
		logger.Error("Failed to read request body", "error", err)
		writeError(ctx, w, goerr.Wrap(err, "failed to read request body"), http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	// Verify signature
	if !h.verifier.Verify(ctx, body, r.Header.Get(signature.HeaderName)) {
		logger.Warn("Invalid webhook signature")
		writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{Error: "invalid signature"})
		return
	}

	result, err := h.relayUC.ProcessEvent(ctx, body)
	if err != nil {
		h.handleError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, map[string]string{
		"status":      "success",
		"delivery_id": result.DeliveryID,
	})
}

func (h *WebhookHandler) handleError(ctx context.Context, w http.ResponseWriter, err error) {
	logger := ctxlog.From(ctx)

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		logger.Warn("Request timed out while relaying event", "error", err)
		writeJSON(ctx, w, http.StatusGatewayTimeout, errorResponse{Error: "request timed out"})

	case goerr.HasTag(err, types.ErrTagAuthentication):
		logger.Warn("Unauthenticated event", "error", err)
		writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{Error: "invalid signature"})

	case goerr.HasTag(err, types.ErrTagValidation):
		resp := errorResponse{Error: "invalid event payload"}
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			resp.Error = string(verr.Kind) + " event payload"
			resp.Issues = verr.Issues
		}
		logger.Info("Rejected invalid event payload", "error", err)
		writeJSON(ctx, w, http.StatusBadRequest, resp)

	case goerr.HasTag(err, types.ErrTagTransformation):
		errutil.Handle(ctx, "Failed to build message", err)
		writeJSON(ctx, w, http.StatusInternalServerError, h.internalError("failed to build message", err))

	case goerr.HasTag(err, types.ErrTagDelivery):
		errutil.Handle(ctx, "Failed to deliver message", err)
		writeJSON(ctx, w, http.StatusInternalServerError, h.internalError("failed to deliver message", err))

	default:
		errutil.Handle(ctx, "Failed to process webhook event", err)
		writeJSON(ctx, w, http.StatusInternalServerError, h.internalError("internal server error", err))
	}
}

func (h *WebhookHandler) internalError(msg string, err error) errorResponse {
	resp := errorResponse{Error: msg}
	if !h.env.IsProduction() {
		resp.Detail = err.Error()
	}
	return resp
}
