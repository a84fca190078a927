package http

import (
	"net/http"
	"time"

	"github.com/m-mizutani/courier/pkg/domain/interfaces"
	"github.com/m-mizutani/courier/pkg/domain/model"
	"github.com/m-mizutani/courier/pkg/domain/types"
)

// handleHealth handles health check requests
func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, healthStatus())
}

func healthStatus() model.HealthStatus {
	return model.HealthStatus{
		Status:  "healthy",
		Service: types.ServiceName,
		Version: types.Version,
	}
}

type debugHandler struct {
	relayUC    interfaces.RelayUseCase
	startedAt  time.Time
	configView any
}

func (h *debugHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, model.DetailedHealth{
		HealthStatus:  healthStatus(),
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
		SinkRateLimit: h.relayUC.SinkState(),
	})
}

func (h *debugHandler) handleConfig(w http.ResponseWriter, r *http.Request) {
	if h.configView == nil {
		writeJSON(r.Context(), w, http.StatusOK, map[string]any{})
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, h.configView)
}
