package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/iudanet/loginauth/pkg/api"
)

// Pinger проверяет доступность хранилища
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler обрабатывает health check запросы
type HealthHandler struct {
	logger  *slog.Logger
	pinger  Pinger
	version string
}

// NewHealthHandler создает новый handler для health check.
// pinger может быть nil, тогда хранилище не проверяется.
func NewHealthHandler(logger *slog.Logger, version string, pinger Pinger) *HealthHandler {
	return &HealthHandler{
		logger:  logger,
		pinger:  pinger,
		version: version,
	}
}

// Health обрабатывает GET /api/health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.pinger != nil {
		if err := h.pinger.Ping(r.Context()); err != nil {
			h.logger.WarnContext(r.Context(), "health check: store unreachable", slog.Any("error", err))
			sendJSON(h.logger, w, api.HealthResponse{Status: "unavailable", Version: h.version}, http.StatusServiceUnavailable)
			return
		}
	}

	sendJSON(h.logger, w, api.HealthResponse{Status: "ok", Version: h.version}, http.StatusOK)
}
