package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/upb/session-gateway/utils"
	"go.uber.org/zap"
)

const readinessTimeout = 3 * time.Second

// Readiness check values
const (
	checkHealthy       = "healthy"
	checkUnhealthy     = "unhealthy"
	checkDisabled      = "disabled"
	checkNotConfigured = "not_configured"
)

// ProviderPinger checks that the identity provider is reachable
type ProviderPinger interface {
	Ping(ctx context.Context) error
}

// HealthChecker checks an optional backing store
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthResponse is the liveness body
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadinessResponse reports the state of each dependency
type ReadinessResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	provider ProviderPinger
	db       HealthChecker
	logger   *zap.Logger
}

// NewHealthHandler creates a new HealthHandler. A nil provider means the
// provider is not configured; a nil db means the audit store is disabled.
func NewHealthHandler(provider ProviderPinger, db HealthChecker, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		provider: provider,
		db:       db,
		logger:   logger,
	}
}

// HandleHealth handles GET /health.
// Liveness only: always 200 while the process serves requests.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// HandleReadiness handles GET /readyz
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	checks := make(map[string]string, 2)
	ready := true

	switch {
	case h.provider == nil:
		checks["provider"] = checkNotConfigured
		ready = false
	default:
		if err := h.provider.Ping(ctx); err != nil {
			h.logger.Warn("provider readiness check failed", zap.Error(err))
			checks["provider"] = checkUnhealthy
			ready = false
		} else {
			checks["provider"] = checkHealthy
		}
	}

	switch {
	case h.db == nil:
		checks["database"] = checkDisabled
	default:
		if err := h.db.HealthCheck(ctx); err != nil {
			h.logger.Warn("database readiness check failed", zap.Error(err))
			checks["database"] = checkUnhealthy
			ready = false
		} else {
			checks["database"] = checkHealthy
		}
	}

	status := "ready"
	httpStatus := http.StatusOK
	if !ready {
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	}

	response := ReadinessResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}
	if err := utils.WriteJSON(w, httpStatus, response); err != nil {
		h.logger.Error("failed to write readiness response", zap.Error(err))
	}
}
