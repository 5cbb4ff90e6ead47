package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/upb/storefront-assistant/internal/cache"
	"github.com/upb/storefront-assistant/utils"
	"go.uber.org/zap"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// ReadinessOptions describes the optional collaborators reported by /readyz.
// Only the database and an enabled cache can make the service unready; a
// missing embedding or language model credential is a supported state.
type ReadinessOptions struct {
	Cache               cache.Client
	EmbeddingConfigured bool
	LLMConfigured       bool
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	db     *sql.DB
	opts   ReadinessOptions
	logger *zap.Logger
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(db *sql.DB, opts ReadinessOptions, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		db:     db,
		opts:   opts,
		logger: logger,
	}
}

// HandleHealth handles GET /healthz
// Liveness only: always 200 while the process serves requests
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	_ = utils.WriteOK(w, response)
}

// HandleReadiness handles GET /readyz
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	allHealthy := true

	if err := h.checkDatabase(ctx); err != nil {
		h.logger.Warn("database health check failed", zap.Error(err))
		checks["database"] = "unhealthy"
		allHealthy = false
	} else {
		checks["database"] = "healthy"
	}

	switch {
	case h.opts.Cache == nil:
		checks["cache"] = "disabled"
	case h.opts.Cache.Ping(ctx) != nil:
		h.logger.Warn("cache health check failed")
		checks["cache"] = "unhealthy"
		allHealthy = false
	default:
		checks["cache"] = "healthy"
	}

	checks["embedding"] = configuredState(h.opts.EmbeddingConfigured)
	checks["language_model"] = configuredState(h.opts.LLMConfigured)

	status := "healthy"
	httpStatus := http.StatusOK
	if !allHealthy {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}

	if err := utils.WriteJSON(w, httpStatus, utils.SuccessResponse{Data: response}); err != nil {
		h.logger.Error("failed to write readiness response", zap.Error(err))
	}
}

// checkDatabase checks database connectivity
func (h *HealthHandler) checkDatabase(ctx context.Context) error {
	if h.db == nil {
		return nil
	}

	if err := h.db.PingContext(ctx); err != nil {
		return err
	}

	var result int
	if err := h.db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return err
	}

	return nil
}

func configuredState(ok bool) string {
	if ok {
		return "configured"
	}
	return "not_configured"
}
