package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/citivoice/complaint-server/internal/models"
	"go.uber.org/zap"
)

// Version is reported by the health endpoints
const Version = "1.0.0"

var startTime = time.Now()

// Pinger is a dependency the readiness probe checks
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger
type PingFunc func(ctx context.Context) error

// Ping calls f
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthHandler provides health check endpoints
type HealthHandler struct {
	db     Pinger
	redis  Pinger // nil when tokens live in memory
	logger *zap.SugaredLogger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db, redis Pinger, logger *zap.SugaredLogger) *HealthHandler {
	return &HealthHandler{db: db, redis: redis, logger: logger}
}

// Check handles GET /api/v1/health (liveness probe)
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, "ok", models.HealthStatus{
		Status:  "ok",
		Version: Version,
		Uptime:  time.Since(startTime).String(),
	})
}

// Ready handles GET /api/v1/health/ready (readiness probe)
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	status := models.HealthStatus{
		Status:   "ready",
		Version:  Version,
		Uptime:   time.Since(startTime).String(),
		Database: "connected",
		Redis:    "disabled",
	}
	ready := true

	if err := h.db.Ping(r.Context()); err != nil {
		h.logger.Warnw("Database ping failed", "error", err)
		status.Database = "disconnected"
		ready = false
	}
	if h.redis != nil {
		status.Redis = "connected"
		if err := h.redis.Ping(r.Context()); err != nil {
			h.logger.Warnw("Redis ping failed", "error", err)
			status.Redis = "disconnected"
			ready = false
		}
	}

	if !ready {
		status.Status = "not ready"
		status.Uptime = ""
		respondJSON(w, http.StatusServiceUnavailable, "not ready", status)
		return
	}
	respondJSON(w, http.StatusOK, "ready", status)
}
