package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/thib420/AI-Table-sub000/internal/repository"
	"github.com/thib420/AI-Table-sub000/internal/services"
)

// HealthHandler handles health check HTTP requests. The db may be nil when
// the process booted without a database; the mailbox keeps serving from
// memory, so liveness stays green while readiness reports the degradation.
type HealthHandler struct {
	db        *gorm.DB
	store     *repository.Store
	scheduler *services.SyncScheduler
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(db *gorm.DB, store *repository.Store, scheduler *services.SyncScheduler) *HealthHandler {
	return &HealthHandler{db: db, store: store, scheduler: scheduler}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c echo.Context) error {
	services := make(map[string]string)
	status := "healthy"

	if h.databaseReachable() {
		services["database"] = "healthy"
	} else {
		services["database"] = "unhealthy"
		status = "degraded"
	}

	if h.store != nil && h.store.Degraded() {
		services["store"] = "degraded"
		status = "degraded"
	} else {
		services["store"] = "healthy"
	}

	switch {
	case h.scheduler == nil:
		services["scheduler"] = "disabled"
	case h.scheduler.IsRunning():
		services["scheduler"] = "running"
	default:
		services["scheduler"] = "stopped"
	}

	// The process serves cached data even without a database, so liveness
	// stays 200 and the body carries the degradation
	return c.JSON(http.StatusOK, HealthResponse{
		Status:   status,
		Services: services,
	})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(c echo.Context) error {
	if !h.databaseReachable() {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "database unreachable",
		})
	}

	if h.store != nil && h.store.Degraded() {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "store degraded",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ready",
	})
}

func (h *HealthHandler) databaseReachable() bool {
	if h.db == nil {
		return false
	}
	sqlDB, err := h.db.DB()
	if err != nil {
		return false
	}
	return sqlDB.Ping() == nil
}
