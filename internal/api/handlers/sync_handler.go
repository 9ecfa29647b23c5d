package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/thib420/AI-Table-sub000/internal/api/response"
	"github.com/thib420/AI-Table-sub000/internal/models"
	"github.com/thib420/AI-Table-sub000/internal/repository"
	"github.com/thib420/AI-Table-sub000/internal/services"
)

// SyncHandler exposes manual sync triggering and sync-state inspection
type SyncHandler struct {
	engine *services.SyncEngine
	store  *repository.Store
	owner  string
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(engine *services.SyncEngine, store *repository.Store, owner string) *SyncHandler {
	return &SyncHandler{
		engine: engine,
		store:  store,
		owner:  owner,
	}
}

// SyncStatusResponse pairs the persisted sync state with the engine's last
// in-memory result
type SyncStatusResponse struct {
	State      *models.SyncState    `json:"state"`
	LastResult *services.SyncResult `json:"last_result,omitempty"`
}

// Trigger handles POST /api/v1/sync
func (h *SyncHandler) Trigger(c echo.Context) error {
	mode := c.QueryParam("mode")
	if mode == "" {
		mode = services.SyncModeIncremental
	}
	force := boolParam(c.QueryParam("force"))

	result, err := h.engine.Sync(c.Request().Context(), mode, force)
	if err != nil {
		return response.Error(c, err)
	}

	if result.Skipped {
		return response.SuccessWithMessage(c, result, "sync damped; previous result returned")
	}
	return response.Success(c, result)
}

// Status handles GET /api/v1/sync/status
func (h *SyncHandler) Status(c echo.Context) error {
	state, _, err := h.store.SyncState.GetOrCreate(c.Request().Context(), h.owner)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, SyncStatusResponse{
		State:      state,
		LastResult: h.engine.LastResult(),
	})
}
