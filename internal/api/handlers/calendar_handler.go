package handlers

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/thib420/AI-Table-sub000/internal/api/response"
	"github.com/thib420/AI-Table-sub000/internal/repository"
)

// Default query window, matching what the sync engine mirrors from the
// provider.
const (
	defaultWindowPast   = 7 * 24 * time.Hour
	defaultWindowFuture = 60 * 24 * time.Hour
)

// CalendarHandler serves the mirrored calendar events
type CalendarHandler struct {
	store *repository.Store
	owner string
}

// NewCalendarHandler creates a new CalendarHandler
func NewCalendarHandler(store *repository.Store, owner string) *CalendarHandler {
	return &CalendarHandler{
		store: store,
		owner: owner,
	}
}

// Events handles GET /api/v1/calendar/events
func (h *CalendarHandler) Events(c echo.Context) error {
	now := time.Now().UTC()
	from := now.Add(-defaultWindowPast)
	to := now.Add(defaultWindowFuture)

	if raw := c.QueryParam("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return response.BadRequest(c, "from must be RFC 3339")
		}
		from = parsed
	}
	if raw := c.QueryParam("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return response.BadRequest(c, "to must be RFC 3339")
		}
		to = parsed
	}
	if !to.After(from) {
		return response.BadRequest(c, "to must be after from")
	}

	events, err := h.store.Events.ListWindow(c.Request().Context(), h.owner, from, to)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, events)
}
