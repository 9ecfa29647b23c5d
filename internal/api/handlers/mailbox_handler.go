package handlers

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/thib420/AI-Table-sub000/internal/api/response"
	"github.com/thib420/AI-Table-sub000/internal/repository"
	"github.com/thib420/AI-Table-sub000/internal/services"
	"github.com/thib420/AI-Table-sub000/internal/validator"
)

// MailboxHandler serves the cached mailbox: snapshot reads, filtered message
// listings, search, and the optimistic mutations. Reads never block on the
// provider; a degraded store surfaces as empty collections, not errors.
type MailboxHandler struct {
	cache *services.MailCache
	store *repository.Store
	owner string
}

// NewMailboxHandler creates a new MailboxHandler
func NewMailboxHandler(cache *services.MailCache, store *repository.Store, owner string) *MailboxHandler {
	return &MailboxHandler{
		cache: cache,
		store: store,
		owner: owner,
	}
}

// MarkReadRequest represents the request body for the read-flag route. A
// missing field defaults to marking the message read.
type MarkReadRequest struct {
	Read *bool `json:"read"`
}

// Snapshot handles GET /api/v1/mailbox/snapshot
func (h *MailboxHandler) Snapshot(c echo.Context) error {
	if wantsRefresh(c.QueryParam("refresh")) {
		// Damping still applies; only POST /sync?force= bypasses it
		h.cache.Refresh(c.Request().Context(), false)
	}

	snap := h.cache.Snapshot(c.Request().Context())
	return response.Success(c, snap)
}

// ListMessages handles GET /api/v1/mailbox/messages
func (h *MailboxHandler) ListMessages(c echo.Context) error {
	limit, offset := pagination(c)

	filter := repository.MessageFilter{
		FolderKey:   c.QueryParam("folder"),
		UnreadOnly:  boolParam(c.QueryParam("unread")),
		StarredOnly: boolParam(c.QueryParam("starred")),
		Limit:       limit,
		Offset:      offset,
	}

	messages, total, err := h.store.Messages.List(c.Request().Context(), h.owner, filter)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, messages, total, limit, offset)
}

// Search handles GET /api/v1/mailbox/search
func (h *MailboxHandler) Search(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("q"))
	if query == "" {
		return response.BadRequest(c, "q is required")
	}

	limit, _ := pagination(c)

	results, err := h.cache.Search(c.Request().Context(), query, limit)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, results)
}

// MarkRead handles PATCH /api/v1/mailbox/messages/:id/read
func (h *MailboxHandler) MarkRead(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return response.BadRequest(c, "message id is required")
	}

	var req MarkReadRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	read := true
	if req.Read != nil {
		read = *req.Read
	}

	if err := h.cache.MarkRead(c.Request().Context(), id, read); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]interface{}{
		"provider_message_id": id,
		"read":                read,
	})
}

// ToggleStar handles POST /api/v1/mailbox/messages/:id/star
func (h *MailboxHandler) ToggleStar(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return response.BadRequest(c, "message id is required")
	}

	if err := h.cache.ToggleStar(c.Request().Context(), id); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]interface{}{
		"provider_message_id": id,
	})
}

// Delete handles DELETE /api/v1/mailbox/messages/:id
func (h *MailboxHandler) Delete(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return response.BadRequest(c, "message id is required")
	}

	if err := h.cache.Delete(c.Request().Context(), id); err != nil {
		return response.Error(c, err)
	}

	return response.NoContent(c)
}

// Stats handles GET /api/v1/mailbox/stats
func (h *MailboxHandler) Stats(c echo.Context) error {
	return response.Success(c, h.cache.Stats(c.Request().Context()))
}

// pagination reads limit/offset query params with clamped defaults
func pagination(c echo.Context) (int, int) {
	limit := 0
	offset := 0
	if l := c.QueryParam("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil {
			limit = parsed
		}
	}
	if o := c.QueryParam("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil {
			offset = parsed
		}
	}
	return validator.ValidatePagination(limit, offset)
}

// boolParam interprets truthy query values
func boolParam(raw string) bool {
	return raw == "true" || raw == "1"
}

// wantsRefresh interprets the snapshot refresh query flag
func wantsRefresh(raw string) bool {
	return raw == "true" || raw == "1"
}
