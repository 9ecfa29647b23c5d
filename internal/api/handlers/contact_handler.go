package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/thib420/AI-Table-sub000/internal/api/response"
	"github.com/thib420/AI-Table-sub000/internal/repository"
	"github.com/thib420/AI-Table-sub000/internal/services"
	"github.com/thib420/AI-Table-sub000/internal/validator"
)

// ContactHandler serves the propagated-contact directory and the manual
// propagation trigger
type ContactHandler struct {
	store      *repository.Store
	propagator *services.ContactPropagator
	owner      string
}

// NewContactHandler creates a new ContactHandler
func NewContactHandler(store *repository.Store, propagator *services.ContactPropagator, owner string) *ContactHandler {
	return &ContactHandler{
		store:      store,
		propagator: propagator,
		owner:      owner,
	}
}

// propagationScanLimit caps how many recent messages a manual propagation
// run scans for unseen senders.
const propagationScanLimit = 100

// Propagate handles POST /api/v1/contacts/propagate
func (h *ContactHandler) Propagate(c echo.Context) error {
	ctx := c.Request().Context()

	messages, _, err := h.store.Messages.List(ctx, h.owner, repository.MessageFilter{Limit: propagationScanLimit})
	if err != nil {
		return response.Error(c, err)
	}

	result, err := h.propagator.PropagateContacts(ctx, h.owner, messages)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, result)
}

// List handles GET /api/v1/contacts
func (h *ContactHandler) List(c echo.Context) error {
	limit, offset := pagination(c)
	filter := repository.ContactFilter{
		Status: c.QueryParam("status"),
		Query:  c.QueryParam("q"),
		Limit:  limit,
		Offset: offset,
	}

	contacts, total, err := h.store.Contacts.List(c.Request().Context(), h.owner, filter)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Paginated(c, contacts, total, limit, offset)
}

// Get handles GET /api/v1/contacts/:email
func (h *ContactHandler) Get(c echo.Context) error {
	email, err := validator.NormalizeEmail(c.Param("email"))
	if err != nil {
		return response.BadRequest(c, "invalid email address")
	}

	contact, err := h.store.Contacts.GetByEmail(c.Request().Context(), h.owner, email)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, contact)
}
