package fixtures

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/thib420/AI-Table-sub000/internal/provider"
)

// FakeProvider is an in-process stand-in for the provider's JSON API. It
// speaks the same wire protocol as the real service - cursor pagination,
// bearer auth, Retry-After throttling - so the HTTP client runs unmodified
// against it. Mutations are recorded and applied to the in-memory records,
// letting tests observe what a follow-up sync would see.
type FakeProvider struct {
	mu sync.Mutex

	Folders   []provider.FolderRecord
	Messages  map[string][]provider.MessageRecord
	Contacts  []provider.ContactRecord
	People    []provider.PersonRecord
	Directory []provider.DirectoryRecord
	Events    []provider.EventRecord

	// KnownEmails answers contact existence searches
	KnownEmails map[string]bool
	// CreatedContacts records every contact creation in arrival order
	CreatedContacts []provider.NewContact
	// Deleted records hard message deletions
	Deleted []string

	// Token, when set, is required as a bearer token on every request
	Token string

	// PageSize overrides the client-requested page size, forcing multi-page
	// listings
	PageSize int

	throttled map[string]int
	requests  map[string]int
}

// NewFakeProvider creates an empty fake provider
func NewFakeProvider() *FakeProvider {
	return &FakeProvider{
		Messages:    make(map[string][]provider.MessageRecord),
		KnownEmails: make(map[string]bool),
		throttled:   make(map[string]int),
		requests:    make(map[string]int),
	}
}

// Server starts an httptest server around the fake. The caller owns Close.
func (f *FakeProvider) Server() *httptest.Server {
	return httptest.NewServer(f.Handler())
}

// Handler returns the fake's HTTP handler
func (f *FakeProvider) Handler() http.Handler {
	e := echo.New()
	e.HideBanner = true

	e.GET("/v1/folders", f.listFolders)
	e.GET("/v1/folders/:id/messages", f.listMessages)
	e.GET("/v1/contacts", f.listContacts)
	e.GET("/v1/contacts/search", f.searchContact)
	e.POST("/v1/contacts", f.createContact)
	e.GET("/v1/people", f.listPeople)
	e.GET("/v1/directory", f.listDirectory)
	e.GET("/v1/events", f.listEvents)
	e.PATCH("/v1/messages/:id", f.patchMessage)
	e.POST("/v1/messages/:id/move", f.moveMessage)
	e.DELETE("/v1/messages/:id", f.deleteMessage)

	return e
}

// Throttle makes the next n requests for a resource answer 429 with the
// given Retry-After seconds
func (f *FakeProvider) Throttle(resource string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.throttled[resource] = n
}

// Requests returns how many calls a resource has served, throttled ones
// included
func (f *FakeProvider) Requests(resource string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[resource]
}

// MessageByID finds a message across folders
func (f *FakeProvider) MessageByID(id string) (provider.MessageRecord, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, records := range f.Messages {
		for _, rec := range records {
			if rec.ID == id {
				return rec, true
			}
		}
	}
	return provider.MessageRecord{}, false
}

// gate applies auth and throttle checks and counts the request. When it
// reports handled, the error response has already been written.
func (f *FakeProvider) gate(c echo.Context, resource string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests[resource]++

	if f.Token != "" {
		auth := c.Request().Header.Get("Authorization")
		if auth != "Bearer "+f.Token {
			return true, c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid token"})
		}
	}

	if f.throttled[resource] > 0 {
		f.throttled[resource]--
		c.Response().Header().Set("Retry-After", "1")
		return true, c.JSON(http.StatusTooManyRequests, map[string]string{"error": "throttled"})
	}
	return false, nil
}

func (f *FakeProvider) listFolders(c echo.Context) error {
	if handled, err := f.gate(c, "folders"); handled {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return servePage(c, f.Folders, f.PageSize)
}

func (f *FakeProvider) listMessages(c echo.Context) error {
	if handled, err := f.gate(c, "messages"); handled {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return servePage(c, f.Messages[c.Param("id")], f.PageSize)
}

func (f *FakeProvider) listContacts(c echo.Context) error {
	if handled, err := f.gate(c, "contacts"); handled {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return servePage(c, f.Contacts, f.PageSize)
}

func (f *FakeProvider) listPeople(c echo.Context) error {
	if handled, err := f.gate(c, "people"); handled {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return servePage(c, f.People, f.PageSize)
}

func (f *FakeProvider) listDirectory(c echo.Context) error {
	if handled, err := f.gate(c, "directory"); handled {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return servePage(c, f.Directory, f.PageSize)
}

func (f *FakeProvider) listEvents(c echo.Context) error {
	if handled, err := f.gate(c, "events"); handled {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return servePage(c, f.Events, f.PageSize)
}

func (f *FakeProvider) searchContact(c echo.Context) error {
	if handled, err := f.gate(c, "contact_search"); handled {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	email := strings.ToLower(c.QueryParam("email"))
	if f.KnownEmails[email] {
		return c.JSON(http.StatusOK, map[string]string{"email": email})
	}
	return c.JSON(http.StatusNotFound, map[string]string{"error": "contact not found"})
}

func (f *FakeProvider) createContact(c echo.Context) error {
	if handled, err := f.gate(c, "contact_create"); handled {
		return err
	}
	var record provider.NewContact
	if err := c.Bind(&record); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad payload"})
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CreatedContacts = append(f.CreatedContacts, record)
	f.KnownEmails[strings.ToLower(record.Email)] = true
	id := "created-" + strconv.Itoa(len(f.CreatedContacts))
	return c.JSON(http.StatusCreated, map[string]string{"id": id})
}

func (f *FakeProvider) patchMessage(c echo.Context) error {
	if handled, err := f.gate(c, "message_patch"); handled {
		return err
	}
	var patch provider.MessagePatch
	if err := c.Bind(&patch); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad payload"})
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	id := c.Param("id")
	for folder, records := range f.Messages {
		for i := range records {
			if records[i].ID != id {
				continue
			}
			if patch.IsRead != nil {
				records[i].IsRead = *patch.IsRead
			}
			if patch.IsStarred != nil {
				records[i].IsStarred = *patch.IsStarred
			}
			f.Messages[folder] = records
			return c.NoContent(http.StatusNoContent)
		}
	}
	return c.JSON(http.StatusNotFound, map[string]string{"error": "message not found"})
}

func (f *FakeProvider) moveMessage(c echo.Context) error {
	if handled, err := f.gate(c, "message_move"); handled {
		return err
	}
	var body struct {
		DestinationID string `json:"destinationId"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad payload"})
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	id := c.Param("id")
	for folder, records := range f.Messages {
		for i := range records {
			if records[i].ID != id {
				continue
			}
			moved := records[i]
			f.Messages[folder] = append(records[:i], records[i+1:]...)
			f.Messages[body.DestinationID] = append(f.Messages[body.DestinationID], moved)
			return c.NoContent(http.StatusNoContent)
		}
	}
	return c.JSON(http.StatusNotFound, map[string]string{"error": "message not found"})
}

func (f *FakeProvider) deleteMessage(c echo.Context) error {
	if handled, err := f.gate(c, "message_delete"); handled {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	id := c.Param("id")
	for folder, records := range f.Messages {
		for i := range records {
			if records[i].ID != id {
				continue
			}
			f.Messages[folder] = append(records[:i], records[i+1:]...)
			f.Deleted = append(f.Deleted, id)
			return c.NoContent(http.StatusNoContent)
		}
	}
	return c.JSON(http.StatusNotFound, map[string]string{"error": "message not found"})
}

// servePage answers one page of records using the wire protocol's cursor
// scheme. The cursor is the numeric offset of the next record. A forced
// page size below the client-requested one exercises cursor following.
func servePage[T any](c echo.Context, all []T, forcedSize int) error {
	size, _ := strconv.Atoi(c.QueryParam("pageSize"))
	if forcedSize > 0 && (size == 0 || forcedSize < size) {
		size = forcedSize
	}
	if size <= 0 {
		size = len(all)
	}

	offset, _ := strconv.Atoi(c.QueryParam("cursor"))
	if offset < 0 || offset > len(all) {
		offset = len(all)
	}

	end := offset + size
	if end > len(all) {
		end = len(all)
	}

	next := ""
	if end < len(all) {
		next = strconv.Itoa(end)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"records":    all[offset:end],
		"nextCursor": next,
	})
}
