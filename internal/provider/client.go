// Package provider implements the typed, paginated gateway to the remote
// mailbox and CRM API. The gateway is a stateless transport: it throttles
// outbound calls and classifies failures, but never retries. Retry policy
// belongs to the callers.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/thib420/AI-Table-sub000/internal/errors"
	"golang.org/x/time/rate"
)

// Defaults applied by NewClient where config fields are zero
const (
	DefaultPageSize = 50
	DefaultMaxPages = 10
	DefaultQPS      = 5
	DefaultTimeout  = 30 * time.Second
)

// Config holds configuration for the provider client
type Config struct {
	BaseURL  string
	Token    string
	PageSize int
	MaxPages int
	QPS      float64
	Timeout  time.Duration
}

// Client defines the interface for provider API access
type Client interface {
	// ListFolders returns all mail folders
	ListFolders(ctx context.Context) ([]FolderRecord, error)

	// ListMessages returns messages in a folder, newest first
	ListMessages(ctx context.Context, folderID string, query MessageQuery) ([]MessageRecord, error)

	// ListContacts returns the owner's address book
	ListContacts(ctx context.Context) ([]ContactRecord, error)

	// ListPeople returns the relevance-ranked people graph
	ListPeople(ctx context.Context) ([]PersonRecord, error)

	// ListDirectory returns the organization directory
	ListDirectory(ctx context.Context) ([]DirectoryRecord, error)

	// ListCalendarEvents returns events overlapping the window
	ListCalendarEvents(ctx context.Context, window EventWindow) ([]EventRecord, error)

	// UpdateMessage patches read/star flags on a remote message
	UpdateMessage(ctx context.Context, messageID string, patch MessagePatch) error

	// MoveMessage moves a remote message into another folder
	MoveMessage(ctx context.Context, messageID, destinationFolderID string) error

	// DeleteMessage permanently removes a remote message
	DeleteMessage(ctx context.Context, messageID string) error

	// CreateContact creates a contact remotely and returns its id
	CreateContact(ctx context.Context, record NewContact) (string, error)

	// FindContactByEmail reports whether a contact with the address already
	// exists remotely
	FindContactByEmail(ctx context.Context, email string) (bool, error)
}

// httpClient implements Client over the provider's JSON HTTP API
type httpClient struct {
	baseURL    string
	token      string
	pageSize   int
	maxPages   int
	limiter    *rate.Limiter
	httpClient *http.Client
}

// NewClient creates a provider client from the given config
func NewClient(config Config) Client {
	pageSize := config.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	maxPages := config.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	qps := config.QPS
	if qps <= 0 {
		qps = DefaultQPS
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &httpClient{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		token:      config.Token,
		pageSize:   pageSize,
		maxPages:   maxPages,
		limiter:    rate.NewLimiter(rate.Limit(qps), 1),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// page is the uniform wire shape of every list endpoint
type page struct {
	Records    []json.RawMessage `json:"records"`
	NextCursor string            `json:"nextCursor"`
}

// ListFolders returns all mail folders
func (c *httpClient) ListFolders(ctx context.Context) ([]FolderRecord, error) {
	return collectPages[FolderRecord](ctx, c, "/v1/folders", nil, "folders")
}

// ListMessages returns messages in a folder, newest first
func (c *httpClient) ListMessages(ctx context.Context, folderID string, query MessageQuery) ([]MessageRecord, error) {
	params := url.Values{}
	if query.Limit > 0 {
		params.Set("limit", strconv.Itoa(query.Limit))
	}
	if !query.ReceivedAfter.IsZero() {
		params.Set("receivedAfter", query.ReceivedAfter.UTC().Format(time.RFC3339))
	}
	path := "/v1/folders/" + url.PathEscape(folderID) + "/messages"
	return collectPages[MessageRecord](ctx, c, path, params, "messages")
}

// ListContacts returns the owner's address book
func (c *httpClient) ListContacts(ctx context.Context) ([]ContactRecord, error) {
	return collectPages[ContactRecord](ctx, c, "/v1/contacts", nil, "contacts")
}

// ListPeople returns the relevance-ranked people graph
func (c *httpClient) ListPeople(ctx context.Context) ([]PersonRecord, error) {
	return collectPages[PersonRecord](ctx, c, "/v1/people", nil, "people")
}

// ListDirectory returns the organization directory
func (c *httpClient) ListDirectory(ctx context.Context) ([]DirectoryRecord, error) {
	return collectPages[DirectoryRecord](ctx, c, "/v1/directory", nil, "directory")
}

// ListCalendarEvents returns events overlapping the window
func (c *httpClient) ListCalendarEvents(ctx context.Context, window EventWindow) ([]EventRecord, error) {
	params := url.Values{}
	params.Set("from", window.From.UTC().Format(time.RFC3339))
	params.Set("to", window.To.UTC().Format(time.RFC3339))
	return collectPages[EventRecord](ctx, c, "/v1/events", params, "events")
}

// UpdateMessage patches read/star flags on a remote message
func (c *httpClient) UpdateMessage(ctx context.Context, messageID string, patch MessagePatch) error {
	path := "/v1/messages/" + url.PathEscape(messageID)
	return c.doJSON(ctx, http.MethodPatch, path, "message", patch, nil)
}

// MoveMessage moves a remote message into another folder
func (c *httpClient) MoveMessage(ctx context.Context, messageID, destinationFolderID string) error {
	path := "/v1/messages/" + url.PathEscape(messageID) + "/move"
	body := map[string]string{"destinationId": destinationFolderID}
	return c.doJSON(ctx, http.MethodPost, path, "message", body, nil)
}

// DeleteMessage permanently removes a remote message
func (c *httpClient) DeleteMessage(ctx context.Context, messageID string) error {
	path := "/v1/messages/" + url.PathEscape(messageID)
	return c.doJSON(ctx, http.MethodDelete, path, "message", nil, nil)
}

// CreateContact creates a contact remotely and returns its id
func (c *httpClient) CreateContact(ctx context.Context, record NewContact) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/v1/contacts", "contacts", record, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// FindContactByEmail reports whether a contact with the address exists
// remotely. A 404 is a negative answer, not an error.
func (c *httpClient) FindContactByEmail(ctx context.Context, email string) (bool, error) {
	params := url.Values{}
	params.Set("email", email)
	err := c.doJSON(ctx, http.MethodGet, "/v1/contacts/search?"+params.Encode(), "contacts", nil, nil)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// collectPages follows pagination cursors until exhaustion or the page cap.
// The cap bounds runaway cursors; a provider echoing the same cursor back
// also terminates the loop.
func collectPages[T any](ctx context.Context, c *httpClient, path string, params url.Values, resource string) ([]T, error) {
	records := make([]T, 0, c.pageSize)
	cursor := ""
	for pageNum := 0; pageNum < c.maxPages; pageNum++ {
		q := url.Values{}
		for key, values := range params {
			q[key] = values
		}
		q.Set("pageSize", strconv.Itoa(c.pageSize))
		if cursor != "" {
			q.Set("cursor", cursor)
		}

		var body page
		if err := c.doJSON(ctx, http.MethodGet, path+"?"+q.Encode(), resource, nil, &body); err != nil {
			return nil, err
		}

		for _, raw := range body.Records {
			var record T
			if err := json.Unmarshal(raw, &record); err != nil {
				return nil, fmt.Errorf("failed to decode %s record: %w", resource, err)
			}
			records = append(records, record)
		}

		next := strings.TrimSpace(body.NextCursor)
		if next == "" || next == cursor {
			break
		}
		cursor = next
	}
	return records, nil
}

// doJSON performs one throttled HTTP exchange and maps failures onto the
// error taxonomy. It never retries.
func (c *httpClient) doJSON(ctx context.Context, method, requestPath, resource string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", resource, err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+requestPath, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", resource, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed (%v): %w", resource, err, apperrors.ErrTransport)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s response (%v): %w", resource, err, apperrors.ErrTransport)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode <= 299:
		if out == nil || len(payload) == 0 {
			return nil
		}
		if err := json.Unmarshal(payload, out); err != nil {
			return fmt.Errorf("failed to decode %s response: %w", resource, err)
		}
		return nil

	case resp.StatusCode == http.StatusTooManyRequests:
		return apperrors.NewRateLimitError(resource, parseRetryAfter(resp.Header.Get("Retry-After")))

	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%s request rejected with status %d: %w", resource, resp.StatusCode, apperrors.ErrAuthExpired)

	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s not found: %w", resource, apperrors.ErrNotFound)

	default:
		return fmt.Errorf("%s request returned status %d: %w", resource, resp.StatusCode, apperrors.ErrTransport)
	}
}

// parseRetryAfter reads the Retry-After header as whole seconds. Anything
// unparseable means no hint.
func parseRetryAfter(header string) time.Duration {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
