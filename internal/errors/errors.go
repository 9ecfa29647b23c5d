package errors

import (
	"errors"
	"fmt"
	"time"
)

// Domain-specific error types
var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrDuplicateEntry indicates a unique constraint violation
	ErrDuplicateEntry = errors.New("duplicate entry")

	// ErrValidation indicates a malformed address or record
	ErrValidation = errors.New("validation failed")

	// ErrTransport indicates a network or timeout failure talking to the provider
	ErrTransport = errors.New("provider transport failure")

	// ErrRateLimited indicates the provider throttled the request
	ErrRateLimited = errors.New("provider rate limit exceeded")

	// ErrAuthExpired indicates the provider rejected our credentials
	ErrAuthExpired = errors.New("provider authentication expired")

	// ErrStoreUnavailable indicates the durable store is unreachable
	ErrStoreUnavailable = errors.New("durable store unavailable")

	// ErrSyncInProgress indicates a sync is already running for the owner
	ErrSyncInProgress = errors.New("sync already in progress")

	// ErrMessageNotFound indicates the message was not found
	ErrMessageNotFound = errors.New("message not found")

	// ErrFolderNotFound indicates the folder was not found
	ErrFolderNotFound = errors.New("folder not found")

	// ErrContactNotFound indicates the contact was not found
	ErrContactNotFound = errors.New("contact not found")

	// ErrUnauthorized indicates unauthorized access
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotConfigured indicates an optional collaborator has no configuration
	ErrNotConfigured = errors.New("not configured")

	// ErrInternal indicates an internal server error
	ErrInternal = errors.New("internal server error")
)

// Error codes for API responses
const (
	CodeNotFound         = "NOT_FOUND"
	CodeDuplicateEntry   = "DUPLICATE_ENTRY"
	CodeValidation       = "VALIDATION_FAILED"
	CodeTransport        = "PROVIDER_TRANSPORT"
	CodeRateLimited      = "RATE_LIMITED"
	CodeAuthExpired      = "AUTH_EXPIRED"
	CodeStoreUnavailable = "STORE_UNAVAILABLE"
	CodeSyncInProgress   = "SYNC_IN_PROGRESS"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeNotConfigured    = "NOT_CONFIGURED"
	CodeInternalError    = "INTERNAL_ERROR"
)

// AppError represents an application error with context
type AppError struct {
	Err     error
	Message string
	Code    string
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError
func NewAppError(err error, message string, code string) *AppError {
	return &AppError{
		Err:     err,
		Message: message,
		Code:    code,
	}
}

// RateLimitError is returned when the provider answers 429. It carries the
// provider's suggested delay so the retry policy can honor it; a zero
// RetryAfter means the provider gave no hint.
type RateLimitError struct {
	Err        error         `json:"-"`
	Message    string        `json:"message"`
	RetryAfter time.Duration `json:"retry_after_seconds,omitempty"`
	Resource   string        `json:"resource,omitempty"`
}

// Error implements the error interface
func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s (retry after %s)", e.Message, e.RetryAfter)
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// NewRateLimitError creates a RateLimitError for the given resource
func NewRateLimitError(resource string, retryAfter time.Duration) *RateLimitError {
	return &RateLimitError{
		Err:        ErrRateLimited,
		Message:    fmt.Sprintf("rate limited while accessing %s", resource),
		RetryAfter: retryAfter,
		Resource:   resource,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrMessageNotFound) ||
		errors.Is(err, ErrFolderNotFound) ||
		errors.Is(err, ErrContactNotFound)
}

// IsValidation checks if the error is a validation error
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsTransport checks if the error is a provider transport error
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

// IsRateLimited checks if the error is a provider rate-limit error
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IsAuthExpired checks if the error is a provider authentication error
func IsAuthExpired(err error) bool {
	return errors.Is(err, ErrAuthExpired)
}

// IsStoreUnavailable checks if the error is a degraded-store error
func IsStoreUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}

// IsNotConfigured checks if the error marks an unconfigured collaborator
func IsNotConfigured(err error) bool {
	return errors.Is(err, ErrNotConfigured)
}

// RetryAfterHint extracts the provider's suggested delay from a rate-limit
// error chain. Returns zero when the error carries no hint.
func RetryAfterHint(err error) time.Duration {
	var rle *RateLimitError
	if errors.As(err, &rle) {
		return rle.RetryAfter
	}
	return 0
}

// GetRateLimitError extracts a RateLimitError from an error if it exists
func GetRateLimitError(err error) *RateLimitError {
	var rle *RateLimitError
	if errors.As(err, &rle) {
		return rle
	}
	return nil
}

// GetErrorCode returns the appropriate error code for an error
func GetErrorCode(err error) string {
	switch {
	case IsNotFound(err):
		return CodeNotFound
	case errors.Is(err, ErrDuplicateEntry):
		return CodeDuplicateEntry
	case IsValidation(err):
		return CodeValidation
	case IsRateLimited(err):
		return CodeRateLimited
	case IsAuthExpired(err):
		return CodeAuthExpired
	case IsTransport(err):
		return CodeTransport
	case IsStoreUnavailable(err):
		return CodeStoreUnavailable
	case errors.Is(err, ErrSyncInProgress):
		return CodeSyncInProgress
	case errors.Is(err, ErrUnauthorized):
		return CodeUnauthorized
	case IsNotConfigured(err):
		return CodeNotConfigured
	default:
		return CodeInternalError
	}
}
