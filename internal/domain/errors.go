package domain

import (
	"errors"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
// Implementing this interface enables extensible error handling.
type HTTPError interface {
	error
	StatusCode() int
}

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// ErrQuotaExceeded indicates a storage operation would push a user's
	// used bytes past their quota limit.
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrBrokenHierarchy indicates graph corruption: a parent pointer that
	// cannot be resolved, or a traversal that exceeded the depth bound.
	// It is surfaced instead of looping forever.
	ErrBrokenHierarchy = errors.New("broken hierarchy")
)

// ConflictError represents a resource conflict with details about the existing resource
type ConflictError struct {
	Message      string // Human-readable error message
	ResourceType string // Type of resource (file, folder, shortcut, state)
	ResourceID   string // ID of the existing/conflicting resource
}

func (e *ConflictError) Error() string {
	return e.Message
}

// StatusCode implements the HTTPError interface
func (e *ConflictError) StatusCode() int {
	return http.StatusConflict
}

// Is allows errors.Is() to match against ErrConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// QuotaExceededError carries the ledger numbers that made the operation fail,
// so callers can show how far over the limit the request was.
type QuotaExceededError struct {
	UserID    string
	Limit     int64
	Used      int64
	Requested int64
}

func (e *QuotaExceededError) Error() string {
	return "storage quota exceeded"
}

// StatusCode implements the HTTPError interface
func (e *QuotaExceededError) StatusCode() int {
	return http.StatusRequestEntityTooLarge
}

// Is allows errors.Is() to match against ErrQuotaExceeded
func (e *QuotaExceededError) Is(target error) bool {
	return target == ErrQuotaExceeded
}
