// Package collaborator holds the adapters that connect agents to the outside
// world, and the normalized error shape they report failures with.
package collaborator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Category is the normalized failure taxonomy for remote collaborators.
type Category string

const (
	CategoryTimeout        Category = "timeout"
	CategoryBadData        Category = "bad_data"
	CategoryAuthentication Category = "authentication"
	CategoryOutage         Category = "provider_outage"
	CategoryNotFound       Category = "not_found"
	CategoryRateLimited    Category = "rate_limited"
	CategoryInternal       Category = "internal"
)

// Error wraps a collaborator failure with its category.
type Error struct {
	Category     Category
	Collaborator string
	Message      string
	Underlying   error
	Retryable    bool
}

func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("collaborator %s [%s]: %s: %v", e.Collaborator, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("collaborator %s [%s]: %s", e.Collaborator, e.Category, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Underlying
}

// NewError creates a normalized error. Timeouts, outages and rate limits are
// retryable.
func NewError(category Category, name, message string, underlying error) *Error {
	return &Error{
		Category:     category,
		Collaborator: name,
		Message:      message,
		Underlying:   underlying,
		Retryable: category == CategoryTimeout ||
			category == CategoryOutage ||
			category == CategoryRateLimited,
	}
}

// CategoryOf extracts the category, or CategoryInternal for foreign errors.
func CategoryOf(err error) Category {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Category
	}
	return CategoryInternal
}

// IsRetryable reports whether err is worth retrying.
func IsRetryable(err error) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Retryable
	}
	return false
}

// ErrCircuitOpen is the cause reported while a breaker rejects calls.
var ErrCircuitOpen = errors.New("circuit open")

// FromTransport classifies an error returned by http.Client.Do.
func FromTransport(ctx context.Context, name string, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return NewError(CategoryTimeout, name, "request timed out", err)
	}
	return NewError(CategoryOutage, name, "request failed", err)
}

// FromStatus classifies a non-2xx response status.
func FromStatus(name string, status int) *Error {
	msg := fmt.Sprintf("unexpected status %d", status)
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return NewError(CategoryAuthentication, name, msg, nil)
	case status == http.StatusNotFound:
		return NewError(CategoryNotFound, name, msg, nil)
	case status == http.StatusTooManyRequests:
		return NewError(CategoryRateLimited, name, msg, nil)
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return NewError(CategoryTimeout, name, msg, nil)
	case status >= 500:
		return NewError(CategoryOutage, name, msg, nil)
	default:
		return NewError(CategoryBadData, name, msg, nil)
	}
}
