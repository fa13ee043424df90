// SPDX-License-Identifier: MPL-2.0

package remote

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError is a failed or malformed response from one of the external services.
// Prefer the predicates (IsNotFound, HasStatusCode) over asserting on the type.
type APIError struct {
	operation  string
	statusCode int
	message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: HTTP %d: %s", e.operation, e.statusCode, e.message)
}

func newAPIError(operation string, statusCode int, message string) *APIError {
	return &APIError{operation: operation, statusCode: statusCode, message: message}
}

func (e *APIError) StatusCode() int   { return e.statusCode }
func (e *APIError) Message() string   { return e.message }
func (e *APIError) Operation() string { return e.operation }

// CollisionError reports that the external identifier sent with a request is already in use.
type CollisionError struct {
	operation  string
	statusCode int
	message    string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("%s: identifier collision: %s", e.operation, e.message)
}

// NewCollisionError builds the error returned when operation was refused because its identifier is taken.
func NewCollisionError(operation string, statusCode int, message string) *CollisionError {
	return &CollisionError{operation: operation, statusCode: statusCode, message: message}
}

func (e *CollisionError) StatusCode() int { return e.statusCode }
func (e *CollisionError) Message() string { return e.message }

func isCollisionMessage(msg string) bool {
	return strings.Contains(strings.ToLower(msg), "already")
}

// IsNotFound reports whether err is an API error with HTTP 404 status.
func IsNotFound(err error) bool { return HasStatusCode(err, http.StatusNotFound) }

// HasStatusCode reports whether err is an API error whose HTTP status code matches.
func HasStatusCode(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.statusCode == code
}

// IsCollision reports whether err is a *CollisionError.
func IsCollision(err error) bool {
	var collision *CollisionError
	return errors.As(err, &collision)
}
