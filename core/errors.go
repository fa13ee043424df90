// SPDX-License-Identifier: MPL-2.0

package core

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
)

// ValidationError means the request or the chart's current state does not allow the operation.
type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string { return e.Message }
func (e *ValidationError) Unwrap() error { return e.Err }

func validationErrorf(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// TranslationError wraps a failure to translate a chart's source query. Nothing was sent anywhere.
type TranslationError struct {
	Err error
}

func (e *TranslationError) Error() string { return "failed to translate query: " + e.Err.Error() }
func (e *TranslationError) Unwrap() error { return e.Err }

type Stage string

const (
	StagePortal    Stage = "portal"
	StageAnalytics Stage = "analytics"
)

// PublishFailure is returned when a publish stage gives up. Writes made by earlier stages stay in place.
type PublishFailure struct {
	Stage    Stage
	Attempts int
	Err      error
}

func (e *PublishFailure) Error() string {
	return fmt.Sprintf("publish failed at %s stage after %d attempt(s): %v", e.Stage, e.Attempts, e.Err)
}

func (e *PublishFailure) Unwrap() error { return e.Err }
