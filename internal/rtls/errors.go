// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

package rtls

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
)

// Category classifies an API failure.
type Category int

const (
	CategoryValidation Category = iota
	CategoryBoundaryViolation
	CategoryDuplicateName
	CategoryNotFound
	CategoryServer
)

func (c Category) String() string {
	switch c {
	case CategoryBoundaryViolation:
		return "boundary_violation"
	case CategoryDuplicateName:
		return "duplicate_name"
	case CategoryNotFound:
		return "not_found"
	case CategoryServer:
		return "server"
	default:
		return "validation"
	}
}

// Sentinel errors matched through errors.Is on *APIError.
var (
	ErrBoundaryViolation = errors.New("outside zone boundary")
	ErrDuplicateName     = errors.New("duplicate name")
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrServer            = errors.New("rtls server error")
)

// APIError is a non-2xx response from the RTLS.
type APIError struct {
	Op       string
	Status   int
	Category Category
	Detail   string
}

// Error renders the message shown to operators.
func (e *APIError) Error() string {
	switch e.Category {
	case CategoryBoundaryViolation:
		return fmt.Sprintf("%s: coordinates are outside the zone boundary: %s", e.Op, e.Detail)
	case CategoryDuplicateName:
		return fmt.Sprintf("%s: a trigger with that name already exists: %s", e.Op, e.Detail)
	case CategoryNotFound:
		return fmt.Sprintf("%s: not found: %s", e.Op, e.Detail)
	case CategoryServer:
		return fmt.Sprintf("%s: RTLS server error (%d): %s", e.Op, e.Status, e.Detail)
	default:
		return fmt.Sprintf("%s: request rejected (%d): %s", e.Op, e.Status, e.Detail)
	}
}

// Is maps the category onto the sentinel errors.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrBoundaryViolation:
		return e.Category == CategoryBoundaryViolation
	case ErrDuplicateName:
		return e.Category == CategoryDuplicateName
	case ErrNotFound:
		return e.Category == CategoryNotFound
	case ErrValidation:
		return e.Category == CategoryValidation
	case ErrServer:
		return e.Category == CategoryServer
	}
	return false
}

// countsAsFailure reports whether err should trip the breaker.
func countsAsFailure(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= http.StatusInternalServerError
	}
	return true
}

// newAPIError builds an *APIError from a response status and body.
func newAPIError(op string, status int, body []byte) *APIError {
	detail := parseDetail(body)
	if detail == "" {
		detail = http.StatusText(status)
	}
	return &APIError{
		Op:       op,
		Status:   status,
		Category: categorize(status, detail),
		Detail:   detail,
	}
}

func categorize(status int, detail string) Category {
	switch {
	case status >= http.StatusInternalServerError:
		return CategoryServer
	case status == http.StatusNotFound:
		return CategoryNotFound
	}

	lower := strings.ToLower(detail)
	switch {
	case strings.Contains(lower, "outside") || strings.Contains(lower, "boundary") || strings.Contains(lower, "bounds"):
		return CategoryBoundaryViolation
	case strings.Contains(lower, "already exists") || strings.Contains(lower, "duplicate") || status == http.StatusConflict:
		return CategoryDuplicateName
	default:
		return CategoryValidation
	}
}

// parseDetail extracts "detail" from a JSON error body. The field is either a
// string or a list of {msg} objects; anything else falls back to the raw body.
func parseDetail(body []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return strings.TrimSpace(string(body))
	}

	var s string
	if err := json.Unmarshal(envelope.Detail, &s); err == nil {
		return s
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(envelope.Detail, &items); err == nil && len(items) > 0 {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}

	return strings.TrimSpace(string(envelope.Detail))
}
