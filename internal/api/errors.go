// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

package api

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/sony/gobreaker/v2"

	"github.com/tomtom215/tagwatch/internal/console"
	"github.com/tomtom215/tagwatch/internal/rtls"
	"github.com/tomtom215/tagwatch/internal/storage"
	"github.com/tomtom215/tagwatch/internal/stream"
)

// ErrCodeRTLSUnavailable is returned while the RTLS circuit breaker is open.
const ErrCodeRTLSUnavailable = "RTLS_UNAVAILABLE"

// operatorErrors are rejected with 400 and their message shown as-is.
var operatorErrors = []error{
	console.ErrTooFewPoints,
	console.ErrOutsideZone,
	console.ErrZoneBoundsAbsent,
	console.ErrNoZone,
	console.ErrUnknownZone,
	console.ErrPortableMove,
	console.ErrUnknownMapKey,
	stream.ErrNoTags,
	rtls.ErrValidation,
}

// writeConsoleError maps a console error onto a status code.
func writeConsoleError(rw *ResponseWriter, err error) {
	for _, target := range operatorErrors {
		if errors.Is(err, target) {
			rw.BadRequest(err.Error())
			return
		}
	}

	var urlErr *url.Error
	switch {
	case errors.Is(err, console.ErrDuplicateName):
		rw.Conflict(err.Error())
	case errors.Is(err, console.ErrTriggerNotFound), errors.Is(err, rtls.ErrNotFound):
		rw.NotFound(err.Error())
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		rw.Error(http.StatusServiceUnavailable, ErrCodeRTLSUnavailable, "The RTLS is not answering, retry shortly")
	case errors.Is(err, rtls.ErrServer), errors.As(err, &urlErr):
		rw.ExternalServiceError("rtls", err)
	case errors.Is(err, storage.ErrClosed):
		rw.StorageError(err)
	default:
		rw.InternalError(err.Error())
	}
}
