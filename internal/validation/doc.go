// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

// Package validation provides struct validation using go-playground/validator v10.
//
// A single validator instance is built once and reused; it caches struct
// metadata across calls. Errors name fields by their json tag so messages
// match what API clients sent.
//
// Custom tags:
//   - notblank: string is not empty after trimming whitespace
//   - finite: float is neither NaN nor infinite
//   - mapkey: string is one of the map surface keyboard shortcuts
//
// Usage:
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
//	    return
//	}
package validation
