// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/tagwatch/internal/validation"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// ConnectRequest is the body of POST /api/connect.
type ConnectRequest struct {
	TagIDs []string `json:"tag_ids" validate:"required,min=1,max=500,dive,required,max=64"`
	ZoneID int      `json:"zone_id" validate:"gte=0"`
}

// ZoneRequest is the body of POST /api/zone.
type ZoneRequest struct {
	ZoneID int `json:"zone_id" validate:"required,gt=0"`
}

// ShowEventsRequest is the body of PUT /api/settings/show-events.
type ShowEventsRequest struct {
	Show *bool `json:"show" validate:"required"`
}

// MoveRequest is the body of POST /api/triggers/{id}/move.
type MoveRequest struct {
	X *float64 `json:"x" validate:"required,finite"`
	Y *float64 `json:"y" validate:"required,finite"`
	Z float64  `json:"z" validate:"finite"`
}

// ViewRequest is the body of POST /api/map/view.
type ViewRequest struct {
	Lat  float64 `json:"lat" validate:"finite,latitude"`
	Lng  float64 `json:"lng" validate:"finite,longitude"`
	Zoom float64 `json:"zoom" validate:"finite,gte=-10,lte=10"`
}

// MapKeyRequest is the body of POST /api/map/key.
type MapKeyRequest struct {
	Key string `json:"key" validate:"required,mapkey"`
}

// decodeAndValidate reads a JSON body into dst and validates it. It writes
// the error response itself and reports whether the handler may continue.
func decodeAndValidate(rw *ResponseWriter, r *http.Request, dst interface{}) bool {
	body := http.MaxBytesReader(rw.w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			rw.BadRequest("Request body is empty")
			return false
		}
		rw.BadRequest("Invalid JSON body: " + err.Error())
		return false
	}
	if verr := validation.ValidateStruct(dst); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return false
	}
	return true
}

// triggerIDParam parses the {id} path parameter.
func triggerIDParam(rw *ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		rw.BadRequest("Invalid trigger ID: " + strconv.Quote(raw))
		return 0, false
	}
	return id, true
}
