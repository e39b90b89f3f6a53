// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"

	"github.com/tomtom215/tagwatch/internal/config"
	"github.com/tomtom215/tagwatch/internal/console"
	"github.com/tomtom215/tagwatch/internal/eventlog"
	"github.com/tomtom215/tagwatch/internal/mapsurface"
	"github.com/tomtom215/tagwatch/internal/models"
	"github.com/tomtom215/tagwatch/internal/rtls"
	"github.com/tomtom215/tagwatch/internal/storage"
	"github.com/tomtom215/tagwatch/internal/stream"
)

// fakeConsole records calls and returns canned errors.
type fakeConsole struct {
	mu sync.Mutex

	connectErr error
	createErr  error
	deleteErr  error
	moveErr    error
	zoneErr    error
	keyErr     error

	connectedTags []string
	connectedZone int
	zone          int
	showEvents    bool
	created       []models.TriggerDraft
	deleted       []int
	moved         map[int]models.Point3
	view          mapsurface.View
	prefs         models.MapPreferences
	cleared       bool
	triggers      []models.Trigger
}

func newFakeConsole() *fakeConsole {
	return &fakeConsole{
		zone:  1,
		moved: make(map[int]models.Point3),
		prefs: models.DefaultMapPreferences(),
		triggers: []models.Trigger{
			{TriggerID: 10, Name: "Dock", DirectionID: models.DirectionOnEnter, ZoneID: models.IntPtr(1)},
		},
	}
}

func (f *fakeConsole) Status() console.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return console.Status{
		Stream:     stream.Status{Connected: len(f.connectedTags) > 0, TagIDs: f.connectedTags, ZoneID: f.connectedZone},
		ZoneID:     f.zone,
		ShowEvents: f.showEvents,
		Triggers:   len(f.triggers),
	}
}

func (f *fakeConsole) Connect(_ context.Context, tagIDs []string, zoneID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.connectErr != nil {
		return f.connectErr
	}
	f.connectedTags = tagIDs
	f.connectedZone = zoneID
	return nil
}

func (f *fakeConsole) Disconnect(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connectedTags = nil
	return nil
}

func (f *fakeConsole) SwitchZone(_ context.Context, zoneID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.zoneErr != nil {
		return f.zoneErr
	}
	f.zone = zoneID
	return nil
}

func (f *fakeConsole) Zones() []models.Zone {
	return []models.Zone{{ZoneID: 1, Name: "Lab"}, {ZoneID: 2, Name: "Yard"}}
}

func (f *fakeConsole) Triggers() []models.Trigger {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Trigger(nil), f.triggers...)
}

func (f *fakeConsole) Refresh(context.Context) error { return nil }

func (f *fakeConsole) CreateTrigger(_ context.Context, d models.TriggerDraft) (models.Trigger, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return models.Trigger{}, f.createErr
	}
	f.created = append(f.created, d)
	t := models.Trigger{TriggerID: 100 + len(f.created), Name: d.Name, DirectionID: d.DirectionID, ZoneID: models.IntPtr(d.ZoneID)}
	f.triggers = append(f.triggers, t)
	return t, nil
}

func (f *fakeConsole) DeleteTrigger(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeConsole) MoveTrigger(_ context.Context, id int, to models.Point3) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.moveErr != nil {
		return f.moveErr
	}
	f.moved[id] = to
	return nil
}

func (f *fakeConsole) RecentEvents() []eventlog.Entry {
	return []eventlog.Entry{{TriggerID: 10, Text: "T1 entered Dock", Source: models.SourceClient}}
}

func (f *fakeConsole) SystemEvents() []string { return []string{"Connected"} }

func (f *fakeConsole) ClearEvents(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared = true
	return nil
}

func (f *fakeConsole) SetShowEvents(_ context.Context, show bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.showEvents = show
}

func (f *fakeConsole) MapState() console.MapState {
	return console.MapState{View: f.view}
}

func (f *fakeConsole) SetView(_ context.Context, v mapsurface.View) mapsurface.View {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.view = v
	return v
}

func (f *fakeConsole) HandleMapKey(_ context.Context, key string) (mapsurface.View, error) {
	if f.keyErr != nil {
		return mapsurface.View{}, f.keyErr
	}
	return mapsurface.View{Zoom: 1}, nil
}

func (f *fakeConsole) Preferences() models.MapPreferences {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.prefs
}

func (f *fakeConsole) SetPreferences(_ context.Context, p models.MapPreferences) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prefs = p
	return nil
}

func newTestServer(t *testing.T, fc *fakeConsole) http.Handler {
	t.Helper()
	cfg := config.Default()
	cfg.Server.CORSOrigins = []string{"http://console.local"}
	mw := ChiMiddlewareConfigFromServer(cfg.Server)
	mw.RateLimitDisabled = true
	return NewRouter(NewHandler(fc, nil, cfg), mw).SetupChi()
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp APIResponse
	if rec.Code != http.StatusNoContent && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode %s %s: %v (%s)", method, path, err, rec.Body.String())
		}
	}
	return rec, resp
}

func TestStatusIncludesRequestID(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, newFakeConsole())

	rec, resp := doJSON(t, srv, http.MethodGet, "/api/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !resp.Success || resp.Meta == nil {
		t.Fatalf("unexpected envelope: %+v", resp)
	}
	if resp.Meta.RequestID == "" || resp.Meta.RequestID != rec.Header().Get("X-Request-ID") {
		t.Errorf("meta request id %q, header %q", resp.Meta.RequestID, rec.Header().Get("X-Request-ID"))
	}
}

func TestConnect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		connectErr error
		wantStatus int
		wantCode   string
	}{
		{"connects", `{"tag_ids":["T1","T2"],"zone_id":1}`, nil, http.StatusOK, ""},
		{"zone defaults to selected", `{"tag_ids":["T1"]}`, nil, http.StatusOK, ""},
		{"empty body", ``, nil, http.StatusBadRequest, ErrCodeBadRequest},
		{"malformed json", `{"tag_ids":`, nil, http.StatusBadRequest, ErrCodeBadRequest},
		{"unknown field", `{"tags":["T1"]}`, nil, http.StatusBadRequest, ErrCodeBadRequest},
		{"no tags", `{"tag_ids":[]}`, nil, http.StatusBadRequest, ErrCodeValidationFailed},
		{"blank tag", `{"tag_ids":[""]}`, nil, http.StatusBadRequest, ErrCodeValidationFailed},
		{"no zone selected", `{"tag_ids":["T1"]}`, console.ErrNoZone, http.StatusBadRequest, ErrCodeBadRequest},
		{"stream refuses", `{"tag_ids":["T1"]}`, fmt.Errorf("connect: %w", stream.ErrNoTags), http.StatusBadRequest, ErrCodeBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fc := newFakeConsole()
			fc.connectErr = tt.connectErr
			srv := newTestServer(t, fc)

			rec, resp := doJSON(t, srv, http.MethodPost, "/api/connect", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantCode == "" {
				if len(fc.connectedTags) == 0 {
					t.Error("console not connected")
				}
				return
			}
			if resp.Error == nil || resp.Error.Code != tt.wantCode {
				t.Errorf("error = %+v, want code %s", resp.Error, tt.wantCode)
			}
		})
	}
}

func TestCreateTriggerErrors(t *testing.T) {
	t.Parallel()

	valid := `{"name":"Dock","direction_id":4,"zone_id":1,"vertices":[{"x":1,"y":1,"z":0},{"x":5,"y":1,"z":0},{"x":5,"y":5,"z":0}]}`
	tests := []struct {
		name       string
		body       string
		createErr  error
		wantStatus int
	}{
		{"created", valid, nil, http.StatusCreated},
		{"blank name", `{"name":"  ","direction_id":4,"zone_id":1}`, nil, http.StatusBadRequest},
		{"bad direction", `{"name":"Dock","direction_id":9,"zone_id":1}`, nil, http.StatusBadRequest},
		{"portable without radius", `{"name":"Tug","direction_id":4,"zone_id":1,"is_portable":true,"assigned_tag_id":"T1"}`, nil, http.StatusBadRequest},
		{"duplicate", valid, fmt.Errorf("%w: %q", console.ErrDuplicateName, "Dock"), http.StatusConflict},
		{"outside zone", valid, fmt.Errorf("%w: point 1", console.ErrOutsideZone), http.StatusBadRequest},
		{"too few points", valid, console.ErrTooFewPoints, http.StatusBadRequest},
		{"rtls down", valid, &rtls.APIError{Op: "create trigger", Status: 500, Category: rtls.CategoryServer}, http.StatusBadGateway},
		{"breaker open", valid, fmt.Errorf("create trigger: %w", gobreaker.ErrOpenState), http.StatusServiceUnavailable},
		{"storage closed", valid, fmt.Errorf("save: %w", storage.ErrClosed), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fc := newFakeConsole()
			fc.createErr = tt.createErr
			srv := newTestServer(t, fc)

			rec, resp := doJSON(t, srv, http.MethodPost, "/api/triggers", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus == http.StatusCreated {
				if len(fc.created) != 1 || fc.created[0].Name != "Dock" {
					t.Errorf("created = %+v", fc.created)
				}
				return
			}
			if resp.Success || resp.Error == nil || resp.Error.Message == "" {
				t.Errorf("expected an error body, got %+v", resp)
			}
		})
	}
}

func TestDeleteAndMoveTrigger(t *testing.T) {
	t.Parallel()
	fc := newFakeConsole()
	srv := newTestServer(t, fc)

	rec, _ := doJSON(t, srv, http.MethodDelete, "/api/triggers/10", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if len(fc.deleted) != 1 || fc.deleted[0] != 10 {
		t.Errorf("deleted = %v", fc.deleted)
	}

	rec, _ = doJSON(t, srv, http.MethodDelete, "/api/triggers/abc", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d", rec.Code)
	}

	rec, _ = doJSON(t, srv, http.MethodPost, "/api/triggers/10/move", `{"x":3.5,"y":4,"z":1}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("move status = %d (%s)", rec.Code, rec.Body.String())
	}
	if got := fc.moved[10]; got != (models.Point3{X: 3.5, Y: 4, Z: 1}) {
		t.Errorf("moved to %+v", got)
	}

	rec, _ = doJSON(t, srv, http.MethodPost, "/api/triggers/10/move", `{"y":4}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing x status = %d", rec.Code)
	}
}

func TestTriggerNotFoundAndPortableMove(t *testing.T) {
	t.Parallel()
	fc := newFakeConsole()
	fc.deleteErr = fmt.Errorf("%w: 99", console.ErrTriggerNotFound)
	fc.moveErr = fmt.Errorf("%w: 20", console.ErrPortableMove)
	srv := newTestServer(t, fc)

	rec, resp := doJSON(t, srv, http.MethodDelete, "/api/triggers/99", "")
	if rec.Code != http.StatusNotFound || resp.Error.Code != ErrCodeNotFound {
		t.Errorf("delete unknown: %d %+v", rec.Code, resp.Error)
	}
	rec, _ = doJSON(t, srv, http.MethodPost, "/api/triggers/20/move", `{"x":1,"y":1}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("move portable: %d", rec.Code)
	}
}

func TestEventsAndSettings(t *testing.T) {
	t.Parallel()
	fc := newFakeConsole()
	srv := newTestServer(t, fc)

	rec, resp := doJSON(t, srv, http.MethodGet, "/api/events/recent", "")
	if rec.Code != http.StatusOK || resp.Meta.Count == nil || *resp.Meta.Count != 1 {
		t.Errorf("recent: %d %+v", rec.Code, resp.Meta)
	}

	rec, _ = doJSON(t, srv, http.MethodDelete, "/api/events", "")
	if rec.Code != http.StatusNoContent || !fc.cleared {
		t.Errorf("clear: %d cleared=%v", rec.Code, fc.cleared)
	}

	rec, _ = doJSON(t, srv, http.MethodPut, "/api/settings/show-events", `{"show":true}`)
	if rec.Code != http.StatusOK || !fc.showEvents {
		t.Errorf("show events: %d show=%v", rec.Code, fc.showEvents)
	}
	rec, _ = doJSON(t, srv, http.MethodPut, "/api/settings/show-events", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing show: %d", rec.Code)
	}
}

func TestMapEndpoints(t *testing.T) {
	t.Parallel()
	fc := newFakeConsole()
	srv := newTestServer(t, fc)

	rec, _ := doJSON(t, srv, http.MethodPost, "/api/map/view", `{"lat":0.0001,"lng":0.0002,"zoom":2}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("view: %d (%s)", rec.Code, rec.Body.String())
	}
	if fc.view.Zoom != 2 || fc.view.Center != [2]float64{0.0001, 0.0002} {
		t.Errorf("view = %+v", fc.view)
	}

	rec, _ = doJSON(t, srv, http.MethodPost, "/api/map/view", `{"lat":120,"lng":0,"zoom":2}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad latitude: %d", rec.Code)
	}

	rec, _ = doJSON(t, srv, http.MethodPost, "/api/map/key", `{"key":"h"}`)
	if rec.Code != http.StatusOK {
		t.Errorf("key h: %d", rec.Code)
	}
	rec, _ = doJSON(t, srv, http.MethodPost, "/api/map/key", `{"key":"q"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("key q: %d", rec.Code)
	}
}

func TestPreferencesRoundTrip(t *testing.T) {
	t.Parallel()
	fc := newFakeConsole()
	srv := newTestServer(t, fc)

	body := `{"show_static":false,"show_portable":true,"show_tags":true,"show_events":false,"zoom":3,"center_x":1,"center_y":2}`
	rec, resp := doJSON(t, srv, http.MethodPut, "/api/preferences", body)
	if rec.Code != http.StatusOK || !resp.Success {
		t.Fatalf("put: %d (%s)", rec.Code, rec.Body.String())
	}
	if fc.prefs.ShowStatic || fc.prefs.Zoom != 3 {
		t.Errorf("prefs = %+v", fc.prefs)
	}

	rec, _ = doJSON(t, srv, http.MethodPut, "/api/preferences", `{"zoom":50}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("zoom out of range: %d", rec.Code)
	}
}

func TestSwitchZoneUnknown(t *testing.T) {
	t.Parallel()
	fc := newFakeConsole()
	fc.zoneErr = fmt.Errorf("%w: 7", console.ErrUnknownZone)
	srv := newTestServer(t, fc)

	rec, resp := doJSON(t, srv, http.MethodPost, "/api/zone", `{"zone_id":7}`)
	if rec.Code != http.StatusBadRequest || !strings.Contains(resp.Error.Message, "unknown zone") {
		t.Errorf("switch: %d %+v", rec.Code, resp.Error)
	}
}
