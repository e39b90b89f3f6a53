// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

package console

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/tagwatch/internal/config"
	"github.com/tomtom215/tagwatch/internal/eventlog"
	"github.com/tomtom215/tagwatch/internal/logging"
	"github.com/tomtom215/tagwatch/internal/mapsurface"
	"github.com/tomtom215/tagwatch/internal/models"
	"github.com/tomtom215/tagwatch/internal/rtls"
	"github.com/tomtom215/tagwatch/internal/storage"
	"github.com/tomtom215/tagwatch/internal/stream"
	"github.com/tomtom215/tagwatch/internal/websocket"
)

func init() {
	logging.Init(logging.Config{Level: "error", Format: "console", Output: io.Discard})
}

var square = []models.Point3{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}, {X: 0, Y: 100}}

// fakeRTLS serves a fixed zone list and an editable trigger list.
type fakeRTLS struct {
	mu        sync.Mutex
	triggers  []models.Trigger
	vertices  map[int][]models.Point3
	inside    bool
	createErr error
	nextID    int

	detailCalls int
	created     []models.TriggerDraft
	deleted     []int
	moved       map[int]models.Point3
}

func newFakeRTLS() *fakeRTLS {
	return &fakeRTLS{
		triggers: []models.Trigger{
			{TriggerID: 10, Name: "Dock door", DirectionID: models.DirectionOnEnter, ZoneID: models.IntPtr(1)},
			{TriggerID: 20, Name: "Forklift", DirectionID: models.DirectionWhileIn, ZoneID: models.IntPtr(1),
				IsPortable: true, AssignedTagID: models.StrPtr("F1"), Radius: models.FloatPtr(2)},
		},
		vertices: map[int][]models.Point3{
			10: {{X: 10, Y: 10}, {X: 20, Y: 10}, {X: 20, Y: 20}, {X: 10, Y: 20}},
		},
		inside: true,
		nextID: 100,
		moved:  make(map[int]models.Point3),
	}
}

func (f *fakeRTLS) ListTriggers(context.Context) ([]models.Trigger, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Trigger(nil), f.triggers...), nil
}

func (f *fakeRTLS) ListZones(context.Context) ([]models.Zone, error) {
	return []models.Zone{{ZoneID: 1, Name: "Lab"}, {ZoneID: 2, Name: "Yard"}}, nil
}

func (f *fakeRTLS) PointInZone(context.Context, float64, float64, float64) ([]models.Zone, error) {
	return []models.Zone{{ZoneID: 1, Name: "Lab"}}, nil
}

func (f *fakeRTLS) PointInTrigger(context.Context, int, float64, float64, float64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inside, nil
}

func (f *fakeRTLS) GetTrigger(_ context.Context, id int) (*rtls.TriggerDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detailCalls++
	return &rtls.TriggerDetail{TriggerID: id, Vertices: f.vertices[id]}, nil
}

func (f *fakeRTLS) ZoneVertices(_ context.Context, zoneID int) (*models.ZoneBounds, error) {
	return &models.ZoneBounds{ZoneID: zoneID, Vertices: square, ZMin: 0, ZMax: 10}, nil
}

func (f *fakeRTLS) CreateTrigger(_ context.Context, d models.TriggerDraft) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return 0, f.createErr
	}
	f.created = append(f.created, d)
	id := f.nextID
	f.nextID++
	f.triggers = append(f.triggers, models.Trigger{TriggerID: id, Name: d.Name, DirectionID: d.DirectionID, ZoneID: models.IntPtr(d.ZoneID)})
	f.vertices[id] = d.Vertices
	return id, nil
}

func (f *fakeRTLS) DeleteTrigger(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	kept := f.triggers[:0]
	for _, t := range f.triggers {
		if t.TriggerID != id {
			kept = append(kept, t)
		}
	}
	f.triggers = kept
	return nil
}

func (f *fakeRTLS) MoveTrigger(_ context.Context, id int, to models.Point3) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.moved[id] = to
	return nil
}

func (f *fakeRTLS) details() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.detailCalls
}

// fakeSession records subscriptions without opening sockets.
type fakeSession struct {
	mu        sync.Mutex
	connected bool
	connects  []int
	tags      []string
}

func (s *fakeSession) Connect(_ context.Context, tagIDs []string, zoneID int) error {
	if len(tagIDs) == 0 {
		return stream.ErrNoTags
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = true
	s.connects = append(s.connects, zoneID)
	s.tags = tagIDs
	return nil
}

func (s *fakeSession) Disconnect(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	return nil
}

func (s *fakeSession) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *fakeSession) Status() stream.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return stream.Status{Connected: s.connected, TagIDs: s.tags}
}

func (s *fakeSession) zones() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.connects...)
}

// recorder is a Broadcaster that keeps what it was sent.
type recorder struct {
	mu         sync.Mutex
	ops        []mapsurface.Op
	events     []eventlog.Entry
	system     []string
	mismatches []websocket.ZoneMismatchData
	highlights []int
}

func (r *recorder) BroadcastMapOps(ops interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, ops.([]mapsurface.Op)...)
}

func (r *recorder) BroadcastTriggerEvent(ev interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev.(eventlog.Entry))
}

func (r *recorder) BroadcastSystemEvent(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.system = append(r.system, text)
}

func (r *recorder) BroadcastConnectionState(string, string, bool) {}

func (r *recorder) BroadcastZoneMismatch(d websocket.ZoneMismatchData) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mismatches = append(r.mismatches, d)
}

func (r *recorder) BroadcastHighlight(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.highlights = append(r.highlights, id)
}

func (r *recorder) eventCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func testConfig() config.Config {
	cfg := *config.Default()
	cfg.RTLS.ReloadRetries = 1
	cfg.RTLS.ReloadRetryDelay = time.Millisecond
	cfg.Ingest.ThrottleWindow = 10 * time.Millisecond
	cfg.Render.PollInterval = time.Hour
	cfg.Events.HighlightDuration = time.Second
	cfg.Containment.PointCheckRate = 0
	cfg.Containment.CheckTimeout = time.Second
	return cfg
}

type harness struct {
	console *Console
	rtls    *fakeRTLS
	session *fakeSession
	ui      *recorder
	store   *storage.Store
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store, err := storage.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	h := &harness{rtls: newFakeRTLS(), session: &fakeSession{}, ui: &recorder{}, store: store}
	c, err := New(testConfig(), h.rtls, store, h.ui, func(stream.Handler) (Session, error) { return h.session, nil })
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h.console = c
	t.Cleanup(func() {
		c.Close()
		_ = store.Close()
	})
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return h
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestStartRendersStaticAndKeepsPortablePending(t *testing.T) {
	h := newHarness(t)
	s := h.console.Surface()

	if got := s.State(mapsurface.GroupStatic, 10); got != mapsurface.StateVisible {
		t.Errorf("static layer state = %s, want visible", got)
	}
	if got := s.State(mapsurface.GroupPortable, 20); got != mapsurface.StateAbsent {
		t.Errorf("portable layer state = %s, want absent until its tag is seen", got)
	}
	if st := h.console.Status(); st.Triggers != 2 {
		t.Errorf("Status().Triggers = %d, want 2", st.Triggers)
	}
}

func TestReloadWithoutChangesSkipsRender(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	before := h.rtls.details()

	for i := 0; i < 3; i++ {
		if err := h.console.ReloadTriggers(ctx); err != nil {
			t.Fatalf("ReloadTriggers: %v", err)
		}
	}
	if got := h.rtls.details(); got != before {
		t.Errorf("detail fetches = %d after unchanged reloads, want %d", got, before)
	}

	h.rtls.mu.Lock()
	h.rtls.triggers[0].Name = "Dock door east"
	h.rtls.mu.Unlock()

	if err := h.console.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if got := h.rtls.details(); got != before+1 {
		t.Errorf("detail fetches = %d after a change, want %d", got, before+1)
	}
}

func TestCreateTriggerChecks(t *testing.T) {
	inZone := []models.Point3{{X: 30, Y: 30}, {X: 40, Y: 30}, {X: 40, Y: 40}}

	tests := []struct {
		name    string
		draft   models.TriggerDraft
		wantErr error
	}{
		{
			name:    "two points",
			draft:   models.TriggerDraft{Name: "Bay", DirectionID: models.DirectionOnEnter, ZoneID: 1, Vertices: inZone[:2]},
			wantErr: ErrTooFewPoints,
		},
		{
			name: "vertex outside zone",
			draft: models.TriggerDraft{Name: "Bay", DirectionID: models.DirectionOnEnter, ZoneID: 1,
				Vertices: []models.Point3{{X: 30, Y: 30}, {X: 140, Y: 30}, {X: 40, Y: 40}}},
			wantErr: ErrOutsideZone,
		},
		{
			name: "ceiling above zone",
			draft: models.TriggerDraft{Name: "Bay", DirectionID: models.DirectionOnEnter, ZoneID: 1,
				Vertices: inZone, ZMax: models.FloatPtr(12)},
			wantErr: ErrOutsideZone,
		},
		{
			name:    "name in use",
			draft:   models.TriggerDraft{Name: " Dock door ", DirectionID: models.DirectionOnEnter, ZoneID: 1, Vertices: inZone},
			wantErr: ErrDuplicateName,
		},
		{
			name:  "valid polygon",
			draft: models.TriggerDraft{Name: "Bay", DirectionID: models.DirectionOnEnter, ZoneID: 1, Vertices: inZone},
		},
		{
			name: "portable needs no polygon",
			draft: models.TriggerDraft{Name: "Cart", DirectionID: models.DirectionWhileIn, ZoneID: 1,
				IsPortable: true, AssignedTagID: models.StrPtr("C1"), Radius: models.FloatPtr(1.5)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			trig, err := h.console.CreateTrigger(context.Background(), tt.draft)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("CreateTrigger() error = %v, want %v", err, tt.wantErr)
				}
				if len(h.rtls.created) != 0 {
					t.Error("rejected draft reached the RTLS")
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateTrigger() error = %v", err)
			}
			if trig.TriggerID != 100 {
				t.Errorf("TriggerID = %d, want 100", trig.TriggerID)
			}
			if _, ok := h.console.Registry().Trigger(100); !ok {
				t.Error("created trigger missing from registry")
			}
		})
	}
}

func TestCreateTriggerTranslatesServerErrors(t *testing.T) {
	h := newHarness(t)
	h.rtls.createErr = &rtls.APIError{Op: "create_trigger", Status: 400, Category: rtls.CategoryDuplicateName, Detail: "exists"}

	_, err := h.console.CreateTrigger(context.Background(), models.TriggerDraft{
		Name: "Other", DirectionID: models.DirectionOnEnter, ZoneID: 1,
		Vertices: []models.Point3{{X: 30, Y: 30}, {X: 40, Y: 30}, {X: 40, Y: 40}},
	})
	if !errors.Is(err, ErrDuplicateName) {
		t.Errorf("error = %v, want ErrDuplicateName", err)
	}
}

func TestDeleteTrigger(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if err := h.console.DeleteTrigger(ctx, 99); !errors.Is(err, ErrTriggerNotFound) {
		t.Errorf("DeleteTrigger(99) = %v, want ErrTriggerNotFound", err)
	}
	if err := h.console.DeleteTrigger(ctx, 10); err != nil {
		t.Fatalf("DeleteTrigger(10) = %v", err)
	}
	if _, ok := h.console.Registry().Trigger(10); ok {
		t.Error("deleted trigger still in registry")
	}
	if got := h.console.Surface().State(mapsurface.GroupStatic, 10); got != mapsurface.StateAbsent {
		t.Errorf("layer state after delete = %s", got)
	}
}

func TestMoveTrigger(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if err := h.console.MoveTrigger(ctx, 20, models.Point3{X: 1, Y: 1}); !errors.Is(err, ErrPortableMove) {
		t.Errorf("moving a portable trigger = %v, want ErrPortableMove", err)
	}

	before := h.rtls.details()
	to := models.Point3{X: 50, Y: 50}
	if err := h.console.MoveTrigger(ctx, 10, to); err != nil {
		t.Fatalf("MoveTrigger: %v", err)
	}
	if h.rtls.moved[10] != to {
		t.Errorf("RTLS move = %+v, want %+v", h.rtls.moved[10], to)
	}
	if h.rtls.details() <= before {
		t.Error("static geometry was not refetched after a move")
	}
}

func TestConnectAndSwitchZone(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if err := h.console.Connect(ctx, []string{"T1"}, 0); !errors.Is(err, ErrNoZone) {
		t.Fatalf("Connect without zone = %v, want ErrNoZone", err)
	}
	if err := h.console.Connect(ctx, []string{"T1"}, 1); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := h.console.SwitchZone(ctx, 7); !errors.Is(err, ErrUnknownZone) {
		t.Errorf("SwitchZone(7) = %v, want ErrUnknownZone", err)
	}
	if err := h.console.SwitchZone(ctx, 2); err != nil {
		t.Fatalf("SwitchZone: %v", err)
	}

	if got := h.session.zones(); len(got) != 2 || got[1] != 2 {
		t.Errorf("session subscriptions = %v, want [1 2]", got)
	}
	if h.console.Zone() != 2 {
		t.Errorf("Zone() = %d", h.console.Zone())
	}
	// Zone 2 has no triggers.
	if got := h.console.Surface().State(mapsurface.GroupStatic, 10); got != mapsurface.StateAbsent {
		t.Errorf("static layer after zone switch = %s, want absent", got)
	}

	prefs, err := h.store.LoadPreferences(ctx)
	if err != nil {
		t.Fatalf("LoadPreferences: %v", err)
	}
	if prefs.ZoneID == nil || *prefs.ZoneID != 2 {
		t.Errorf("persisted zone = %v, want 2", prefs.ZoneID)
	}
}

func TestPositionFlowEmitsEvent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if err := h.console.Connect(ctx, []string{"T1"}, 1); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	h.console.OnPosition(stream.GISData{Type: "GISData", ID: "T1", X: 15, Y: 15, Sequence: models.SeqOf(1)})

	waitFor(t, "trigger event", func() bool { return h.ui.eventCount() == 1 })

	h.ui.mu.Lock()
	ev := h.ui.events[0]
	h.ui.mu.Unlock()
	if ev.TriggerID != 10 || !strings.Contains(ev.Text, "entered") {
		t.Errorf("event = %+v", ev)
	}
	if got := h.console.Events().Highlighted(); got != 10 {
		t.Errorf("highlighted = %d, want 10", got)
	}

	// Still inside: OnEnter does not fire again.
	h.console.OnPosition(stream.GISData{Type: "GISData", ID: "T1", X: 16, Y: 15, Sequence: models.SeqOf(2)})
	time.Sleep(50 * time.Millisecond)
	if got := h.ui.eventCount(); got != 1 {
		t.Errorf("events = %d after a second inside sample, want 1", got)
	}
}

func TestShowEventsToggle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.console.SetShowEvents(ctx, false)
	if err := h.console.Connect(ctx, []string{"T1"}, 1); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	h.console.OnPosition(stream.GISData{Type: "GISData", ID: "T1", X: 15, Y: 15})
	time.Sleep(80 * time.Millisecond)

	if got := h.ui.eventCount(); got != 0 {
		t.Errorf("events with the toggle off = %d, want 0", got)
	}
	prefs, _ := h.store.LoadPreferences(ctx)
	if prefs.ShowEvents {
		t.Error("show_events not persisted")
	}
}

func TestZoneMismatchBroadcastOnce(t *testing.T) {
	h := newHarness(t)
	if err := h.console.Connect(context.Background(), []string{"T1"}, 1); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	other := 2
	h.console.OnPosition(stream.GISData{Type: "GISData", ID: "T1", X: 1, Y: 1, ZoneID: &other})
	h.console.OnPosition(stream.GISData{Type: "GISData", ID: "T1", X: 2, Y: 1, ZoneID: &other})

	h.ui.mu.Lock()
	defer h.ui.mu.Unlock()
	if len(h.ui.mismatches) != 1 {
		t.Fatalf("mismatch prompts = %d, want 1", len(h.ui.mismatches))
	}
	m := h.ui.mismatches[0]
	if m.ReportedZone != 2 || m.SelectedZone != 1 || !strings.Contains(m.Message, `"Yard"`) {
		t.Errorf("mismatch = %+v", m)
	}
}

func TestMapKeyFromClient(t *testing.T) {
	h := newHarness(t)
	zoom := h.console.Surface().View().Zoom

	raw, _ := json.Marshal(map[string]string{"key": "+"})
	h.console.HandleClientMessage(1, websocket.Inbound{Type: websocket.MessageTypeMapKey, Data: raw})

	if got := h.console.Surface().View().Zoom; got != zoom+1 {
		t.Errorf("zoom = %v, want %v", got, zoom+1)
	}
	if _, err := h.console.HandleMapKey(context.Background(), "q"); !errors.Is(err, ErrUnknownMapKey) {
		t.Errorf("HandleMapKey(q) = %v, want ErrUnknownMapKey", err)
	}
}

func TestSnapshotMessages(t *testing.T) {
	h := newHarness(t)
	msgs := h.console.SnapshotMessages()
	if len(msgs) != 1 || msgs[0].Type != websocket.MessageTypeSnapshot {
		t.Fatalf("snapshot messages = %+v", msgs)
	}
	snap, ok := msgs[0].Data.(Snapshot)
	if !ok {
		t.Fatalf("snapshot data is %T", msgs[0].Data)
	}
	if len(snap.Map.Features.Features) != 1 {
		t.Errorf("features = %d, want the one static polygon", len(snap.Map.Features.Features))
	}
}

func TestManualResetClearsTags(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if err := h.console.Connect(ctx, []string{"T1"}, 1); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	h.console.OnPosition(stream.GISData{Type: "GISData", ID: "T1", X: 15, Y: 15})
	waitFor(t, "flush", func() bool { return h.console.Status().Ingest.Tags == 1 })

	h.console.OnReset(stream.ResetManual)
	if got := h.console.Status().Ingest.Tags; got != 0 {
		t.Errorf("tags after reset = %d", got)
	}
}
