// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

package eventlog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/tagwatch/internal/config"
	"github.com/tomtom215/tagwatch/internal/models"
	"github.com/tomtom215/tagwatch/internal/storage"
)

func testEventsConfig() config.EventsConfig {
	return config.EventsConfig{Show: true, RecentLimit: 10, HighlightDuration: 30 * time.Millisecond}
}

func openStore(t *testing.T) *storage.Store {
	t.Helper()
	s, err := storage.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func event(triggerID int, verb models.Verb) models.TriggerEvent {
	return models.TriggerEvent{
		TriggerID:   triggerID,
		TriggerName: fmt.Sprintf("T%d", triggerID),
		TagID:       "23001",
		ZoneName:    "Floor 1",
		Sequence:    models.SeqOf(1),
		Direction:   models.DirectionOnEnter,
		Verb:        verb,
		At:          time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC),
		Source:      models.SourceClient,
	}
}

// failingStore rejects every write.
type failingStore struct{}

func (f *failingStore) LoadEvents(context.Context) ([]string, error) { return nil, errors.New("corrupt") }
func (f *failingStore) SaveEvents(context.Context, []string) error { return errors.New("disk full") }
func (f *failingStore) ClearEvents(context.Context) error { return errors.New("disk full") }

func TestRecentRingKeepsLastTen(t *testing.T) {
	t.Parallel()

	l := New(testEventsConfig(), openStore(t), Hooks{})
	defer l.Close()
	ctx := context.Background()

	for i := 1; i <= 12; i++ {
		l.AddTriggerEvent(ctx, event(i, models.VerbEntered))
	}

	recent := l.Recent()
	if len(recent) != 10 {
		t.Fatalf("recent = %d, want 10", len(recent))
	}
	if recent[0].TriggerID != 3 || recent[9].TriggerID != 12 {
		t.Errorf("ring holds %d..%d, want 3..12", recent[0].TriggerID, recent[9].TriggerID)
	}
	if n := len(l.SystemEvents()); n != 12 {
		t.Errorf("system events = %d, want 12", n)
	}
	if !strings.Contains(recent[9].Text, "entered") {
		t.Errorf("text %q lacks verb", recent[9].Text)
	}
}

func TestHighlightClearsAfterDuration(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var seen []int
	l := New(testEventsConfig(), openStore(t), Hooks{
		OnHighlight: func(id int) {
			mu.Lock()
			seen = append(seen, id)
			mu.Unlock()
		},
	})
	defer l.Close()

	l.AddTriggerEvent(context.Background(), event(4, models.VerbExited))
	if got := l.Highlighted(); got != 4 {
		t.Fatalf("highlighted = %d, want 4", got)
	}

	deadline := time.Now().Add(time.Second)
	for l.Highlighted() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if l.Highlighted() != 0 {
		t.Fatal("highlight not cleared")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 || seen[0] != 4 || seen[1] != 0 {
		t.Errorf("highlight hooks = %v, want [4 0]", seen)
	}
}

func TestSystemEventsSurviveReload(t *testing.T) {
	t.Parallel()

	store := openStore(t)
	ctx := context.Background()

	l := New(testEventsConfig(), store, Hooks{})
	l.now = func() time.Time { return time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC) }
	l.AddSystemEvent(ctx, "control socket error: EOF")
	l.AddTriggerEvent(ctx, event(1, models.VerbIsInside))
	l.Close()

	reloaded := New(testEventsConfig(), store, Hooks{})
	defer reloaded.Close()
	if err := reloaded.Load(ctx); err != nil {
		t.Fatal(err)
	}
	got := reloaded.SystemEvents()
	if len(got) != 2 || got[0] != "2026-05-01 09:00:00: control socket error: EOF" {
		t.Errorf("reloaded = %q", got)
	}
	if len(reloaded.Recent()) != 0 {
		t.Error("recent ring should not be persisted")
	}
}

func TestClearRemovesBothCopies(t *testing.T) {
	t.Parallel()

	store := openStore(t)
	ctx := context.Background()
	cleared := false
	l := New(testEventsConfig(), store, Hooks{OnCleared: func() { cleared = true }})
	defer l.Close()

	l.AddSystemEvent(ctx, "one")
	if err := l.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if len(l.SystemEvents()) != 0 || !cleared {
		t.Error("memory copy not cleared")
	}
	persisted, err := store.LoadEvents(ctx)
	if err != nil || len(persisted) != 0 {
		t.Errorf("persisted = %v, %v", persisted, err)
	}
}

func TestClearKeepsMemoryWhenStoreFails(t *testing.T) {
	t.Parallel()

	l := New(testEventsConfig(), &failingStore{}, Hooks{})
	defer l.Close()
	ctx := context.Background()

	if err := l.Load(ctx); err == nil {
		t.Error("Load succeeded on a corrupt store")
	}
	l.AddSystemEvent(ctx, "kept")
	if err := l.Clear(ctx); err == nil {
		t.Fatal("Clear succeeded on a failing store")
	}
	if len(l.SystemEvents()) != 1 {
		t.Error("memory cleared although the persisted copy was not")
	}
}

func TestResetRecent(t *testing.T) {
	t.Parallel()

	l := New(testEventsConfig(), openStore(t), Hooks{})
	defer l.Close()
	l.AddTriggerEvent(context.Background(), event(1, models.VerbEntered))
	l.ResetRecent()

	if len(l.Recent()) != 0 || l.Highlighted() != 0 {
		t.Error("recent state not reset")
	}
	if len(l.SystemEvents()) != 1 {
		t.Error("system list touched by ResetRecent")
	}
}
