// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

// Package eventlog keeps the two operator-facing logs: a short ring of recent
// trigger events and the persisted list of system events.
package eventlog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/tagwatch/internal/config"
	"github.com/tomtom215/tagwatch/internal/logging"
	"github.com/tomtom215/tagwatch/internal/models"
	"github.com/tomtom215/tagwatch/internal/schedule"
)

// Store persists the system event list.
type Store interface {
	LoadEvents(ctx context.Context) ([]string, error)
	SaveEvents(ctx context.Context, events []string) error
	ClearEvents(ctx context.Context) error
}

// Entry is one recent trigger event.
type Entry struct {
	TriggerID int                `json:"trigger_id"`
	Text      string             `json:"text"`
	Source    models.EventSource `json:"source"`
	At        time.Time          `json:"timestamp"`
}

// Hooks are called after the log changes. Any of them may be nil.
type Hooks struct {
	OnTriggerEvent func(Entry)
	OnSystemEvent  func(text string)
	OnHighlight    func(triggerID int) // 0 clears the highlight
	OnCleared      func()
}

// Log holds the recent ring and the system list.
type Log struct {
	limit  int
	store  Store
	hooks  Hooks
	logger *zerolog.Logger
	now    func() time.Time

	mu          sync.Mutex
	recent      []Entry
	system      []string
	highlighted int
	unhighlight *schedule.Debouncer
}

// New creates a log persisting through store.
func New(cfg config.EventsConfig, store Store, hooks Hooks) *Log {
	limit := cfg.RecentLimit
	if limit <= 0 {
		limit = 10
	}
	l := &Log{
		limit:  limit,
		store:  store,
		hooks:  hooks,
		logger: logging.Component("eventlog"),
		now:    time.Now,
	}
	l.unhighlight = schedule.NewDebouncer(cfg.HighlightDuration, l.clearHighlight)
	return l
}

// Load restores persisted system events. A failed load leaves the list empty.
func (l *Log) Load(ctx context.Context) error {
	events, err := l.store.LoadEvents(ctx)
	if err != nil {
		l.logger.Warn().Err(err).Msg("Could not load system events, starting empty")
		return fmt.Errorf("load system events: %w", err)
	}
	l.mu.Lock()
	l.system = events
	l.mu.Unlock()
	l.logger.Info().Int("events", len(events)).Msg("Loaded system events")
	return nil
}

// AddTriggerEvent appends ev to the recent ring and the system list and
// highlights its trigger.
func (l *Log) AddTriggerEvent(ctx context.Context, ev models.TriggerEvent) {
	entry := Entry{TriggerID: ev.TriggerID, Text: ev.String(), Source: ev.Source, At: ev.At}

	l.mu.Lock()
	l.recent = append(l.recent, entry)
	if over := len(l.recent) - l.limit; over > 0 {
		l.recent = append([]Entry(nil), l.recent[over:]...)
	}
	l.system = append(l.system, entry.Text)
	l.persistLocked(ctx)
	l.highlighted = ev.TriggerID
	l.unhighlight.Trigger()
	l.mu.Unlock()

	if l.hooks.OnTriggerEvent != nil {
		l.hooks.OnTriggerEvent(entry)
	}
	if l.hooks.OnHighlight != nil {
		l.hooks.OnHighlight(ev.TriggerID)
	}
}

// AddSystemEvent appends a timestamped line to the system list.
func (l *Log) AddSystemEvent(ctx context.Context, text string) {
	line := fmt.Sprintf("%s: %s", l.now().Format("2006-01-02 15:04:05"), text)

	l.mu.Lock()
	l.system = append(l.system, line)
	l.persistLocked(ctx)
	l.mu.Unlock()

	if l.hooks.OnSystemEvent != nil {
		l.hooks.OnSystemEvent(line)
	}
}

// persistLocked saves the system list. Failures are logged only.
func (l *Log) persistLocked(ctx context.Context) {
	if err := l.store.SaveEvents(ctx, l.system); err != nil {
		l.logger.Error().Err(err).Msg("Failed to persist system events")
	}
}

// Clear empties the system list. The persisted copy goes first; memory is
// only cleared when that succeeds.
func (l *Log) Clear(ctx context.Context) error {
	l.mu.Lock()
	if err := l.store.ClearEvents(ctx); err != nil {
		l.mu.Unlock()
		return fmt.Errorf("clear system events: %w", err)
	}
	l.system = nil
	l.mu.Unlock()

	l.logger.Info().Msg("System events cleared")
	if l.hooks.OnCleared != nil {
		l.hooks.OnCleared()
	}
	return nil
}

// Recent returns the ring, oldest first.
func (l *Log) Recent() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Entry(nil), l.recent...)
}

// SystemEvents returns the system list, oldest first.
func (l *Log) SystemEvents() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.system...)
}

// Highlighted returns the highlighted trigger ID, or 0.
func (l *Log) Highlighted() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.highlighted
}

// ResetRecent empties the recent ring and drops the highlight.
func (l *Log) ResetRecent() {
	l.mu.Lock()
	l.recent = nil
	l.highlighted = 0
	l.unhighlight.Cancel()
	l.mu.Unlock()
}

// Close stops the highlight timer.
func (l *Log) Close() {
	l.unhighlight.Stop()
}

func (l *Log) clearHighlight() {
	l.mu.Lock()
	l.highlighted = 0
	l.mu.Unlock()
	if l.hooks.OnHighlight != nil {
		l.hooks.OnHighlight(0)
	}
}
