// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/tagwatch/internal/config"
	"github.com/tomtom215/tagwatch/internal/logging"
	"github.com/tomtom215/tagwatch/internal/models"
)

// Fixed storage keys.
const (
	KeySystemEvents   = "system_events"
	KeyMapPreferences = "map_preferences"
)

// gcDiscardRatio is the share of a value log file that must be garbage
// before badger rewrites it.
const gcDiscardRatio = 0.5

// ErrClosed is returned after Close.
var ErrClosed = errors.New("storage: closed")

// Store is a BadgerDB-backed key/value store for console state.
type Store struct {
	db     *badger.DB
	logger *zerolog.Logger
}

// Open opens the store described by cfg.
func Open(cfg config.StorageConfig) (*Store, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts.Logger = newBadgerLogger()

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", cfg.Path, err)
	}
	return &Store{db: db, logger: logging.Component("storage")}, nil
}

// OpenInMemory opens a throwaway store, used by tests and by --ephemeral runs.
func OpenInMemory() (*Store, error) {
	return Open(config.StorageConfig{InMemory: true})
}

// Close releases the database.
func (s *Store) Close() error {
	if s.db.IsClosed() {
		return nil
	}
	return s.db.Close()
}

// getJSON decodes key into v. found is false when the key is absent or its
// value is corrupt.
func (s *Store) getJSON(key string, v any) (found bool, err error) {
	if s.db.IsClosed() {
		return false, ErrClosed
	}
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get %s: %w", key, err)
		}
		return item.Value(func(val []byte) error {
			if uerr := json.Unmarshal(val, v); uerr != nil {
				s.logger.Warn().Err(uerr).Str("key", key).Msg("ignoring corrupt stored value")
				return nil
			}
			found = true
			return nil
		})
	})
	return found, err
}

func (s *Store) putJSON(key string, v any) error {
	if s.db.IsClosed() {
		return ErrClosed
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

func (s *Store) delete(key string) error {
	if s.db.IsClosed() {
		return ErrClosed
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(key)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("delete %s: %w", key, err)
		}
		return nil
	})
}

// LoadEvents returns the persisted system event list. A missing or corrupt
// list yields nil without error.
func (s *Store) LoadEvents(_ context.Context) ([]string, error) {
	var events []string
	if _, err := s.getJSON(KeySystemEvents, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// SaveEvents replaces the persisted system event list.
func (s *Store) SaveEvents(_ context.Context, events []string) error {
	if events == nil {
		events = []string{}
	}
	return s.putJSON(KeySystemEvents, events)
}

// ClearEvents removes the persisted system event list.
func (s *Store) ClearEvents(_ context.Context) error {
	return s.delete(KeySystemEvents)
}

// LoadPreferences returns stored map preferences, or the defaults.
func (s *Store) LoadPreferences(_ context.Context) (models.MapPreferences, error) {
	prefs := models.DefaultMapPreferences()
	found, err := s.getJSON(KeyMapPreferences, &prefs)
	if err != nil {
		return models.DefaultMapPreferences(), err
	}
	if !found {
		return models.DefaultMapPreferences(), nil
	}
	return prefs, nil
}

// SavePreferences persists map preferences.
func (s *Store) SavePreferences(_ context.Context, prefs models.MapPreferences) error {
	return s.putJSON(KeyMapPreferences, prefs)
}

// putRaw writes bytes verbatim. Tests use it to plant corrupt values.
func (s *Store) putRaw(key string, raw []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), raw)
	})
}

// RunGC reclaims value log space until badger reports nothing to rewrite.
// In-memory stores have no value log and return nil.
func (s *Store) RunGC(_ context.Context) error {
	if s.db.IsClosed() {
		return ErrClosed
	}
	if s.db.Opts().InMemory {
		return nil
	}
	for {
		err := s.db.RunValueLogGC(gcDiscardRatio)
		if errors.Is(err, badger.ErrNoRewrite) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("run GC: %w", err)
		}
	}
}
