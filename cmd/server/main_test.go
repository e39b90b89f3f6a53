// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/tomtom215/tagwatch/internal/config"
	"github.com/tomtom215/tagwatch/internal/storage"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, "tagwatch dev") {
		t.Errorf("output = %q", out)
	}
}

func TestEventsListAndClear(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("STORAGE_PATH", dir)
	t.Setenv("LOG_LEVEL", "error")

	cfg := config.Default()
	cfg.Storage.Path = dir
	store, err := storage.Open(cfg.Storage)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := store.SaveEvents(context.Background(), []string{"Connected", "Created trigger 4 (Dock)"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	out, err := execute(t, "events", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "Connected\nCreated trigger 4 (Dock)\n") {
		t.Errorf("list output = %q", out)
	}

	if _, err := execute(t, "events", "clear"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	out, err = execute(t, "events", "list")
	if err != nil {
		t.Fatalf("list after clear: %v", err)
	}
	if !strings.Contains(out, "no events") {
		t.Errorf("list after clear = %q", out)
	}
}

func TestInvalidConfigFails(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("RTLS_CONTROL_URL", "http://not-a-websocket")

	if _, err := execute(t, "events", "list"); err == nil {
		t.Fatal("expected config validation error")
	}
}
