// Tagwatch - Real-Time Location Trigger Console
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tagwatch

package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestSlogHandlerGroupsAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
	defer Init(DefaultConfig())

	logger := slog.New(NewSlogHandlerWithLogger(NewTestLogger(&buf)))
	logger.WithGroup("supervisor").With("service", "stream").Warn("restarting", "attempt", 2)

	out := buf.String()
	for _, want := range []string{`"level":"warn"`, `"supervisor.service":"stream"`, `"supervisor.attempt":2`, `"message":"restarting"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in %s", want, out)
		}
	}
}

func TestSlogToZerologLevel(t *testing.T) {
	t.Parallel()

	cases := map[slog.Level]zerolog.Level{
		slog.LevelDebug - 4: zerolog.TraceLevel,
		slog.LevelDebug:     zerolog.DebugLevel,
		slog.LevelInfo:      zerolog.InfoLevel,
		slog.LevelWarn:      zerolog.WarnLevel,
		slog.LevelError:     zerolog.ErrorLevel,
	}
	for in, want := range cases {
		if got := slogToZerologLevel(in); got != want {
			t.Errorf("slogToZerologLevel(%v) = %v, want %v", in, got, want)
		}
	}
}
