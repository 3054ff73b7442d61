// log/log_test.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNilLogger(t *testing.T) {
	var l *Logger
	// None of these should crash.
	l.Debug("debug")
	l.Debugf("debug %d", 1)
	l.Info("info")
	l.Infof("info %d", 2)
	if l.With("a", 1) != nil {
		t.Errorf("expected With on nil logger to return nil")
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, slog.LevelInfo)

	l.Debug("hidden")
	l.Info("shown", slog.Int("n", 42))

	s := buf.String()
	if strings.Contains(s, "hidden") {
		t.Errorf("debug message logged at info level: %s", s)
	}
	if !strings.Contains(s, "shown") || !strings.Contains(s, "n=42") {
		t.Errorf("expected info message with attribute, got %q", s)
	}
	if !strings.Contains(s, "callstack") {
		t.Errorf("expected callstack attribute, got %q", s)
	}
}

func TestParseLevel(t *testing.T) {
	for _, tc := range []struct {
		s     string
		level slog.Level
		err   bool
	}{
		{"debug", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	} {
		lvl, err := ParseLevel(tc.s)
		if lvl != tc.level {
			t.Errorf("%q: got level %v, expected %v", tc.s, lvl, tc.level)
		}
		if (err != nil) != tc.err {
			t.Errorf("%q: got error %v, expected error: %v", tc.s, err, tc.err)
		}
	}
}

func stackFromHelper() []StackFrame { return Callstack(nil) }

func TestCallstack(t *testing.T) {
	fr := stackFromHelper()
	if len(fr) == 0 {
		t.Fatal("empty call stack")
	}
	if fr[0].Function != "log.TestCallstack" || fr[0].File != "log_test.go" {
		t.Errorf("got first frame %s, expected log_test.go:log.TestCallstack", fr[0])
	}
}

func TestNilLoggerWarnings(t *testing.T) {
	var buf bytes.Buffer
	old := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	defer slog.SetDefault(old)

	var l *Logger
	l.Info("dropped")
	l.Warnf("kept %d", 1)
	if s := buf.String(); strings.Contains(s, "dropped") || !strings.Contains(s, "kept 1") {
		t.Errorf("got %q, expected only the warning", s)
	}
}
