package core

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

type logEntry struct {
	level  string
	msg    string
	fields []Field
}

func (e logEntry) field(key string) any {
	for _, f := range e.fields {
		if f.Key == key {
			return f.Value
		}
	}
	return nil
}

// recordingLogger captures log calls for assertions.
type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) add(level, msg string, fields []Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg, fields: fields})
}

func (l *recordingLogger) Debug(msg string, fields ...Field) { l.add("debug", msg, fields) }
func (l *recordingLogger) Info(msg string, fields ...Field)  { l.add("info", msg, fields) }
func (l *recordingLogger) Warn(msg string, fields ...Field)  { l.add("warn", msg, fields) }
func (l *recordingLogger) Error(msg string, fields ...Field) { l.add("error", msg, fields) }

// TestSlogLogger verifies fields are forwarded as slog attributes and levels are honoured
// Given: A SlogLogger over a text handler at info level
// When: Debug and Info are logged
// Then: Only the info line is written, with its fields
func TestSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))

	logger.Debug("hidden", F("k", 1))
	logger.Info("runner started", F("runner", "r1"), F("workers", 4))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug line written at info level: %q", out)
	}
	for _, want := range []string{"runner started", "runner=r1", "workers=4"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestNoOpLogger(t *testing.T) {
	var l Logger = NewNoOpLogger()
	l.Debug("x")
	l.Info("x")
	l.Warn("x")
	l.Error("x", F("k", "v"))
}
