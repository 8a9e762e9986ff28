// Package logging provides leveled logging and import tracing for tsimport.
// It offers two complementary outputs:
//   - A leveled slog.Logger for stderr (operational output)
//   - An ImportLog for structured JSONL import events (.tsimport/imports.jsonl)
package logging

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// LevelTrace is a custom slog level below Debug for per-step pipeline output.
const LevelTrace = slog.LevelDebug - 4

// ImportLogFile is the JSONL file ImportLog appends to.
const ImportLogFile = "imports.jsonl"

// ParseLevel maps a string level name to a slog.Level.
// Supported values: "error", "warn", "info", "debug", "trace" (case-insensitive).
// Unknown values default to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "error":
		return slog.LevelError
	case "warn", "warning":
		return slog.LevelWarn
	case "debug":
		return slog.LevelDebug
	case "trace":
		return LevelTrace
	default:
		return slog.LevelInfo
	}
}

// ValidLevel reports whether s names a known level.
func ValidLevel(s string) bool {
	switch strings.ToLower(s) {
	case "error", "warn", "warning", "info", "debug", "trace":
		return true
	}
	return false
}

// NewLogger creates a leveled slog.Logger writing to w.
func NewLogger(level string, w io.Writer) *slog.Logger {
	lvl := ParseLevel(level)
	opts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// ImportLog writes import lifecycle events to a JSONL file.
// It is safe for concurrent use. A nil ImportLog is safe to use;
// all methods are no-ops on nil receiver.
type ImportLog struct {
	mu   sync.Mutex
	file *os.File
}

// NewImportLog creates an import log writing to dir/imports.jsonl.
// Below debug level it returns nil and no file is created.
// Returns nil if the file cannot be opened.
func NewImportLog(dir string, level string) *ImportLog {
	if ParseLevel(level) > slog.LevelDebug {
		return nil
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil
	}

	f, err := os.OpenFile(filepath.Join(dir, ImportLogFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil
	}
	return &ImportLog{file: f}
}

// Log writes an event as a single JSONL line. "event" and "time" fields are
// added. The caller's map is not mutated.
func (l *ImportLog) Log(event string, fields map[string]any) {
	if l == nil || l.file == nil {
		return
	}

	entry := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		entry[k] = v
	}
	entry["event"] = event
	entry["time"] = time.Now().UTC().Format(time.RFC3339Nano)

	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	data = append(data, '\n')
	_, _ = l.file.Write(data)
}

// Close closes the underlying file. Safe to call on nil receiver.
func (l *ImportLog) Close() {
	if l == nil || l.file == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.file.Close()
	l.file = nil
}
