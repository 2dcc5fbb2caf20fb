// Package log provides structured logging for lootbox.
// Entries carry a level, a category and key=value fields, are written to a
// file or writer, and are republished to pubsub listeners.
package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zjrosen/lootbox/internal/pubsub"
)

// Level represents log severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a config string to a Level. Unknown values map to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Category groups related log messages.
type Category string

const (
	CatConfig    Category = "config"    // Configuration loading/saving
	CatCatalogue Category = "catalogue" // Catalogue parsing and validation
	CatLoader    Category = "loader"    // Sessions, submissions, aggregate completion
	CatRegistry  Category = "registry"  // Registry writes and binder activity
	CatScene     Category = "scene"     // Scene graph traversal
	CatFormats   Category = "formats"   // Fetching and decoding of model/texture files
	CatCache     Category = "cache"     // cache operations
	CatJournal   Category = "journal"   // Session history persistence
	CatTracing   Category = "tracing"   // Trace provider lifecycle
)

// Logger writes formatted entries to w and republishes them.
type Logger struct {
	mu       sync.Mutex
	w        io.Writer
	minLevel atomic.Int32
	broker   *pubsub.Broker[string]
	now      func() time.Time
}

// New creates a logger writing entries at or above level to w.
func New(w io.Writer, level Level) *Logger {
	l := &Logger{
		w:      w,
		broker: pubsub.NewBroker[string](),
		now:    time.Now,
	}
	l.minLevel.Store(int32(level))
	return l
}

var current atomic.Pointer[Logger]

// Init sends the package logger to the file at path, appending to it.
// The returned func closes the file.
func Init(path string) (func(), error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) //nolint:gosec // G304: path is user-controlled log path
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	l := New(f, LevelDebug)
	swap(l)
	return func() {
		current.CompareAndSwap(l, nil)
		l.broker.Close()
		_ = f.Close()
	}, nil
}

// InitWithWriter sends the package logger to w.
// Used by the CLI for --debug output on stderr and by tests.
func InitWithWriter(w io.Writer, level Level) {
	swap(New(w, level))
}

func swap(l *Logger) {
	if old := current.Swap(l); old != nil && old != l {
		old.broker.Close()
	}
}

// SetMinLevel sets the minimum level of the package logger.
func SetMinLevel(level Level) {
	if l := current.Load(); l != nil {
		l.minLevel.Store(int32(level))
	}
}

// Debug logs at debug level.
func Debug(cat Category, msg string, fields ...any) { current.Load().log(LevelDebug, cat, msg, fields) }

// Info logs at info level.
func Info(cat Category, msg string, fields ...any) { current.Load().log(LevelInfo, cat, msg, fields) }

// Warn logs at warning level.
func Warn(cat Category, msg string, fields ...any) { current.Load().log(LevelWarn, cat, msg, fields) }

// Error logs at error level.
func Error(cat Category, msg string, fields ...any) { current.Load().log(LevelError, cat, msg, fields) }

// ErrorErr logs at error level with err appended as the "error" field.
func ErrorErr(cat Category, msg string, err error, fields ...any) {
	fields = append(fields, "error", err)
	current.Load().log(LevelError, cat, msg, fields)
}

// Enabled reports whether the logger writes entries at level.
func (l *Logger) Enabled(level Level) bool {
	return l != nil && level >= Level(l.minLevel.Load())
}

func (l *Logger) log(level Level, cat Category, msg string, fields []any) {
	if !l.Enabled(level) {
		return
	}
	entry := l.format(level, cat, msg, fields)

	l.mu.Lock()
	_, _ = io.WriteString(l.w, entry)
	l.mu.Unlock()

	l.broker.Publish(pubsub.LogEntryEvent, entry)
}

// format renders one line:
//
//	2025-12-06T10:45:00 [ERROR] [loader] Asset failed to load name=coins error="not found"
func (l *Logger) format(level Level, cat Category, msg string, fields []any) string {
	var b strings.Builder
	b.WriteString(l.now().Format("2006-01-02T15:04:05"))
	fmt.Fprintf(&b, " [%s] [%s] %s", level, cat, msg)
	for i := 0; i < len(fields); i += 2 {
		b.WriteByte(' ')
		fmt.Fprint(&b, fields[i])
		b.WriteByte('=')
		if i+1 < len(fields) {
			b.WriteString(formatValue(fields[i+1]))
		} else {
			b.WriteString("<missing>")
		}
	}
	b.WriteByte('\n')
	return b.String()
}

func formatValue(v any) string {
	var s string
	switch v := v.(type) {
	case nil:
		return "<nil>"
	case error:
		s = v.Error()
	case string:
		s = v
	default:
		s = fmt.Sprint(v)
	}
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return strconv.Quote(s)
	}
	return s
}

// LogEvent is a pubsub event containing a log entry.
type LogEvent = pubsub.Event[string]

// Subscribe returns a channel of log entries, closed when ctx is cancelled
// or the package logger is replaced. Returns nil when no logger is installed.
func Subscribe(ctx context.Context) <-chan LogEvent {
	l := current.Load()
	if l == nil {
		return nil
	}
	return l.broker.Subscribe(ctx, pubsub.LogEntryEvent)
}
