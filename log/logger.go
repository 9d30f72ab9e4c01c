package log

import (
	"context"
	"log/slog"
	"math"
	"os"
	"runtime"
	"sync"
	"time"
)

// errorKey holds a value whose key was missing or not a string.
const errorKey = "LOG_ERROR"

const (
	levelMaxVerbosity slog.Level = math.MinInt
	LevelTrace        slog.Level = -8
	LevelDebug                   = slog.LevelDebug
	LevelInfo                    = slog.LevelInfo
	LevelWarn                    = slog.LevelWarn
	LevelError                   = slog.LevelError
	LevelCrit         slog.Level = 12
)

func LevelString(l slog.Level) string {
	switch l {
	case LevelTrace:
		return "trace"
	case slog.LevelDebug:
		return "debug"
	case slog.LevelInfo:
		return "info"
	case slog.LevelWarn:
		return "warn"
	case slog.LevelError:
		return "error"
	case LevelCrit:
		return "crit"
	default:
		return "unknown"
	}
}

// Logger writes module tagged key/value records to a slog handler and can
// keep a copy of them for tests and run reports.
type Logger interface {
	// Write emits msg at level. The module is added as the "module" attribute.
	Write(level slog.Level, module string, msg string, attrs ...any)

	// With returns a Logger that adds attrs to every record.
	With(attrs ...any) Logger

	Enabled(ctx context.Context, level slog.Level) bool
	Handler() slog.Handler

	// RecordLogs starts keeping a copy of every emitted record.
	RecordLogs()
	// GetRecordedLogs returns the kept records as JSON lines and clears them.
	GetRecordedLogs() ([]byte, error)
}

// recorder is shared by a logger and everything derived from it with With.
type recorder struct {
	mu      sync.Mutex
	on      bool
	records []StructuredLog
}

type logger struct {
	inner *slog.Logger
	attrs []any
	rec   *recorder
}

func NewLogger(h slog.Handler) Logger {
	return &logger{inner: slog.New(h), rec: new(recorder)}
}

func (l *logger) Handler() slog.Handler { return l.inner.Handler() }

func (l *logger) Enabled(ctx context.Context, level slog.Level) bool {
	return l.inner.Enabled(ctx, level)
}

func (l *logger) With(attrs ...any) Logger {
	all := append(append([]any{}, l.attrs...), attrs...)
	return &logger{inner: l.inner, attrs: all, rec: l.rec}
}

func (l *logger) Write(level slog.Level, module string, msg string, attrs ...any) {
	if len(l.attrs) > 0 {
		attrs = append(append([]any{}, l.attrs...), attrs...)
	}
	l.rec.add(level, module, msg, attrs)
	if l.inner.Enabled(context.Background(), level) {
		// skip Callers, Write and the package level helper
		var pcs [1]uintptr
		runtime.Callers(3, pcs[:])
		r := slog.NewRecord(time.Now(), level, msg, pcs[0])
		if module != "" {
			r.AddAttrs(slog.String("module", module))
		}
		r.Add(attrs...)
		l.inner.Handler().Handle(context.Background(), r)
	}
	if level >= LevelCrit {
		os.Exit(1)
	}
}

func (l *logger) RecordLogs() {
	l.rec.mu.Lock()
	l.rec.on = true
	l.rec.mu.Unlock()
}

func (l *logger) GetRecordedLogs() ([]byte, error) {
	l.rec.mu.Lock()
	records := l.rec.records
	l.rec.records = nil
	l.rec.mu.Unlock()
	return encodeStructuredLogs(records)
}

func (r *recorder) add(level slog.Level, module string, msg string, attrs []any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.on {
		r.records = append(r.records, newStructuredLog(level, module, msg, attrs))
	}
}
