package log2what

import (
	"sync"
	"sync/atomic"
)

// Logger is the module-scoped front end: it stamps records with a module name
// and a timestamp and hands them to a single Writer, which it owns.
type Logger struct {
	module string
	w      Writer
	closed atomic.Bool

	mu        sync.Mutex
	heartbeat *Heartbeat
}

// NewLogger creates a logger for module writing to w. A nil w makes the logger a no-op.
func NewLogger(module string, w Writer) *Logger {
	if module == "" {
		module = defaultModule
	}
	if w == nil {
		w = Discard
	}
	return &Logger{module: module, w: w}
}

// Module returns the module name stamped on records
func (l *Logger) Module() string {
	return l.module
}

// Writer returns the writer the logger feeds
func (l *Logger) Writer() Writer {
	return l.w
}

// Trace logs at TRACE level
func (l *Logger) Trace(comment string, data ...any) {
	l.log(LevelTrace, l.module, comment, data)
}

// Debug logs at DEBUG level
func (l *Logger) Debug(comment string, data ...any) {
	l.log(LevelDebug, l.module, comment, data)
}

// Info logs at INFO level
func (l *Logger) Info(comment string, data ...any) {
	l.log(LevelInfo, l.module, comment, data)
}

// Warn logs at WARN level
func (l *Logger) Warn(comment string, data ...any) {
	l.log(LevelWarn, l.module, comment, data)
}

// Error logs at ERROR level
func (l *Logger) Error(comment string, data ...any) {
	l.log(LevelError, l.module, comment, data)
}

// Log logs at the given level
func (l *Logger) Log(level Level, comment string, data ...any) {
	l.log(level, l.module, comment, data)
}

// log renders data and writes one record. The timestamp is taken once here,
// so every sink behind a fan-out sees the same value.
func (l *Logger) log(level Level, module, comment string, data []any) {
	if l.closed.Load() {
		return
	}
	l.w.Write(level, module, comment, formatData(data), now())
}

// attachHeartbeat makes Close stop h before closing the writer
func (l *Logger) attachHeartbeat(h *Heartbeat) {
	l.mu.Lock()
	l.heartbeat = h
	l.mu.Unlock()
}

// Close stops an attached heartbeat and closes the writer. Later calls are no-ops.
func (l *Logger) Close() error {
	if !l.closed.CompareAndSwap(false, true) {
		return nil
	}
	l.mu.Lock()
	h := l.heartbeat
	l.heartbeat = nil
	l.mu.Unlock()
	if h != nil {
		h.Stop()
	}
	return closeWriter(l.w)
}
