package log2what

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// StreamWriter writes formatted lines to an io.Writer.
// Writes are serialized so lines from concurrent callers never interleave.
type StreamWriter struct {
	mu  sync.Mutex
	out io.Writer
	buf []byte
}

// NewStreamWriter creates a writer over out. A nil out discards everything.
func NewStreamWriter(out io.Writer) *StreamWriter {
	if out == nil {
		out = io.Discard
	}
	return &StreamWriter{out: out, buf: make([]byte, 0, 256)}
}

// NewConsoleWriter writes to stdout
func NewConsoleWriter() *StreamWriter {
	return NewStreamWriter(os.Stdout)
}

// Write formats and emits the record, ignoring output errors
func (s *StreamWriter) Write(level Level, module, comment, data string, timestamp int64) {
	timestamp = resolveTimestamp(timestamp)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf = appendLine(s.buf[:0], level, module, comment, data, timestamp)
	_, _ = s.out.Write(s.buf)
}

// Close closes the underlying stream unless it is stdout or stderr
func (s *StreamWriter) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.out == os.Stdout || s.out == os.Stderr {
		return nil
	}
	if c, ok := s.out.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// ArchiveConfig configures a lumberjack backed stream
type ArchiveConfig struct {
	Path       string // Full path of the active file
	MaxSizeMB  int    // Size before lumberjack rotates
	MaxBackups int    // Rotated files kept, 0 keeps all
	MaxAgeDays int    // Age before rotated files are removed, 0 disables
	Compress   bool   // Gzip rotated files
}

// NewArchiveWriter creates a StreamWriter over a lumberjack logger, which rotates
// by size and prunes by count and age. The directory is created if missing.
func NewArchiveWriter(cfg ArchiveConfig) (*StreamWriter, error) {
	if cfg.Path == "" {
		return nil, fmtErrorf("archive path cannot be empty")
	}
	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmtErrorf("failed to create archive directory '%s': %w", dir, err)
	}
	return NewStreamWriter(&lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}), nil
}
