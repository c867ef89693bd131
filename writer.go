package log2what

import (
	"errors"
	"io"
	"sync"
)

// Writer is the capability every sink implements. A zero timestamp means "now".
// Write never reports failure; a sink that cannot persist a record drops it.
type Writer interface {
	Write(level Level, module, comment, data string, timestamp int64)
}

// closeWriter closes w if it holds resources
func closeWriter(w Writer) error {
	if c, ok := w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// MultiWriter fans each record out to every held writer, in insertion order.
// It owns its writers and closes them on Close.
type MultiWriter struct {
	mu      sync.RWMutex
	writers []Writer
}

// NewMultiWriter creates a fan-out over the given writers, skipping nil entries
func NewMultiWriter(writers ...Writer) *MultiWriter {
	m := &MultiWriter{}
	for _, w := range writers {
		if w != nil {
			m.writers = append(m.writers, w)
		}
	}
	return m
}

// Append adds a writer to the fan-out
func (m *MultiWriter) Append(w Writer) *MultiWriter {
	if w == nil {
		return m
	}
	m.mu.Lock()
	m.writers = append(m.writers, w)
	m.mu.Unlock()
	return m
}

// Len returns the number of held writers
func (m *MultiWriter) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.writers)
}

// Write forwards the record to every writer
func (m *MultiWriter) Write(level Level, module, comment, data string, timestamp int64) {
	timestamp = resolveTimestamp(timestamp)
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, w := range m.writers {
		w.Write(level, module, comment, data, timestamp)
	}
}

// Close closes every held writer and returns the joined errors
func (m *MultiWriter) Close() error {
	m.mu.Lock()
	writers := m.writers
	m.writers = nil
	m.mu.Unlock()

	var errs []error
	for _, w := range writers {
		if err := closeWriter(w); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// MaskWriter forwards only records at or above its mask level.
type MaskWriter struct {
	mask Level
	next Writer
}

// NewMaskWriter wraps next, taking ownership of it
func NewMaskWriter(mask Level, next Writer) *MaskWriter {
	return &MaskWriter{mask: mask, next: next}
}

// Mask returns the minimum level forwarded
func (s *MaskWriter) Mask() Level {
	return s.mask
}

// Write forwards the record when level >= mask
func (s *MaskWriter) Write(level Level, module, comment, data string, timestamp int64) {
	if level < s.mask || s.next == nil {
		return
	}
	s.next.Write(level, module, comment, data, timestamp)
}

// Close closes the wrapped writer
func (s *MaskWriter) Close() error {
	if s.next == nil {
		return nil
	}
	return closeWriter(s.next)
}

// discardWriter drops everything
type discardWriter struct{}

func (discardWriter) Write(Level, string, string, string, int64) {}

// Discard is a Writer that drops every record
var Discard Writer = discardWriter{}
