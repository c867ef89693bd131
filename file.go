package log2what

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
)

// FileConfig describes a rotating file sink
type FileConfig struct {
	Name           string // Base name, files are Name.log.<suffix> or Name.log
	Directory      string // Created recursively if missing
	MaxSize        int64  // Bytes per generation; <= 1 disables rotation
	MaxGenerations int    // Generations kept on disk; <= 1 disables rotation
	KeepOpen       bool   // Keep the file open after the last handle is closed
}

// DefaultFileConfig returns the configuration used by the original file writer:
// "root" in ./log/, 1 MB per file, 50 generations
func DefaultFileConfig() FileConfig {
	return FileConfig{
		Name:           defaultFileName,
		Directory:      defaultDirectory,
		MaxSize:        defaultMaxSize,
		MaxGenerations: defaultMaxGenerations,
	}
}

// normalize fills empty names and clamps limits
func (c FileConfig) normalize() FileConfig {
	if c.Name == "" {
		c.Name = defaultFileName
	}
	if c.Directory == "" {
		c.Directory = defaultDirectory
	}
	if c.MaxSize < 1 {
		c.MaxSize = 1
	}
	if c.MaxGenerations < 0 {
		c.MaxGenerations = 0
	}
	return c
}

// Rotating reports whether the configuration rotates files
func (c FileConfig) Rotating() bool {
	return c.MaxSize > 1 && c.MaxGenerations > 1
}

// fileEntry is the shared state behind every FileWriter on one key
type fileEntry struct {
	mu       sync.Mutex
	key      entryKey
	registry *Registry

	refs           int // guarded by registry.mu
	maxSize        int64
	maxGenerations int
	keepOpen       bool
	closed         bool // removed from the registry, writes are dropped
	fresh          bool // next open is the initial one for this reference cycle

	file         *os.File
	fileRotating bool // mode the current file was opened in
	path         string
	size int64 // bytes written to file, tracked rather than re-stat
	buf  []byte
}

// rotating reports whether the current limits rotate files
func (e *fileEntry) rotating() bool {
	return e.maxSize > 1 && e.maxGenerations > 1
}

// write appends one line, rotating first if the line would push the file past maxSize
func (e *fileEntry) write(level Level, module, comment, data string, timestamp int64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	stats := &e.registry.stats
	if e.closed {
		stats.RecordsDropped.Add(1)
		return
	}

	n := lineLength(module, comment, data)
	if !e.ensureOpen() {
		stats.RecordsDropped.Add(1)
		return
	}
	// An empty file takes any line, so an oversized record cannot cause a rotation loop
	if e.rotating() && e.size > 0 && e.size+n > e.maxSize {
		if !e.rotate() {
			stats.RecordsDropped.Add(1)
			return
		}
	}

	e.buf = appendLine(e.buf[:0], level, module, comment, data, timestamp)
	written, err := e.file.Write(e.buf)
	e.size += int64(written)
	if err != nil {
		stats.RecordsDropped.Add(1)
		e.registry.internalLog("failed to write to log file '%s': %v", e.path, err)
		return
	}
	stats.RecordsWritten.Add(1)
	stats.BytesWritten.Add(uint64(written))
}

// ensureOpen opens a file if none is open. A file opened in the other mode,
// after a later opener switched rotation on or off, is closed and replaced.
func (e *fileEntry) ensureOpen() bool {
	if e.file != nil && e.fileRotating != e.rotating() {
		if err := e.closeFile(); err != nil {
			e.registry.internalLog("failed to close log file on mode change: %v", err)
		}
	}
	return e.file != nil || e.open()
}

// open opens the file for the current mode. In rotating mode the newest
// generation is appended to, or a first one is created. Without rotation the
// static file is truncated on the initial open and appended to on recovery.
// Generations beyond the limit are pruned first.
func (e *fileEntry) open() bool {
	r := e.registry
	initial := e.fresh
	e.fresh = false
	e.fileRotating = e.rotating()
	if err := os.MkdirAll(e.key.dir, 0755); err != nil {
		r.stats.OpenFailures.Add(1)
		r.internalLog("failed to create log directory '%s': %v", e.key.dir, err)
		return false
	}

	if !e.rotating() {
		flags := os.O_APPEND | os.O_CREATE | os.O_WRONLY
		if initial {
			flags |= os.O_TRUNC
		}
		return e.openPath(filepath.Join(e.key.dir, staticFileName(e.key.name)), flags)
	}

	names, err := listGenerationNames(e.key.dir, e.key.name)
	if err != nil {
		r.stats.OpenFailures.Add(1)
		r.internalLog("%v", err)
		return false
	}
	names = e.prune(names, e.maxGenerations)
	if len(names) > 0 {
		return e.openPath(filepath.Join(e.key.dir, names[len(names)-1]), os.O_APPEND|os.O_WRONLY)
	}
	name := nextGenerationName(e.key.name, "", r.now())
	return e.openPath(filepath.Join(e.key.dir, name), os.O_APPEND|os.O_CREATE|os.O_WRONLY)
}

// rotate closes the current file and moves to a new generation. Below the
// generation limit a new file is created; at the limit the oldest generation
// is renamed to the new name and truncated, so the count stays at the limit.
func (e *fileEntry) rotate() bool {
	r := e.registry
	if err := e.closeFile(); err != nil {
		r.internalLog("failed to close log file before rotation: %v", err)
	}

	names, err := listGenerationNames(e.key.dir, e.key.name)
	if err != nil {
		r.stats.OpenFailures.Add(1)
		r.internalLog("%v", err)
		return false
	}

	newest := ""
	if len(names) > 0 {
		newest = names[len(names)-1]
	}
	name := nextGenerationName(e.key.name, newest, r.now())
	path := filepath.Join(e.key.dir, name)

	if len(names) < e.maxGenerations {
		if !e.openPath(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY) {
			return false
		}
		r.stats.Rotations.Add(1)
		return true
	}

	// At the limit: keep maxGenerations files, the oldest of which becomes the new one
	names = e.prune(names, e.maxGenerations)
	oldest := filepath.Join(e.key.dir, names[0])
	if oldest == path {
		r.stats.OpenFailures.Add(1)
		r.internalLog("refusing to reuse log file '%s' under its own name", path)
		return false
	}
	if err := os.Rename(oldest, path); err != nil {
		r.stats.OpenFailures.Add(1)
		r.internalLog("failed to rename log file from '%s' to '%s': %v", oldest, path, err)
		return false
	}
	if !e.openPath(path, os.O_APPEND|os.O_TRUNC|os.O_WRONLY) {
		return false
	}
	r.stats.Reuses.Add(1)
	r.stats.Rotations.Add(1)
	return true
}

// prune removes the oldest names until at most keep remain, returning the
// names still present. Removal failures leave the name in the result.
func (e *fileEntry) prune(names []string, keep int) []string {
	excess := len(names) - keep
	if excess <= 0 {
		return names
	}
	r := e.registry
	var remaining []string
	for i, name := range names {
		if i >= excess {
			remaining = append(remaining, name)
			continue
		}
		path := filepath.Join(e.key.dir, name)
		if err := os.Remove(path); err != nil {
			r.internalLog("failed to remove old log file '%s': %v", path, err)
			remaining = append(remaining, name)
			continue
		}
		r.stats.Deletions.Add(1)
	}
	return remaining
}

// openPath opens path with flags and makes it the current file.
// The tracked size starts at the file length, zero for new or truncated files.
func (e *fileEntry) openPath(path string, flags int) bool {
	r := e.registry
	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		r.stats.OpenFailures.Add(1)
		r.internalLog("failed to open log file '%s': %v", path, err)
		return false
	}
	var size int64
	if flags&os.O_TRUNC == 0 {
		if info, errStat := f.Stat(); errStat == nil {
			size = info.Size()
		}
	}
	e.file = f
	e.path = path
	e.size = size
	r.stats.Opens.Add(1)
	return true
}

// closeFile syncs and closes the current file, if any
func (e *fileEntry) closeFile() error {
	if e.file == nil {
		return nil
	}
	f := e.file
	e.file = nil
	e.size = 0
	_ = f.Sync()
	if err := f.Close(); err != nil {
		return fmtErrorf("failed to close log file '%s': %w", f.Name(), err)
	}
	return nil
}

// FileWriter is a handle on a shared rotating file sink.
// Handles are cheap; the underlying file belongs to the Registry.
type FileWriter struct {
	registry *Registry
	entry    *fileEntry
	closed   atomic.Bool
}

// OpenFile opens a file sink on the default registry
func OpenFile(name, directory string, maxSize int64, maxGenerations int, keepOpen bool) *FileWriter {
	return DefaultRegistry().Open(FileConfig{
		Name:           name,
		Directory:      directory,
		MaxSize:        maxSize,
		MaxGenerations: maxGenerations,
		KeepOpen:       keepOpen,
	})
}

// Write appends the record to the shared file. Failures drop the record silently.
func (w *FileWriter) Write(level Level, module, comment, data string, timestamp int64) {
	if w.registry == nil {
		return
	}
	if w.closed.Load() || w.entry == nil {
		w.registry.stats.RecordsDropped.Add(1)
		return
	}
	w.entry.write(level, module, comment, data, resolveTimestamp(timestamp))
}

// Close releases the handle. The file is closed when the last handle on the
// key is released, unless the entry was opened with KeepOpen.
func (w *FileWriter) Close() error {
	if !w.closed.CompareAndSwap(false, true) || w.entry == nil || w.registry == nil {
		return nil
	}
	return w.registry.release(w.entry)
}

// Path returns the file currently written to, empty if none is open
func (w *FileWriter) Path() string {
	if w.entry == nil {
		return ""
	}
	w.entry.mu.Lock()
	defer w.entry.mu.Unlock()
	if w.entry.file == nil {
		return ""
	}
	return w.entry.path
}

// Size returns the tracked size of the current file
func (w *FileWriter) Size() int64 {
	if w.entry == nil {
		return 0
	}
	w.entry.mu.Lock()
	defer w.entry.mu.Unlock()
	return w.entry.size
}

// IsOpen reports whether the sink currently holds an open file
func (w *FileWriter) IsOpen() bool {
	if w.entry == nil {
		return false
	}
	w.entry.mu.Lock()
	defer w.entry.mu.Unlock()
	return w.entry.file != nil && !w.entry.closed
}
