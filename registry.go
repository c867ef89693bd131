package log2what

import (
	"io"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"
)

// entryKey identifies a logical log: every FileWriter opened with the same
// directory and base name shares one entry
type entryKey struct {
	dir  string
	name string
}

// Registry deduplicates file sinks. All FileWriters opened on the same
// (directory, name) share one open file, one size counter and one lock.
//
// The registry lock is taken only by Open and Close and never across
// filesystem calls in Open; steady-state writes contend on the per-entry lock alone.
type Registry struct {
	mu      sync.Mutex
	entries map[entryKey]*fileEntry
	closed  bool

	clock  func() time.Time
	errOut atomic.Value // errSink
	stats  fileStats
}

// errSink wraps the diagnostics writer so a nil writer can be stored
type errSink struct {
	w io.Writer
}

// RegistryOption customizes a Registry
type RegistryOption func(*Registry)

// WithClock sets the time source used for generation names
func WithClock(clock func() time.Time) RegistryOption {
	return func(r *Registry) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// WithInternalErrors sets where filesystem failures are reported. Nil disables reporting.
func WithInternalErrors(w io.Writer) RegistryOption {
	return func(r *Registry) {
		r.errOut.Store(errSink{w: w})
	}
}

// NewRegistry creates an empty registry
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		entries: make(map[entryKey]*fileEntry),
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Open returns a handle on the file sink for cfg.Directory and cfg.Name,
// creating and opening the entry on first reference.
// Open never fails: filesystem errors leave the entry without an open file and
// its writes are dropped until a later write manages to open one.
func (r *Registry) Open(cfg FileConfig) *FileWriter {
	cfg = cfg.normalize()
	key := entryKey{dir: filepath.Clean(cfg.Directory), name: cfg.Name}

	r.mu.Lock()
	fw := &FileWriter{registry: r}
	if r.closed {
		r.mu.Unlock()
		fw.closed.Store(true)
		return fw
	}

	e, ok := r.entries[key]
	if !ok {
		e = &fileEntry{key: key, registry: r, fresh: true}
		r.entries[key] = e
	}

	first := e.refs == 0
	e.refs++
	r.mu.Unlock()

	// The reference keeps the entry registered, so the filesystem work runs
	// under the entry lock alone
	e.mu.Lock()
	if !e.closed {
		// Last opener sets the limits
		e.maxSize = cfg.MaxSize
		e.maxGenerations = cfg.MaxGenerations
		e.keepOpen = cfg.KeepOpen
		if first && e.file == nil {
			e.fresh = true
		}
		e.ensureOpen()
	}
	e.mu.Unlock()

	fw.entry = e
	return fw
}

// release drops one reference to e, closing and forgetting it at zero
// unless the entry is configured to stay open
func (r *Registry) release(e *fileEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.refs > 0 {
		e.refs--
	}
	if e.refs > 0 || e.keepOpen || e.closed {
		return nil
	}
	return r.dropLocked(e)
}

// dropLocked closes e and removes it from the registry. Both locks must be held.
func (r *Registry) dropLocked(e *fileEntry) error {
	err := e.closeFile()
	e.closed = true
	if cur, ok := r.entries[e.key]; ok && cur == e {
		delete(r.entries, e.key)
	}
	return err
}

// Close closes every entry, including those kept open after their last release.
// Handles still referencing the registry drop their writes afterwards.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var finalErr error
	for _, e := range r.entries {
		e.mu.Lock()
		if err := r.dropLocked(e); err != nil {
			finalErr = combineErrors(finalErr, err)
		}
		e.mu.Unlock()
	}
	r.closed = true
	return finalErr
}

// Len returns the number of live entries
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Stats returns a snapshot of the registry counters
func (r *Registry) Stats() FileStats {
	s := r.stats.snapshot()
	s.ActiveEntries = r.Len()
	return s
}

// now returns the registry clock value
func (r *Registry) now() time.Time {
	return r.clock()
}

// SetInternalErrors changes where filesystem failures are reported. Nil disables reporting.
func (r *Registry) SetInternalErrors(w io.Writer) {
	r.errOut.Store(errSink{w: w})
}

// internalLog reports a sink failure
func (r *Registry) internalLog(format string, args ...any) {
	if sink, ok := r.errOut.Load().(errSink); ok {
		internalLog(sink.w, format, args...)
	}
}
