package dbwriter

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/log2what"
)

// Registry shares one database handle per URL between Writers
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the process-wide registry, created on first use
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Open returns a Writer on cfg.URL on the default registry
func Open(cfg Config) (*Writer, error) {
	return DefaultRegistry().Open(cfg)
}

// Open returns a Writer on cfg.URL, opening the database and creating the log
// table on first reference. Later openers update batch size, retry and
// keep-alive settings.
func (r *Registry) Open(cfg Config) (*Writer, error) {
	cfg = cfg.normalize()
	return r.attach(cfg, func() (*sql.DB, error) {
		if err := ensureDir(cfg); err != nil {
			return nil, err
		}
		db, err := sql.Open(cfg.Driver, cfg.URL)
		if err != nil {
			return nil, fmtErrorf("failed to open db '%s': %w", cfg.URL, err)
		}
		return db, nil
	})
}

// Attach registers an already opened database under url and returns a Writer on it.
// If url is already registered the existing handle is used and db is left alone.
// The registry closes db when the last Writer is released.
func (r *Registry) Attach(url string, db *sql.DB, cfg Config) (*Writer, error) {
	if db == nil {
		return nil, fmtErrorf("db cannot be nil")
	}
	cfg.URL = url
	cfg = cfg.normalize()
	return r.attach(cfg, func() (*sql.DB, error) {
		return db, nil
	})
}

func (r *Registry) attach(cfg Config, open func() (*sql.DB, error)) (*Writer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[cfg.URL]
	if !ok {
		db, err := open()
		if err != nil {
			return nil, err
		}
		if _, err := db.ExecContext(context.Background(), createTableSQL); err != nil {
			_ = db.Close()
			return nil, fmtErrorf("failed to create log table in '%s': %w", cfg.URL, err)
		}
		e = &entry{url: cfg.URL, db: db}
		r.entries[cfg.URL] = e
	}

	e.mu.Lock()
	e.configure(cfg)
	e.refs++
	e.mu.Unlock()
	e.startFlushLoop(cfg.FlushInterval)

	return &Writer{registry: r, entry: e}, nil
}

// release drops one reference, shutting the entry down at zero unless kept alive
func (r *Registry) release(e *entry) error {
	r.mu.Lock()
	e.mu.Lock()
	if e.refs > 0 {
		e.refs--
	}
	last := e.refs == 0 && !e.keepAlive && !e.closed
	e.mu.Unlock()
	if last {
		if cur, ok := r.entries[e.url]; ok && cur == e {
			delete(r.entries, e.url)
		}
	}
	r.mu.Unlock()

	if !last {
		return nil
	}
	return e.shutdown()
}

// Close flushes and closes every database, including kept-alive ones
func (r *Registry) Close() error {
	r.mu.Lock()
	entries := make([]*entry, 0, len(r.entries))
	for url, e := range r.entries {
		entries = append(entries, e)
		delete(r.entries, url)
	}
	r.mu.Unlock()

	var errs []error
	for _, e := range entries {
		if err := e.shutdown(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmtErrorf("failed to close %d db(s): %w", len(errs), errs[0])
	}
	return nil
}

// Len returns the number of open databases
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Writer is a log2what.Writer handle on a shared database sink
type Writer struct {
	registry *Registry
	entry    *entry
	closed   atomic.Bool
}

var _ log2what.Writer = (*Writer)(nil)

// Write queues the record; a full batch is inserted before returning.
// Insert failures drop the batch.
func (w *Writer) Write(level log2what.Level, module, comment, data string, timestamp int64) {
	if w.closed.Load() {
		w.entry.rowsDropped.Add(1)
		return
	}
	if timestamp == 0 {
		timestamp = time.Now().UnixNano()
	}
	w.entry.write(row{
		timestamp: timestamp,
		level:     level,
		module:    module,
		comment:   comment,
		data:      data,
	})
}

// Flush inserts every pending row now
func (w *Writer) Flush() error {
	if w.closed.Load() {
		return ErrClosed
	}
	w.entry.mu.Lock()
	defer w.entry.mu.Unlock()
	if w.entry.closed {
		return ErrClosed
	}
	return w.entry.flushAll()
}

// Close releases the handle. The last handle flushes and closes the database
// unless the sink was opened with KeepAlive.
func (w *Writer) Close() error {
	if !w.closed.CompareAndSwap(false, true) {
		return nil
	}
	return w.registry.release(w.entry)
}

// URL returns the data source name of the sink
func (w *Writer) URL() string {
	return w.entry.url
}

// Stats returns a snapshot of the sink counters
func (w *Writer) Stats() Stats {
	return w.entry.stats()
}

// fmtErrorf prefixes package errors
func fmtErrorf(format string, args ...any) error {
	return fmt.Errorf("dbwriter: "+format, args...)
}
