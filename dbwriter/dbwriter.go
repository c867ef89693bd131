// Package dbwriter stores log records in a SQL table, batching inserts.
// Writers on the same URL share one database handle and one pending batch.
package dbwriter

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	retry "github.com/avast/retry-go/v5"
	_ "modernc.org/sqlite"

	"github.com/lixenwraith/log2what"
)

const (
	// DefaultDriver is the database/sql driver registered by modernc.org/sqlite
	DefaultDriver = "sqlite"
	// DefaultURL is the sqlite file used when no URL is given
	DefaultURL = "./log/log2.db"
	// DefaultBatchSize is the number of rows per insert statement
	DefaultBatchSize = 100

	// sqlite binds at most 32766 variables per statement, five per row
	maxVariables = 32766
	columns      = 5
	MaxBatchSize = maxVariables / columns

	diagnosticModule = "log2db"
)

const (
	createTableSQL = "create table if not exists log(" +
		"timestamp integer not null," +
		"level integer," +
		"module_name text," +
		"comment text," +
		"data text)"
	insertPrefix = "insert into log values "
	rowValues    = "(?,?,?,?,?)"
)

// ErrClosed is returned when flushing a closed writer
var ErrClosed = errors.New("dbwriter: writer is closed")

// Config describes a database sink
type Config struct {
	Driver        string        // database/sql driver name
	URL           string        // data source name, keys the registry
	BatchSize     int           // rows per insert, clamped to [1, MaxBatchSize]
	FlushInterval time.Duration // periodic flush, 0 flushes only on a full batch and close
	KeepAlive     bool          // keep the database open after the last writer closes
	Attempts      uint          // insert attempts per batch
	RetryDelay    time.Duration // base delay between attempts

	// Diagnostics receives insert failures as log records under module "log2db".
	// It is not closed by the writer.
	Diagnostics log2what.Writer
}

// DefaultConfig returns the sqlite defaults
func DefaultConfig() Config {
	return Config{
		Driver:     DefaultDriver,
		URL:        DefaultURL,
		BatchSize:  DefaultBatchSize,
		Attempts:   3,
		RetryDelay: 10 * time.Millisecond,
	}
}

func (c Config) normalize() Config {
	if c.Driver == "" {
		c.Driver = DefaultDriver
	}
	if c.URL == "" {
		c.URL = DefaultURL
	}
	if c.BatchSize < 1 {
		c.BatchSize = 1
	}
	if c.BatchSize > MaxBatchSize {
		c.BatchSize = MaxBatchSize
	}
	if c.Attempts == 0 {
		c.Attempts = 1
	}
	if c.RetryDelay < 0 {
		c.RetryDelay = 0
	}
	return c
}

// Stats is a point-in-time copy of a database sink's counters
type Stats struct {
	RowsInserted uint64
	RowsDropped  uint64
	Batches      uint64 // successful insert statements
	Retries      uint64 // failed attempts that were retried
	Pending      int    // rows waiting for the next batch
}

type row struct {
	timestamp int64
	level     log2what.Level
	module    string
	comment   string
	data      string
}

// entry is the shared state of every Writer on one URL
type entry struct {
	mu        sync.Mutex
	url       string
	db        *sql.DB
	refs      int
	keepAlive bool
	closed    bool

	batchSize  int
	attempts   uint
	retryDelay time.Duration
	insertSQL  string // statement for a full batch
	pending    []row
	diag       *log2what.Logger

	interval time.Duration
	stop     chan struct{}
	done     chan struct{}

	rowsInserted atomic.Uint64
	rowsDropped  atomic.Uint64
	batches      atomic.Uint64
	retries      atomic.Uint64
}

// configure applies limits from the latest opener. e.mu must be held.
func (e *entry) configure(cfg Config) {
	e.keepAlive = cfg.KeepAlive
	e.attempts = cfg.Attempts
	e.retryDelay = cfg.RetryDelay
	if cfg.Diagnostics != nil {
		e.diag = log2what.NewLogger(diagnosticModule, cfg.Diagnostics)
	}
	if e.batchSize != cfg.BatchSize {
		e.batchSize = cfg.BatchSize
		e.insertSQL = insertSQL(cfg.BatchSize)
	}
}

// startFlushLoop starts the periodic flush once per entry
func (e *entry) startFlushLoop(interval time.Duration) {
	if interval <= 0 || e.stop != nil {
		return
	}
	e.interval = interval
	e.stop = make(chan struct{})
	e.done = make(chan struct{})
	go e.flushLoop()
}

func (e *entry) flushLoop() {
	defer close(e.done)
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			e.mu.Lock()
			if !e.closed {
				e.flushAll()
			}
			e.mu.Unlock()
		case <-e.stop:
			return
		}
	}
}

// write queues one row and inserts every full batch. e.mu must not be held.
func (e *entry) write(r row) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		e.rowsDropped.Add(1)
		return
	}
	e.pending = append(e.pending, r)
	for len(e.pending) >= e.batchSize {
		e.insert(e.pending[:e.batchSize], e.insertSQL)
		e.pending = e.pending[e.batchSize:]
	}
	if len(e.pending) == 0 {
		e.pending = nil
	}
}

// flushAll inserts every pending row. e.mu must be held.
func (e *entry) flushAll() error {
	var err error
	for len(e.pending) > 0 {
		n := min(len(e.pending), e.batchSize)
		query := e.insertSQL
		if n != e.batchSize {
			query = insertSQL(n)
		}
		if errInsert := e.insert(e.pending[:n], query); errInsert != nil {
			err = errInsert
		}
		e.pending = e.pending[n:]
	}
	e.pending = nil
	return err
}

// insert runs one multi-row statement with retries. On final failure the
// rows are dropped and reported. e.mu must be held.
func (e *entry) insert(rows []row, query string) error {
	args := make([]any, 0, len(rows)*columns)
	for _, r := range rows {
		args = append(args, r.timestamp, int64(r.level), r.module, r.comment, r.data)
	}

	ctx := context.Background()
	err := retry.New(
		retry.Context(ctx),
		retry.Attempts(e.attempts),
		retry.Delay(e.retryDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(uint, error) {
			e.retries.Add(1)
		}),
	).Do(func() error {
		_, errExec := e.db.ExecContext(ctx, query, args...)
		return errExec
	})
	if err != nil {
		e.rowsDropped.Add(uint64(len(rows)))
		if e.diag != nil {
			e.diag.Error("insert into db failed", e.url, len(rows), "rows:", err)
		}
		return err
	}
	e.batches.Add(1)
	e.rowsInserted.Add(uint64(len(rows)))
	return nil
}

// shutdown stops the flush loop, flushes pending rows and closes the database.
// Neither lock may be held by the caller.
func (e *entry) shutdown() error {
	if e.stop != nil {
		close(e.stop)
		<-e.done
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	flushErr := e.flushAll()
	e.closed = true
	if err := e.db.Close(); err != nil {
		return errors.Join(flushErr, err)
	}
	return flushErr
}

func (e *entry) stats() Stats {
	e.mu.Lock()
	pending := len(e.pending)
	e.mu.Unlock()
	return Stats{
		RowsInserted: e.rowsInserted.Load(),
		RowsDropped:  e.rowsDropped.Load(),
		Batches:      e.batches.Load(),
		Retries:      e.retries.Load(),
		Pending:      pending,
	}
}

// insertSQL returns the insert statement for n rows
func insertSQL(n int) string {
	var sb strings.Builder
	sb.Grow(len(insertPrefix) + n*(len(rowValues)+1))
	sb.WriteString(insertPrefix)
	for i := 0; i < n; i++ {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(rowValues)
	}
	return sb.String()
}

// ensureDir creates the parent directory of a sqlite file URL
func ensureDir(cfg Config) error {
	if cfg.Driver != DefaultDriver || cfg.URL == ":memory:" || strings.HasPrefix(cfg.URL, "file:") {
		return nil
	}
	dir := filepath.Dir(cfg.URL)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmtErrorf("failed to create db directory '%s': %w", dir, err)
	}
	return nil
}
