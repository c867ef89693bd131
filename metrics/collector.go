// Package metrics exports log2what sink counters as Prometheus metrics.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lixenwraith/log2what"
	"github.com/lixenwraith/log2what/dbwriter"
)

const namespace = "log2what"

var sinkLabel = []string{"sink"}

func newDesc(subsystem, name, help string) *prometheus.Desc {
	return prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystem, name), help, sinkLabel, nil)
}

var (
	fileOpens          = newDesc("file", "opens_total", "Log files opened, including rotations")
	fileOpenFailures   = newDesc("file", "open_failures_total", "Failed directory, open, rename or truncate operations")
	fileRotations      = newDesc("file", "rotations_total", "Generation rotations")
	fileDeletions      = newDesc("file", "deletions_total", "Generations removed by retention")
	fileReuses         = newDesc("file", "reuses_total", "Rotations that reused the oldest generation")
	fileRecordsWritten = newDesc("file", "records_written_total", "Records written to log files")
	fileBytesWritten   = newDesc("file", "bytes_written_total", "Bytes written to log files")
	fileRecordsDropped = newDesc("file", "records_dropped_total", "Records dropped by file sinks")
	fileActiveEntries  = newDesc("file", "active_entries", "Open file sink entries")

	triggerEpisodes  = newDesc("trigger", "episodes_total", "Trigger episodes started")
	triggerTriggers  = newDesc("trigger", "triggers_total", "Records at or above the trigger level")
	triggerForwarded = newDesc("trigger", "forwarded_total", "Records forwarded downstream")
	triggerEvicted   = newDesc("trigger", "evicted_total", "Buffered records evicted before a trigger")
	triggerPending   = newDesc("trigger", "pending", "Records waiting in the trigger ring")

	dbRowsInserted = newDesc("db", "rows_inserted_total", "Rows inserted into the log table")
	dbRowsDropped  = newDesc("db", "rows_dropped_total", "Rows dropped after failed inserts")
	dbRetries      = newDesc("db", "retries_total", "Retried insert attempts")
	dbPending      = newDesc("db", "pending", "Rows waiting for the next batch")
)

// Collector reads sink stats on every scrape
type Collector struct {
	mu       sync.RWMutex
	files    map[string]*log2what.Registry
	triggers map[string]*log2what.TriggerBuffer
	dbs      map[string]*dbwriter.Writer
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector creates an empty collector
func NewCollector() *Collector {
	return &Collector{
		files:    make(map[string]*log2what.Registry),
		triggers: make(map[string]*log2what.TriggerBuffer),
		dbs:      make(map[string]*dbwriter.Writer),
	}
}

// AddRegistry exports the counters of a file sink registry under sink=name
func (c *Collector) AddRegistry(name string, r *log2what.Registry) *Collector {
	c.mu.Lock()
	c.files[name] = r
	c.mu.Unlock()
	return c
}

// AddTriggerBuffer exports the counters of a trigger buffer under sink=name
func (c *Collector) AddTriggerBuffer(name string, b *log2what.TriggerBuffer) *Collector {
	c.mu.Lock()
	c.triggers[name] = b
	c.mu.Unlock()
	return c
}

// AddDB exports the counters of a database sink under sink=name
func (c *Collector) AddDB(name string, w *dbwriter.Writer) *Collector {
	c.mu.Lock()
	c.dbs[name] = w
	c.mu.Unlock()
	return c
}

// Describe implements prometheus.Collector
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		fileOpens, fileOpenFailures, fileRotations, fileDeletions, fileReuses,
		fileRecordsWritten, fileBytesWritten, fileRecordsDropped, fileActiveEntries,
		triggerEpisodes, triggerTriggers, triggerForwarded, triggerEvicted, triggerPending,
		dbRowsInserted, dbRowsDropped, dbRetries, dbPending,
	} {
		ch <- d
	}
}

// Collect implements prometheus.Collector
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	counter := func(d *prometheus.Desc, v uint64, sink string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v), sink)
	}
	gauge := func(d *prometheus.Desc, v int, sink string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, float64(v), sink)
	}

	for name, r := range c.files {
		s := r.Stats()
		counter(fileOpens, s.Opens, name)
		counter(fileOpenFailures, s.OpenFailures, name)
		counter(fileRotations, s.Rotations, name)
		counter(fileDeletions, s.Deletions, name)
		counter(fileReuses, s.Reuses, name)
		counter(fileRecordsWritten, s.RecordsWritten, name)
		counter(fileBytesWritten, s.BytesWritten, name)
		counter(fileRecordsDropped, s.RecordsDropped, name)
		gauge(fileActiveEntries, s.ActiveEntries, name)
	}

	for name, b := range c.triggers {
		s := b.Stats()
		counter(triggerEpisodes, s.Episodes, name)
		counter(triggerTriggers, s.Triggers, name)
		counter(triggerForwarded, s.Forwarded, name)
		counter(triggerEvicted, s.Evicted, name)
		gauge(triggerPending, s.Pending, name)
	}

	for name, w := range c.dbs {
		s := w.Stats()
		counter(dbRowsInserted, s.RowsInserted, name)
		counter(dbRowsDropped, s.RowsDropped, name)
		counter(dbRetries, s.Retries, name)
		gauge(dbPending, s.Pending, name)
	}
}
