package log2what

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

const (
	heartbeatModule  = "log2what"
	heartbeatComment = "heartbeat"
)

// Heartbeat periodically logs registry statistics through a Logger
type Heartbeat struct {
	logger   *Logger
	registry *Registry
	interval time.Duration
	started  time.Time
	sequence atomic.Uint64

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// StartHeartbeat starts logging r's stats through l every interval at INFO level.
// A nil registry reports the default registry. Close on l stops the heartbeat.
func StartHeartbeat(l *Logger, r *Registry, interval time.Duration) *Heartbeat {
	if r == nil {
		r = DefaultRegistry()
	}
	if interval <= 0 {
		interval = time.Minute
	}
	h := &Heartbeat{
		logger:   l,
		registry: r,
		interval: interval,
		started:  time.Now(),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	l.attachHeartbeat(h)
	go h.run()
	return h
}

func (h *Heartbeat) run() {
	defer close(h.done)
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			h.beat()
		case <-h.stop:
			return
		}
	}
}

// beat writes one heartbeat record
func (h *Heartbeat) beat() {
	s := h.registry.Stats()
	h.logger.log(LevelInfo, heartbeatModule, heartbeatComment, []any{
		"sequence", h.sequence.Add(1),
		"uptime", time.Since(h.started).Round(time.Second),
		"active_entries", s.ActiveEntries,
		"records_written", s.RecordsWritten,
		"records_dropped", s.RecordsDropped,
		"bytes_written", s.BytesWritten,
		"rotations", s.Rotations,
		"deletions", s.Deletions,
		"open_failures", s.OpenFailures,
		"num_goroutine", runtime.NumGoroutine(),
	})
}

// Sequence returns the number of heartbeats written so far
func (h *Heartbeat) Sequence() uint64 {
	return h.sequence.Load()
}

// Stop ends the heartbeat and waits for its goroutine to exit
func (h *Heartbeat) Stop() {
	h.stopOnce.Do(func() {
		close(h.stop)
	})
	<-h.done
}
