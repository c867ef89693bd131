package log2what

import (
	"sync"
)

// TriggerConfig configures a TriggerBuffer
type TriggerConfig struct {
	Mask   Level // Records at or above Mask trigger a flush
	Before int   // Records kept in the ring before a trigger
	After  int   // Records forwarded unconditionally after a trigger
}

// DefaultTriggerConfig returns mask INFO, 100 records before, 10 after
func DefaultTriggerConfig() TriggerConfig {
	return TriggerConfig{
		Mask:   LevelInfo,
		Before: defaultTriggerBefore,
		After:  defaultTriggerAfter,
	}
}

// TriggerBuffer holds the most recent sub-threshold records and forwards
// them only when a record at or above the mask arrives: the begin marker,
// the buffered history in order, the trigger itself, then the next After
// records as they come, followed by the end marker.
//
// Forwarding happens under the buffer lock, so concurrent triggers never
// interleave their flush sequences.
type TriggerBuffer struct {
	mu        sync.Mutex
	next      Writer
	mask      Level
	before    int
	after     int
	remaining int // records still to forward in the current episode

	// ring holds at most before records; head is the oldest
	ring  []Record
	head  int
	count int

	stats TriggerStats
}

// NewTriggerBuffer wraps next, taking ownership of it
func NewTriggerBuffer(next Writer, cfg TriggerConfig) *TriggerBuffer {
	if cfg.Before < 0 {
		cfg.Before = 0
	}
	if cfg.After < 0 {
		cfg.After = 0
	}
	if next == nil {
		next = Discard
	}
	return &TriggerBuffer{
		next:   next,
		mask:   cfg.Mask,
		before: cfg.Before,
		after:  cfg.After,
		ring:   make([]Record, cfg.Before),
	}
}

// Write buffers, flushes or forwards the record depending on its level and
// on whether a post-trigger window is open
func (b *TriggerBuffer) Write(level Level, module, comment, data string, timestamp int64) {
	timestamp = resolveTimestamp(timestamp)
	b.mu.Lock()
	defer b.mu.Unlock()

	if level >= b.mask {
		b.trigger(Record{Timestamp: timestamp, Level: level, Module: module, Comment: comment, Data: data})
		return
	}

	if b.remaining > 0 {
		b.next.Write(level, module, comment, data, timestamp)
		b.stats.Forwarded++
		b.remaining--
		if b.remaining == 0 {
			b.next.Write(level, MarkerModule, MarkerEndComment, "", timestamp)
		}
		return
	}

	b.push(Record{Timestamp: timestamp, Level: level, Module: module, Comment: comment, Data: data})
}

// trigger flushes the ring and opens (or extends) the post-trigger window
func (b *TriggerBuffer) trigger(rec Record) {
	b.stats.Triggers++
	if b.remaining == 0 {
		// New episode. The marker carries the oldest buffered timestamp, or the
		// trigger's own when nothing was buffered.
		markerTime := rec.Timestamp
		if b.count > 0 {
			markerTime = b.ring[b.head].Timestamp
		}
		b.next.Write(rec.Level, MarkerModule, MarkerBeginComment, "", markerTime)
		b.stats.Episodes++
	}

	for i := 0; i < b.count; i++ {
		b.ring[(b.head+i)%len(b.ring)].writeTo(b.next)
		b.stats.Forwarded++
	}
	b.clear()

	rec.writeTo(b.next)
	b.stats.Forwarded++

	b.remaining = b.after
	if b.remaining == 0 {
		b.next.Write(rec.Level, MarkerModule, MarkerEndComment, "", rec.Timestamp)
	}
}

// push appends to the ring, evicting the oldest record when full
func (b *TriggerBuffer) push(rec Record) {
	if b.before == 0 {
		b.stats.Evicted++
		return
	}
	b.stats.Buffered++
	if b.count < b.before {
		b.ring[(b.head+b.count)%b.before] = rec
		b.count++
		return
	}
	b.ring[b.head] = rec
	b.head = (b.head + 1) % b.before
	b.stats.Evicted++
}

// clear empties the ring, releasing record strings
func (b *TriggerBuffer) clear() {
	for i := range b.ring {
		b.ring[i] = Record{}
	}
	b.head = 0
	b.count = 0
}

// Pending returns the buffered records, oldest first
func (b *TriggerBuffer) Pending() []Record {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Record, 0, b.count)
	for i := 0; i < b.count; i++ {
		out = append(out, b.ring[(b.head+i)%len(b.ring)])
	}
	return out
}

// Draining reports whether a post-trigger window is open
func (b *TriggerBuffer) Draining() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.remaining > 0
}

// Stats returns a snapshot of the buffer counters
func (b *TriggerBuffer) Stats() TriggerStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := b.stats
	s.Pending = b.count
	s.Draining = b.remaining > 0
	return s
}

// Close drops buffered records and closes the downstream writer
func (b *TriggerBuffer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clear()
	b.remaining = 0
	return closeWriter(b.next)
}
