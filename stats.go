package log2what

import (
	"sync/atomic"
)

// fileStats holds the counters of a Registry
type fileStats struct {
	Opens          atomic.Uint64 // Successful file opens, including rotations
	OpenFailures   atomic.Uint64 // Failed directory creation, open, rename or truncate
	Rotations      atomic.Uint64 // Successful rotations
	Deletions      atomic.Uint64 // Generations removed by retention
	Reuses         atomic.Uint64 // Rotations that renamed the oldest generation instead of creating one
	RecordsWritten atomic.Uint64
	BytesWritten   atomic.Uint64
	RecordsDropped atomic.Uint64
}

// FileStats is a point-in-time copy of Registry counters
type FileStats struct {
	Opens          uint64
	OpenFailures   uint64
	Rotations      uint64
	Deletions      uint64
	Reuses         uint64
	RecordsWritten uint64
	BytesWritten   uint64
	RecordsDropped uint64
	ActiveEntries  int
}

func (s *fileStats) snapshot() FileStats {
	return FileStats{
		Opens:          s.Opens.Load(),
		OpenFailures:   s.OpenFailures.Load(),
		Rotations:      s.Rotations.Load(),
		Deletions:      s.Deletions.Load(),
		Reuses:         s.Reuses.Load(),
		RecordsWritten: s.RecordsWritten.Load(),
		BytesWritten:   s.BytesWritten.Load(),
		RecordsDropped: s.RecordsDropped.Load(),
	}
}

// TriggerStats is a point-in-time copy of TriggerBuffer counters
type TriggerStats struct {
	Episodes  uint64 // Begin markers emitted
	Triggers  uint64 // Records at or above the mask, including re-triggers
	Forwarded uint64 // Records sent downstream, markers excluded
	Buffered  uint64 // Records appended to the ring
	Evicted   uint64 // Records pushed out of the ring before any trigger
	Pending   int    // Records currently in the ring
	Draining  bool
}
