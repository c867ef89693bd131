package log2what

import (
	"time"
)

// Record is a single log entry as seen by writers that keep entries around.
type Record struct {
	Timestamp int64 // unix nanoseconds
	Level     Level
	Module    string
	Comment   string
	Data      string
}

// Time returns the record timestamp as a local time.Time
func (r Record) Time() time.Time {
	return time.Unix(0, r.Timestamp)
}

// writeTo forwards the record to w
func (r Record) writeTo(w Writer) {
	w.Write(r.Level, r.Module, r.Comment, r.Data, r.Timestamp)
}

// now returns the current time in unix nanoseconds
func now() int64 {
	return time.Now().UnixNano()
}

// resolveTimestamp replaces the zero timestamp with the current time
func resolveTimestamp(ts int64) int64 {
	if ts == 0 {
		return now()
	}
	return ts
}
