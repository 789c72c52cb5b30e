package protocol

import (
	"sync"
	"time"
)

// DefaultRequestLogSize is the capacity of the request log.
const DefaultRequestLogSize = 100

// LogEntry records one capability call.
type LogEntry struct {
	Name      string    `json:"name"`
	Timestamp time.Time `json:"timestamp"`
	Success   bool      `json:"success"`
	// Duration is the wall time in milliseconds.
	Duration  int64  `json:"duration"`
	ErrorCode string `json:"errorCode,omitempty"`
}

// RequestLog is a fixed-capacity ring buffer; the oldest entry is evicted
// when a new one arrives at capacity.
type RequestLog struct {
	mu      sync.Mutex
	entries []LogEntry
	next    int
	full    bool
}

func NewRequestLog(capacity int) *RequestLog {
	if capacity < 1 {
		capacity = DefaultRequestLogSize
	}
	return &RequestLog{entries: make([]LogEntry, capacity)}
}

func (l *RequestLog) Add(e LogEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries[l.next] = e
	l.next = (l.next + 1) % len(l.entries)
	if l.next == 0 {
		l.full = true
	}
}

// Entries returns the logged entries from oldest to newest.
func (l *RequestLog) Entries() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.full {
		return append([]LogEntry{}, l.entries[:l.next]...)
	}
	out := make([]LogEntry, 0, len(l.entries))
	out = append(out, l.entries[l.next:]...)
	return append(out, l.entries[:l.next]...)
}

func (l *RequestLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.full {
		return len(l.entries)
	}
	return l.next
}

func (l *RequestLog) Cap() int {
	return len(l.entries)
}
