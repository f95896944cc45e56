package auditlog

import "sync"

// Log is an ordered, append-only sequence of entries. It owns the
// monotonic index counter: the Nth entry ever appended receives index
// N-1, and indices are never reused except after Clear. Entries rejected
// before Append (filtered out) never consume an index.
type Log struct {
	mu      sync.Mutex
	entries []Entry
	next    int
}

// NewLog creates an empty log with the index counter at zero.
func NewLog() *Log {
	return &Log{}
}

// Append assigns the next index to e, stores it, and returns the stored
// entry.
func (l *Log) Append(e Entry) Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.Index = l.next
	l.next++
	l.entries = append(l.entries, e)
	return e
}

// Snapshot returns a copy of all stored entries in append order.
func (l *Log) Snapshot() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of stored entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Clear empties the log and resets the index counter to zero.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
	l.next = 0
}
