package combat

import (
	"fmt"
	"sync"
)

// DefaultLogSize is the number of entries kept by a battle log.
const DefaultLogSize = 50

// Log is a capped ring of human-readable battle events. When full, the
// oldest entry is overwritten.
type Log struct {
	mu      sync.Mutex
	entries []string
	next    int
	full    bool
}

// NewLog creates a log holding at most size entries (DefaultLogSize if size < 1).
func NewLog(size int) *Log {
	if size < 1 {
		size = DefaultLogSize
	}
	return &Log{entries: make([]string, size)}
}

// Addf appends a formatted entry.
func (l *Log) Addf(format string, args ...any) {
	l.Add(fmt.Sprintf(format, args...))
}

// Add appends an entry, evicting the oldest when full.
func (l *Log) Add(entry string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[l.next] = entry
	l.next = (l.next + 1) % len(l.entries)
	if l.next == 0 {
		l.full = true
	}
}

// Entries returns entries oldest first.
func (l *Log) Entries() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.full {
		return append([]string(nil), l.entries[:l.next]...)
	}
	out := make([]string, 0, len(l.entries))
	out = append(out, l.entries[l.next:]...)
	return append(out, l.entries[:l.next]...)
}

// Len returns the number of stored entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.full {
		return len(l.entries)
	}
	return l.next
}
