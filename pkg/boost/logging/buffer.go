package logging

import "sync"

// DefaultBufferSize is how many entries the monitor's log pane keeps.
const DefaultBufferSize = 200

// LogBuffer is a fixed-capacity ring of recent entries, oldest evicted first.
type LogBuffer struct {
	mu   sync.RWMutex
	ring []LogEntry
	next int
	full bool
}

// NewLogBuffer returns a buffer holding up to size entries.
func NewLogBuffer(size int) *LogBuffer {
	if size <= 0 {
		size = DefaultBufferSize
	}
	return &LogBuffer{ring: make([]LogEntry, size)}
}

// Add appends an entry, overwriting the oldest when full.
func (b *LogBuffer) Add(e LogEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.ring[b.next] = e
	b.next = (b.next + 1) % len(b.ring)
	if b.next == 0 {
		b.full = true
	}
}

// Len returns the number of buffered entries.
func (b *LogBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lenLocked()
}

func (b *LogBuffer) lenLocked() int {
	if b.full {
		return len(b.ring)
	}
	return b.next
}

// Entries returns a copy of every buffered entry, oldest first.
func (b *LogBuffer) Entries() []LogEntry {
	return b.Last(-1)
}

// Last returns a copy of the newest n entries, oldest first. A negative n or
// one larger than Len returns everything.
func (b *LogBuffer) Last(n int) []LogEntry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	count := b.lenLocked()
	if n < 0 || n > count {
		n = count
	}
	out := make([]LogEntry, n)
	size := len(b.ring)
	first := (b.next - n + size) % size
	for i := range n {
		out[i] = b.ring[(first+i)%size]
	}
	return out
}

// Clear drops every entry.
func (b *LogBuffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next = 0
	b.full = false
}
