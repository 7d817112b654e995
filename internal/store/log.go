package store

import "sync"

// Log is a thread-safe append-only sequence of records. Entries are never
// modified after Append; readers either drain what is new since their last
// drain or take a full copy for replay.
type Log[T any] struct {
	mu      sync.RWMutex
	entries []T
	drained int // entries[:drained] were already returned by Drain
}

// NewLog creates an empty Log.
func NewLog[T any]() *Log[T] {
	return &Log[T]{}
}

// Append adds an entry at the end of the log.
func (l *Log[T]) Append(v T) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, v)
}

// Drain returns the entries appended since the previous Drain, in order.
// Returns an empty slice if nothing new was appended.
func (l *Log[T]) Drain() []T {
	l.mu.Lock()
	defer l.mu.Unlock()

	result := make([]T, len(l.entries)-l.drained)
	copy(result, l.entries[l.drained:])
	l.drained = len(l.entries)
	return result
}

// All returns a copy of every entry ever appended, in order.
func (l *Log[T]) All() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()

	// Return a copy to avoid callers mutating the internal slice.
	result := make([]T, len(l.entries))
	copy(result, l.entries)
	return result
}

// Len returns the total number of entries.
func (l *Log[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.entries)
}
