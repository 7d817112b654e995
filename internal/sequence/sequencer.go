package sequence

import "sync/atomic"

// Sequencer hands out strictly increasing sequence values. The order book
// stamps submissions, executions and rejections from one Sequencer so every
// history shares a single timeline.
type Sequencer struct {
	last atomic.Uint64
}

// New creates a sequencer whose first Next() returns start+1.
func New(start uint64) *Sequencer {
	s := &Sequencer{}
	s.last.Store(start)
	return s
}

// Next returns the next sequence value.
func (s *Sequencer) Next() uint64 {
	return s.last.Add(1)
}

// Current returns the last value handed out.
func (s *Sequencer) Current() uint64 {
	return s.last.Load()
}
