package memory

import (
	"sync/atomic"
	"time"
)

// Sequencer mints strictly increasing sequence keys. Keys track the wall
// clock in nanoseconds but never repeat or go backwards: when the clock
// stalls or steps back the previous key plus one is issued instead.
type Sequencer struct {
	last atomic.Int64
	now  func() time.Time
}

// NewSequencer creates a sequencer reading time from now (time.Now if nil).
func NewSequencer(now func() time.Time) *Sequencer {
	if now == nil {
		now = time.Now
	}
	return &Sequencer{now: now}
}

// Next returns a key greater than every key previously returned by s.
func (s *Sequencer) Next() int64 {
	for {
		last := s.last.Load()
		next := s.now().UnixNano()
		if next <= last {
			next = last + 1
		}
		if s.last.CompareAndSwap(last, next) {
			return next
		}
	}
}

// processSequencer is shared by all stores of the process so keys stay
// ordered across stores writing the same conversation.
var processSequencer = NewSequencer(nil)
