// Package scroll implements an MPSC disruptor-style logger: a fixed
// power-of-two ring buffer of LogEvent slots, a sequencer managing
// claim/publish under a configurable WaitStrategy, and a single
// consumer goroutine dispatching every published event to an ordered
// list of Sinks.
//
// This is deliberately not built on go.uber.org/zap or any other
// third-party logging library — this package's entire purpose is
// being the lock-free logging primitive other code logs ambiently
// through, so reaching for an existing async logger here would replace
// the thing it exists to implement.
package scroll

import "github.com/demiplane/demiplane/pkg/outcome"

// ringBuffer is a fixed-capacity, power-of-two-sized slot array
// addressed by sequence & (capacity-1), a fast modulo via bitmask.
// Each slot is written exactly once, by the producer
// that claimed its sequence, and read exactly once, by the single
// consumer goroutine; there is never cross-producer contention on a
// slot, so no per-slot lock is needed.
type ringBuffer struct {
	mask  uint64
	slots []LogEvent
}

func newRingBuffer(capacity uint64) (*ringBuffer, error) {
	if capacity == 0 || capacity&(capacity-1) != 0 {
		return nil, outcome.New(outcome.InvalidConfig, "ring_buffer_size must be a power of two, got %d", capacity)
	}
	return &ringBuffer{mask: capacity - 1, slots: make([]LogEvent, capacity)}, nil
}

func (r *ringBuffer) capacity() uint64 { return r.mask + 1 }

func (r *ringBuffer) at(seq uint64) *LogEvent {
	return &r.slots[seq&r.mask]
}
