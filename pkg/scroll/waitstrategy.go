package scroll

import (
	"runtime"
	"sync"
)

// WaitStrategy is the policy a sequencer's producers and consumer use
// while waiting for a condition (room to claim, or a new publication)
// to become true. Three implementations are provided: BusySpin,
// Yielding (default), and Blocking.
type WaitStrategy interface {
	// Wait blocks the calling goroutine until ready reports true.
	Wait(ready func() bool)
	// Signal wakes any goroutine currently blocked in Wait. Called
	// after every publish; strategies that don't block (BusySpin,
	// Yielding) ignore it.
	Signal()
}

// BusySpinWait spins on the atomic with no yield between probes:
// lowest latency, highest CPU cost. Appropriate for a dedicated core.
type BusySpinWait struct{}

func (BusySpinWait) Wait(ready func() bool) {
	for !ready() {
	}
}

func (BusySpinWait) Signal() {}

// YieldingWait yields the calling goroutine's timeslice on each failed
// probe — the default strategy, a middle ground between BusySpin's CPU
// cost and Blocking's wakeup latency.
type YieldingWait struct{}

func (YieldingWait) Wait(ready func() bool) {
	for !ready() {
		runtime.Gosched()
	}
}

func (YieldingWait) Signal() {}

// BlockingWait parks the waiting goroutine on a condition variable,
// woken by Signal on every publish — lowest CPU cost, highest wakeup
// latency.
type BlockingWait struct {
	mu   sync.Mutex
	cond *sync.Cond
}

// NewBlockingWait constructs a ready-to-use BlockingWait; the zero
// value is not usable since sync.Cond needs its Locker bound at
// construction.
func NewBlockingWait() *BlockingWait {
	w := &BlockingWait{}
	w.cond = sync.NewCond(&w.mu)
	return w
}

func (w *BlockingWait) Wait(ready func() bool) {
	w.mu.Lock()
	for !ready() {
		w.cond.Wait()
	}
	w.mu.Unlock()
}

func (w *BlockingWait) Signal() {
	w.mu.Lock()
	w.cond.Broadcast()
	w.mu.Unlock()
}
