package demoserver

import (
	"sync"

	"github.com/demiplane/demiplane/pkg/scroll"
)

// tailSink is a pkg/scroll.Sink that keeps the most recent N dispatched
// events in a ring and fans each one out to subscribed channels, the
// "live log tail" half of the demo server's websocket feed.
type tailSink struct {
	mu        sync.RWMutex
	threshold scroll.Level
	buf       []scroll.LogEvent
	next      int
	filled    bool
	subs      map[chan scroll.LogEvent]struct{}
}

func newTailSink(threshold scroll.Level, capacity int) *tailSink {
	return &tailSink{
		threshold: threshold,
		buf:       make([]scroll.LogEvent, capacity),
		subs:      make(map[chan scroll.LogEvent]struct{}),
	}
}

func (s *tailSink) ShouldLog(level scroll.Level) bool { return level >= s.threshold }

func (s *tailSink) Process(event scroll.LogEvent) {
	if event.Shutdown || !s.ShouldLog(event.Level) {
		return
	}
	s.mu.Lock()
	n := len(s.buf)
	s.buf[s.next] = event
	s.next = (s.next + 1) % n
	if s.next == 0 {
		s.filled = true
	}
	chans := make([]chan scroll.LogEvent, 0, len(s.subs))
	for ch := range s.subs {
		chans = append(chans, ch)
	}
	s.mu.Unlock()

	for _, ch := range chans {
		select {
		case ch <- event:
		default: // slow subscriber drops a tick rather than blocking the logger
		}
	}
}

func (s *tailSink) Flush() {}

// Tail returns the events currently buffered, oldest first.
func (s *tailSink) Tail() []scroll.LogEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.filled {
		out := make([]scroll.LogEvent, s.next)
		copy(out, s.buf[:s.next])
		return out
	}
	n := len(s.buf)
	out := make([]scroll.LogEvent, n)
	copy(out, s.buf[s.next:])
	copy(out[n-s.next:], s.buf[:s.next])
	return out
}

func (s *tailSink) subscribe() chan scroll.LogEvent {
	ch := make(chan scroll.LogEvent, 32)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()
	return ch
}

func (s *tailSink) unsubscribe(ch chan scroll.LogEvent) {
	s.mu.Lock()
	delete(s.subs, ch)
	s.mu.Unlock()
	close(ch)
}
