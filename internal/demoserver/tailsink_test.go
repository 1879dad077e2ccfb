package demoserver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/demiplane/demiplane/pkg/scroll"
)

func evt(level scroll.Level, msg string) scroll.LogEvent {
	return scroll.LogEvent{Level: level, Message: msg, Timestamp: time.Unix(0, 0)}
}

func TestTailSinkFiltersBelowThreshold(t *testing.T) {
	s := newTailSink(scroll.Warn, 8)
	s.Process(evt(scroll.Info, "ignored"))
	s.Process(evt(scroll.Warn, "kept"))

	tail := s.Tail()
	require.Len(t, tail, 1)
	assert.Equal(t, "kept", tail[0].Message)
}

func TestTailSinkWrapsAtCapacity(t *testing.T) {
	s := newTailSink(scroll.Trace, 3)
	for i := 0; i < 5; i++ {
		s.Process(evt(scroll.Info, string(rune('a'+i))))
	}

	tail := s.Tail()
	require.Len(t, tail, 3)
	assert.Equal(t, []string{"c", "d", "e"}, []string{tail[0].Message, tail[1].Message, tail[2].Message})
}

func TestTailSinkSubscriberReceivesLiveEvents(t *testing.T) {
	s := newTailSink(scroll.Trace, 8)
	ch := s.subscribe()
	defer s.unsubscribe(ch)

	s.Process(evt(scroll.Info, "hello"))

	select {
	case ev := <-ch:
		assert.Equal(t, "hello", ev.Message)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for tail event")
	}
}

func TestTailSinkIgnoresShutdownEvents(t *testing.T) {
	s := newTailSink(scroll.Trace, 8)
	s.Process(scroll.LogEvent{Shutdown: true})

	assert.Empty(t, s.Tail())
}

func TestTailSinkSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	s := newTailSink(scroll.Trace, 8)
	ch := s.subscribe()
	defer s.unsubscribe(ch)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 64; i++ {
			s.Process(evt(scroll.Info, "x"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Process blocked on a full subscriber channel")
	}
}
