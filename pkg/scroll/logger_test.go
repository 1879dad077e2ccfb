package scroll_test

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/demiplane/demiplane/pkg/scroll"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSink captures every event it receives, in the order the
// consumer dispatches them, for assertions that depend on ordering.
type recordingSink struct {
	mu     sync.Mutex
	events []scroll.LogEvent
}

func (r *recordingSink) ShouldLog(scroll.Level) bool { return true }

func (r *recordingSink) Process(event scroll.LogEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingSink) Flush() {}

func (r *recordingSink) snapshot() []scroll.LogEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]scroll.LogEvent, len(r.events))
	copy(out, r.events)
	return out
}

func TestNewLoggerRejectsNonPowerOfTwo(t *testing.T) {
	_, err := scroll.NewLogger(scroll.LoggerOptions{RingBufferSize: 1000})
	require.Error(t, err)
}

func TestRecommendedSize(t *testing.T) {
	assert.True(t, scroll.RecommendedSize(1024))
	assert.True(t, scroll.RecommendedSize(65536))
	assert.False(t, scroll.RecommendedSize(3000))
}

func TestLoggerDispatchesToAllSinksInOrder(t *testing.T) {
	var buf bytes.Buffer
	console := scroll.NewConsoleSink(scroll.ConsoleSinkOptions{Output: &buf})
	rec := &recordingSink{}

	logger, err := scroll.NewLogger(scroll.LoggerOptions{RingBufferSize: 1024}, console, rec)
	require.NoError(t, err)

	logger.Info("hello world")
	logger.Warn("uh oh")
	logger.Shutdown()

	assert.Contains(t, buf.String(), "hello world")
	assert.Contains(t, buf.String(), "uh oh")

	events := rec.snapshot()
	require.Len(t, events, 2)
	assert.Equal(t, "hello world", events[0].Message)
	assert.Equal(t, scroll.Info, events[0].Level)
	assert.Equal(t, "uh oh", events[1].Message)
	assert.Equal(t, scroll.Warn, events[1].Level)
	assert.True(t, strings.HasSuffix(events[0].File, "logger_test.go"))
}

func TestStreamProxyAccumulatesAndEmitsOnce(t *testing.T) {
	rec := &recordingSink{}
	logger, err := scroll.NewLogger(scroll.LoggerOptions{RingBufferSize: 1024}, rec)
	require.NoError(t, err)

	func() {
		s := logger.Stream(scroll.Error)
		defer s.Emit()
		s.Write("count=").Write(strconv.Itoa(7)).Write(", retrying")
	}()
	logger.Shutdown()

	events := rec.snapshot()
	require.Len(t, events, 1)
	assert.Equal(t, "count=7, retrying", events[0].Message)
	assert.Equal(t, scroll.Error, events[0].Level)
}

func TestShutdownIsIdempotent(t *testing.T) {
	rec := &recordingSink{}
	logger, err := scroll.NewLogger(scroll.LoggerOptions{RingBufferSize: 1024}, rec)
	require.NoError(t, err)

	logger.Info("one")
	logger.Shutdown()
	assert.NotPanics(t, func() { logger.Shutdown() })
	assert.Len(t, rec.snapshot(), 1)
}

// TestConcurrentProducersPreserveExactSequence is the mandatory
// concurrency scenario: 8 goroutines each emit 1000 events carrying a
// globally-unique, atomically-assigned sequence number; after graceful
// shutdown the consumer must have received exactly 8000 events whose
// embedded sequence numbers sort to exactly 0..7999 with no duplicate
// and no gap.
func TestConcurrentProducersPreserveExactSequence(t *testing.T) {
	const producers = 8
	const perProducer = 1000
	const total = producers * perProducer

	rec := &recordingSink{}
	logger, err := scroll.NewLogger(scroll.LoggerOptions{RingBufferSize: 1024}, rec)
	require.NoError(t, err)

	var counter atomic.Int64
	var wg sync.WaitGroup
	wg.Add(producers)
	for p := 0; p < producers; p++ {
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				n := counter.Add(1) - 1
				logger.Info(fmt.Sprintf("seq=%d", n))
			}
		}()
	}
	wg.Wait()
	logger.Shutdown()

	events := rec.snapshot()
	require.Len(t, events, total)

	seen := make([]bool, total)
	for _, e := range events {
		var n int
		_, err := fmt.Sscanf(e.Message, "seq=%d", &n)
		require.NoError(t, err)
		require.False(t, seen[n], "duplicate sequence number %d", n)
		seen[n] = true
	}
	for i, ok := range seen {
		require.True(t, ok, "missing sequence number %d", i)
	}
}

func TestFormatDetailedLevelCodes(t *testing.T) {
	assert.Equal(t, "TRC", scroll.Trace.String())
	assert.Equal(t, "FAT", scroll.Fatal.String())
}
