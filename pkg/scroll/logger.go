package scroll

import (
	"os"
	"runtime"
	"strings"
	"sync"
	"time"
)

// LoggerOptions configures a Logger at construction.
type LoggerOptions struct {
	// RingBufferSize must be a power of two; 1024, 8192, 65536 and
	// 131072 are the practical range, but any power of two is accepted.
	RingBufferSize uint64
	WaitStrategy   WaitStrategy
}

// Logger is the MPSC disruptor: producers claim a ring slot, write a
// LogEvent, and publish; a single consumer goroutine dispatches every
// published event to the registered sinks in declaration order.
type Logger struct {
	ring *ringBuffer
	seq  *sequencer
	wait WaitStrategy

	sinks []Sink

	consumerDone chan struct{}
	shutdownOnce sync.Once
}

// NewLogger builds and starts a Logger with the given sinks, registered
// once at construction and never mutated while the logger runs.
func NewLogger(opts LoggerOptions, sinks ...Sink) (*Logger, error) {
	if opts.WaitStrategy == nil {
		opts.WaitStrategy = YieldingWait{}
	}
	ring, err := newRingBuffer(opts.RingBufferSize)
	if err != nil {
		return nil, err
	}
	l := &Logger{
		ring:         ring,
		seq:          newSequencer(ring.capacity(), opts.WaitStrategy),
		wait:         opts.WaitStrategy,
		sinks:        sinks,
		consumerDone: make(chan struct{}),
	}
	go l.consumeLoop()
	return l, nil
}

// Log claims a ring slot, fills it with a LogEvent built from level,
// msg and the immediate caller's source location, and publishes it.
// logSkip's skip is handed to runtime.Caller from inside logSkip, so 2
// selects the caller of Log (or of Trace/Debug/...).
func (l *Logger) Log(level Level, msg string) {
	l.logSkip(level, msg, 2)
}

func (l *Logger) logSkip(level Level, msg string, skip int) {
	pc, file, line, _ := runtime.Caller(skip)
	fn := "unknown"
	if f := runtime.FuncForPC(pc); f != nil {
		name := f.Name()
		if idx := strings.LastIndexByte(name, '.'); idx >= 0 {
			fn = name[idx+1:]
		} else {
			fn = name
		}
	}

	seq := l.seq.claim()
	slot := l.ring.at(seq)
	*slot = LogEvent{
		Level:     level,
		Message:   msg,
		File:      file,
		Line:      line,
		Func:      fn,
		Timestamp: time.Now(),
		ThreadID:  threadID(),
		ProcessID: os.Getpid(),
	}
	l.seq.publish(seq)
}

func (l *Logger) Trace(msg string) { l.logSkip(Trace, msg, 2) }
func (l *Logger) Debug(msg string) { l.logSkip(Debug, msg, 2) }
func (l *Logger) Info(msg string)  { l.logSkip(Info, msg, 2) }
func (l *Logger) Warn(msg string)  { l.logSkip(Warn, msg, 2) }
func (l *Logger) Error(msg string) { l.logSkip(Error, msg, 2) }
func (l *Logger) Fatal(msg string) { l.logSkip(Fatal, msg, 2) }

// consumeLoop is the single consumer goroutine: it reads the highest
// published sequence relative to its own next cursor, dispatches every
// slot in range to every sink in order, then advances the gating
// sequence. A slot with Shutdown set triggers a final flush and exit.
func (l *Logger) consumeLoop() {
	defer close(l.consumerDone)
	var next uint64
	for {
		highest := l.seq.waitForPublished(next)
		for ; next < highest; next++ {
			event := *l.ring.at(next)
			if event.Shutdown {
				l.flushAll()
				l.seq.markConsumed(next + 1)
				return
			}
			for _, sink := range l.sinks {
				sink.Process(event)
			}
		}
		l.seq.markConsumed(next)
	}
}

func (l *Logger) flushAll() {
	for _, sink := range l.sinks {
		sink.Flush()
	}
}

// Shutdown injects a shutdown-signal event and blocks until the
// consumer has processed every earlier event, flushed every sink, and
// exited. Safe to call more than once; only the first call has effect.
func (l *Logger) Shutdown() {
	l.shutdownOnce.Do(func() {
		seq := l.seq.claim()
		*l.ring.at(seq) = LogEvent{Shutdown: true}
		l.seq.publish(seq)
		<-l.consumerDone
	})
}

// StreamProxy accumulates message fragments via Write-chained
// calls and, on Emit, performs one claim/publish carrying the
// concatenated message — the Go analogue of the original's scoped
// operator<< helper, which relied on C++ destructors to flush; Go has
// no destructor, so the caller calls Emit explicitly (typically via
// defer).
type StreamProxy struct {
	logger *Logger
	level  Level
	buf    strings.Builder
}

// Stream starts a StreamProxy for level; call Write one or more times,
// then Emit (or defer it) to publish the accumulated message.
func (l *Logger) Stream(level Level) *StreamProxy {
	return &StreamProxy{logger: l, level: level}
}

func (p *StreamProxy) Write(fragment string) *StreamProxy {
	p.buf.WriteString(fragment)
	return p
}

func (p *StreamProxy) Emit() {
	if p.buf.Len() == 0 {
		return
	}
	p.logger.logSkip(p.level, p.buf.String(), 3)
}

// RingCapacity reports the logger's configured ring buffer size, e.g.
// for tests that need to size their workload relative to it.
func (l *Logger) RingCapacity() uint64 { return l.ring.capacity() }

// validRingSizes are the practical sizes; NewLogger does not enforce
// membership in this set (any power of two is accepted), but
// InvalidConfig is still raised for a non-power-of-two.
var validRingSizes = map[uint64]bool{1024: true, 8192: true, 65536: true, 131072: true}

// RecommendedSize reports whether n is one of the practical ring
// sizes, for callers that want to validate against that profile
// without the Logger itself rejecting other powers of two.
func RecommendedSize(n uint64) bool { return validRingSizes[n] }
