package scroll

import "fmt"

// Sink receives every dispatched LogEvent unconditionally; it is
// responsible for filtering by its own threshold internally — the
// consumer calls Process unconditionally, the sink decides whether to
// act on it. Sinks are registered once at Logger construction and
// never mutated while the logger runs.
type Sink interface {
	Process(event LogEvent)
	Flush()
	ShouldLog(level Level) bool
}

// formatDetailed renders event in the "detailed" entry format:
// YYYY-MM-DDTHH:MM:SS.mmmZ [LEVEL] [file:line func] [tid N, pid M] <message>
func formatDetailed(event LogEvent) string {
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z")
	return fmt.Sprintf("%s [%s] [%s:%d %s] [tid %d, pid %d] %s",
		ts, event.Level, event.File, event.Line, event.Func,
		event.ThreadID, event.ProcessID, event.Message)
}
