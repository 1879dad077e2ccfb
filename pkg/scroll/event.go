package scroll

import "time"

// Level is a log severity, ordered from most to least verbose.
type Level int

const (
	Trace Level = iota
	Debug
	Info
	Warn
	Error
	Fatal
)

// String renders the three-letter level codes used in the log format:
// TRC|DBG|INF|WRN|ERR|FAT.
func (l Level) String() string {
	switch l {
	case Trace:
		return "TRC"
	case Debug:
		return "DBG"
	case Info:
		return "INF"
	case Warn:
		return "WRN"
	case Error:
		return "ERR"
	case Fatal:
		return "FAT"
	default:
		return "UNK"
	}
}

// LogEvent is one deferred log record living inside a single ring
// slot: written once by the producer that claimed it, read once by the
// consumer. A slot with Shutdown set carries no message; its only
// purpose is to signal the consumer to flush and exit.
type LogEvent struct {
	Level     Level
	Message   string
	File      string
	Line      int
	Func      string
	Timestamp time.Time
	ThreadID  int64
	ProcessID int
	Shutdown  bool
}
