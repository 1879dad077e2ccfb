//go:build linux

package scroll

import "golang.org/x/sys/unix"

// threadID returns the calling OS thread's tid. Go goroutines migrate
// between OS threads, so this is a snapshot of "which thread happened
// to run this log call", not a stable per-goroutine identity. Close
// enough for the log line's diagnostic purpose.
func threadID() int64 {
	return int64(unix.Gettid())
}
