package scroll

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/demiplane/demiplane/pkg/outcome"
)

// FileSinkOptions configures a FileSink. Rotation requires
// AddTimeToFilename, and MaxFileSize must be > 0 when Rotation is set
// — enforced by NewFileSink, not left for the first write to discover.
type FileSinkOptions struct {
	Threshold        Level
	File             string
	AddTimeToFilename bool
	TimeFormat       string // defaults to "2006-01-02T15:04:05Z"
	Rotation         bool
	MaxFileSize      int64
	FlushEachEntry   bool
}

// FileSink opens a file (optionally time-stamped) and writes formatted
// entries under a mutex through a buffered writer; when rotation is
// enabled it checks size after every write and opens a new time-stamped
// file on overflow.
type FileSink struct {
	mu        sync.Mutex
	threshold Level
	opts      FileSinkOptions

	f          *os.File
	w          *bufio.Writer
	bytesWritten int64
}

func NewFileSink(opts FileSinkOptions) (*FileSink, error) {
	if opts.Rotation && !opts.AddTimeToFilename {
		return nil, outcome.New(outcome.InvalidConfig, "file sink rotation requires add_time_to_filename")
	}
	if opts.Rotation && opts.MaxFileSize <= 0 {
		return nil, outcome.New(outcome.InvalidConfig, "file sink rotation requires max_file_size > 0")
	}
	if opts.TimeFormat == "" {
		opts.TimeFormat = "2006-01-02T15:04:05Z"
	}

	s := &FileSink{threshold: opts.Threshold, opts: opts}
	if err := s.openNewFile(); err != nil {
		return nil, err
	}
	return s, nil
}

// rotatedName renders "stem_YYYY-MM-DDThh:mm:ssZ.ext" for a rotated
// file.
func rotatedName(path string, timeFormat string) string {
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	return stem + "_" + time.Now().UTC().Format(timeFormat) + ext
}

func (s *FileSink) openNewFile() error {
	path := s.opts.File
	if s.opts.AddTimeToFilename {
		path = rotatedName(s.opts.File, s.opts.TimeFormat)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return outcome.Wrap(outcome.IoError, err, "opening log file %q", path)
	}
	s.f = f
	s.w = bufio.NewWriterSize(f, 64*1024)
	s.bytesWritten = 0
	return nil
}

func (s *FileSink) ShouldLog(level Level) bool { return level >= s.threshold }

func (s *FileSink) Process(event LogEvent) {
	if !s.ShouldLog(event.Level) {
		return
	}
	line := formatDetailed(event) + "\n"

	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.w.WriteString(line)
	if err != nil {
		return
	}
	s.bytesWritten += int64(n)
	if s.opts.FlushEachEntry {
		_ = s.w.Flush()
	}
	if s.opts.Rotation && s.bytesWritten >= s.opts.MaxFileSize {
		_ = s.w.Flush()
		_ = s.f.Close()
		_ = s.openNewFile()
	}
}

func (s *FileSink) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.w.Flush()
}

// Close flushes and closes the underlying file; callers typically wire
// this into the owning Logger's shutdown path.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.w.Flush()
	return s.f.Close()
}
