package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

type syncer interface {
	Sync() error
}

// flushWriter pushes every record to its destination as soon as it is written
type flushWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (f *flushWriter) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	n, err := f.w.Write(p)
	if err != nil {
		return n, err
	}
	if s, ok := f.w.(interface{ Flush() error }); ok {
		return n, s.Flush()
	}
	if s, ok := f.w.(syncer); ok {
		// stdout/stderr on a terminal or pipe reject fsync; that is fine
		_ = s.Sync()
	}
	return n, nil
}

// New builds the process logger. Every component receives it by injection.
func New(level string, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	handler := slog.NewTextHandler(&flushWriter{w: w}, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})
	return slog.New(handler)
}

// Discard returns a logger that drops everything
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel maps a config string onto a slog level, defaulting to info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
