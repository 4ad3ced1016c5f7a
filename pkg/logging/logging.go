package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// LogLevel defines the severity of the log entry.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String makes LogLevel satisfy the fmt.Stringer interface.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLogLevel converts a level name such as "debug" or "WARN" into a LogLevel.
func ParseLogLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", s)
	}
}

var (
	mu            sync.RWMutex
	defaultLogger *slog.Logger
)

// InitForCLI initializes the logging system. It is safe to call more than once;
// the last call wins.
func InitForCLI(filterLevel LogLevel, output io.Writer) {
	if output == nil {
		output = os.Stderr
	}
	handler := slog.NewTextHandler(output, &slog.HandlerOptions{
		Level: filterLevel.SlogLevel(),
	})

	mu.Lock()
	defaultLogger = slog.New(handler)
	mu.Unlock()
}

// Enabled reports whether messages at the given level would be emitted.
func Enabled(level LogLevel) bool {
	mu.RLock()
	logger := defaultLogger
	mu.RUnlock()
	return logger != nil && logger.Enabled(context.Background(), level.SlogLevel())
}

func logInternal(level LogLevel, subsystem string, err error, messageFmt string, args ...interface{}) {
	mu.RLock()
	logger := defaultLogger
	mu.RUnlock()

	if logger == nil || !logger.Enabled(context.Background(), level.SlogLevel()) {
		return
	}

	msg := messageFmt
	if len(args) > 0 {
		msg = fmt.Sprintf(messageFmt, args...)
	}

	attrs := []slog.Attr{slog.String("subsystem", subsystem)}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}

	logger.LogAttrs(context.Background(), level.SlogLevel(), msg, attrs...)
}

// Debug logs a debug message.
func Debug(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(LevelDebug, subsystem, nil, messageFmt, args...)
}

// Info logs an informational message.
func Info(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(LevelInfo, subsystem, nil, messageFmt, args...)
}

// Warn logs a warning message.
func Warn(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(LevelWarn, subsystem, nil, messageFmt, args...)
}

// Error logs an error message.
func Error(subsystem string, err error, messageFmt string, args ...interface{}) {
	logInternal(LevelError, subsystem, err, messageFmt, args...)
}

// lineWriter buffers partial writes and logs one entry per complete line.
type lineWriter struct {
	mu        sync.Mutex
	subsystem string
	level     LogLevel
	buf       bytes.Buffer
}

// LineWriter returns a writer that logs every complete line written to it.
// A trailing partial line is held until the next newline arrives.
func LineWriter(subsystem string, level LogLevel) io.Writer {
	return &lineWriter{subsystem: subsystem, level: level}
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Write(p)
	for {
		line, err := w.buf.ReadString('\n')
		if err != nil {
			// No newline yet; put the fragment back.
			w.buf.Reset()
			w.buf.WriteString(line)
			break
		}
		line = strings.TrimRight(line, "\r\n")
		if line != "" {
			logInternal(w.level, w.subsystem, nil, "%s", line)
		}
	}
	return len(p), nil
}

// Since formats the elapsed time since start for log messages.
func Since(start time.Time) string {
	return time.Since(start).Round(time.Millisecond).String()
}
