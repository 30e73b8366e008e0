// Package logger provides leveled file logging for the dashboard client.
// Logging defaults to off so library consumers stay silent unless the
// composition root initializes a sink.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Level represents a logging level
type Level int

const (
	// LevelDebug is the most verbose logging level
	LevelDebug Level = iota
	// LevelInfo logs informational messages
	LevelInfo
	// LevelWarn logs warnings
	LevelWarn
	// LevelError logs errors
	LevelError
	// LevelNone disables all logging
	LevelNone
)

// String returns string representation of log level
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelNone:
		return "NONE"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a string into a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch s {
	case "debug", "DEBUG":
		return LevelDebug
	case "info", "INFO":
		return LevelInfo
	case "warn", "WARN", "warning", "WARNING":
		return LevelWarn
	case "error", "ERROR":
		return LevelError
	case "none", "NONE":
		return LevelNone
	default:
		return LevelInfo
	}
}

// Logger writes timestamped, level-tagged lines to a single sink.
type Logger struct {
	mu     sync.RWMutex
	level  Level
	out    *log.Logger
	prefix string
	file   *os.File
}

var (
	globalLogger *Logger
	once         sync.Once
)

// Init initializes the global logger. Safe to call more than once; only the
// first call takes effect.
func Init(level Level, logPath string) error {
	var err error
	once.Do(func() {
		globalLogger, err = New(level, logPath, "")
	})
	return err
}

// New creates a Logger writing to the given file path. An empty path or
// LevelNone yields a no-op logger.
func New(level Level, logPath, prefix string) (*Logger, error) {
	if level == LevelNone || logPath == "" {
		return &Logger{level: LevelNone, out: log.New(io.Discard, "", 0), prefix: prefix}, nil
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	return &Logger{level: level, out: log.New(file, "", 0), prefix: prefix, file: file}, nil
}

// NewWriter creates a Logger writing to an arbitrary writer. Used by tests
// and by the CLI when logging to stderr.
func NewWriter(level Level, w io.Writer, prefix string) *Logger {
	return &Logger{level: level, out: log.New(w, "", 0), prefix: prefix}
}

// Global returns the global logger, a silent one if Init was never called.
func Global() *Logger {
	if globalLogger == nil {
		globalLogger = &Logger{level: LevelNone, out: log.New(io.Discard, "", 0)}
	}
	return globalLogger
}

// WithPrefix returns a logger sharing this logger's sink with an extra
// component prefix.
func (l *Logger) WithPrefix(prefix string) *Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()

	joined := prefix
	if l.prefix != "" {
		joined = l.prefix + ":" + prefix
	}
	return &Logger{level: l.level, out: l.out, prefix: joined, file: l.file}
}

// SetLevel sets the logging level
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

func (l *Logger) log(level Level, format string, args ...interface{}) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.level == LevelNone || level < l.level {
		return
	}

	prefix := ""
	if l.prefix != "" {
		prefix = "[" + l.prefix + "] "
	}
	l.out.Printf("%s [%s] %s%s",
		time.Now().Format("2006-01-02 15:04:05.000"),
		level.String(), prefix, fmt.Sprintf(format, args...))
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) { l.log(LevelDebug, format, args...) }

// Info logs an informational message
func (l *Logger) Info(format string, args ...interface{}) { l.log(LevelInfo, format, args...) }

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) { l.log(LevelWarn, format, args...) }

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) { l.log(LevelError, format, args...) }

// Close closes the logger's underlying file, if any.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// Global logging functions for convenience

// Debug logs a debug message using the global logger
func Debug(format string, args ...interface{}) { Global().Debug(format, args...) }

// Info logs an informational message using the global logger
func Info(format string, args ...interface{}) { Global().Info(format, args...) }

// Warn logs a warning message using the global logger
func Warn(format string, args ...interface{}) { Global().Warn(format, args...) }

// Error logs an error message using the global logger
func Error(format string, args ...interface{}) { Global().Error(format, args...) }
