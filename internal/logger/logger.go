// Package logger provides the leveled console logger used by the search,
// conversion and navigation components.
//
// Output lines look like "[HH:MM:SS] [WARN] message". Level tags are
// colorized when the destination is a terminal. Implementations are safe for
// concurrent use; scan workers log from many goroutines at once.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Log level constants for filtering
const (
	levelTrace int = 0
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

// Logger is the logging surface the core packages depend on.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// ConsoleLogger writes timestamped, level-filtered lines to a writer.
type ConsoleLogger struct {
	writer      io.Writer
	level       int
	mutex       sync.Mutex
	colorOutput bool
	now         func() time.Time
}

// NewConsoleLogger creates a ConsoleLogger that writes to w.
// If w is nil, messages are silently discarded.
// Valid levels: trace, debug, info, warn, error (case-insensitive); anything
// else falls back to info.
func NewConsoleLogger(w io.Writer, level string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      w,
		level:       levelToInt(NormalizeLevel(level)),
		colorOutput: isTerminal(w),
		now:         time.Now,
	}
}

// isTerminal reports whether w is a TTY that should receive ANSI colors.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || f == nil {
		return false
	}
	if color.NoColor {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// NormalizeLevel lowercases level and maps unknown values to "info".
func NormalizeLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))
	switch normalized {
	case "trace", "debug", "info", "warn", "error":
		return normalized
	}
	return "info"
}

func levelToInt(level string) int {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

// Tracef logs at TRACE.
func (cl *ConsoleLogger) Tracef(format string, args ...any) {
	cl.log(levelTrace, "TRACE", format, args...)
}

// Debugf logs at DEBUG.
func (cl *ConsoleLogger) Debugf(format string, args ...any) {
	cl.log(levelDebug, "DEBUG", format, args...)
}

// Infof logs at INFO.
func (cl *ConsoleLogger) Infof(format string, args ...any) {
	cl.log(levelInfo, "INFO", format, args...)
}

// Warnf logs at WARN.
func (cl *ConsoleLogger) Warnf(format string, args ...any) {
	cl.log(levelWarn, "WARN", format, args...)
}

// Errorf logs at ERROR.
func (cl *ConsoleLogger) Errorf(format string, args ...any) {
	cl.log(levelError, "ERROR", format, args...)
}

func (cl *ConsoleLogger) log(level int, tag, format string, args ...any) {
	if cl.writer == nil || level < cl.level {
		return
	}
	message := fmt.Sprintf(format, args...)

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := cl.now().Format("15:04:05")
	if cl.colorOutput {
		tag = colorize(tag)
	}
	fmt.Fprintf(cl.writer, "[%s] [%s] %s\n", ts, tag, message)
}

func colorize(tag string) string {
	switch tag {
	case "TRACE":
		return color.New(color.FgHiBlack).Sprint(tag)
	case "DEBUG":
		return color.New(color.FgCyan).Sprint(tag)
	case "INFO":
		return color.New(color.FgBlue).Sprint(tag)
	case "WARN":
		return color.New(color.FgYellow).Sprint(tag)
	case "ERROR":
		return color.New(color.FgRed).Sprint(tag)
	}
	return tag
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return nopLogger{}
}

// OrNop returns l, or Nop() when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return Nop()
	}
	return l
}
