package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// LogLevel defines the severity of the log entry.
type LogLevel int

const (
	LevelTrace LogLevel = iota
	LevelDebug
	LevelInfo
	LevelNotice
	LevelWarn
	LevelError
)

// slog has no trace or notice level, these sit between the built-in ones.
const (
	slogLevelTrace  = slog.LevelDebug - 4
	slogLevelNotice = slog.LevelInfo + 2
)

var levelNames = []string{"TRACE", "DEBUG", "INFO", "NOTICE", "WARN", "ERROR"}

// String makes LogLevel satisfy the fmt.Stringer interface.
func (l LogLevel) String() string {
	if l < LevelTrace || l > LevelError {
		return "UNKNOWN"
	}
	return levelNames[l]
}

func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LevelTrace:
		return slogLevelTrace
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelNotice:
		return slogLevelNotice
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo // Default to INFO for unknown
	}
}

// LevelNames lists the runlevels accepted by ParseLevel, lowest first.
func LevelNames() []string {
	names := make([]string, len(levelNames))
	copy(names, levelNames)
	return names
}

// ParseLevel resolves a runlevel name such as "notice" or "WARN".
func ParseLevel(name string) (LogLevel, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for i, candidate := range levelNames {
		if candidate == upper {
			return LogLevel(i), nil
		}
	}
	return LevelInfo, fmt.Errorf("'%s' isn't a logging runlevel", name)
}

// LogEntry is a single buffered log record.
type LogEntry struct {
	Timestamp time.Time
	Level     LogLevel
	Subsystem string
	Message   string
	Err       error
}

// String renders the entry the way it appears in test reports.
func (e LogEntry) String() string {
	line := fmt.Sprintf("%s [%s] %s: %s", e.Timestamp.Format("15:04:05.000"), e.Level, e.Subsystem, e.Message)
	if e.Err != nil {
		line += fmt.Sprintf(" (error: %v)", e.Err)
	}
	return line
}

var (
	defaultLogger *slog.Logger
	bufferChannel chan LogEntry
	bufferLevel   LogLevel
	isBufferMode  bool
)

const bufferChannelSize = 4096

// Initcommon initializes the logger for either buffered or CLI mode.
// This should be called once at application startup.
func Initcommon(mode string, level LogLevel, output io.Writer, channelBufferSize int) <-chan LogEntry {
	opts := &slog.HandlerOptions{
		Level:       level.SlogLevel(),
		ReplaceAttr: renameLevels,
	}

	var handler slog.Handler
	if mode == "buffer" {
		isBufferMode = true
		bufferLevel = level
		if channelBufferSize <= 0 {
			channelBufferSize = bufferChannelSize
		}
		bufferChannel = make(chan LogEntry, channelBufferSize)
		// Buffered entries are rendered by the caller; direct slog output is dropped.
		handler = slog.NewTextHandler(io.Discard, opts)
	} else {
		isBufferMode = false
		bufferChannel = nil
		handler = slog.NewTextHandler(output, opts)
	}
	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)

	if isBufferMode {
		return bufferChannel
	}
	return nil
}

// InitForBuffer queues every entry at or above filterLevel on the returned
// channel instead of writing it. The test runner drains it after each group.
func InitForBuffer(filterLevel LogLevel) <-chan LogEntry {
	return Initcommon("buffer", filterLevel, io.Discard, bufferChannelSize)
}

// InitForCLI initializes the logging system for CLI mode.
func InitForCLI(filterLevel LogLevel, output io.Writer) {
	Initcommon("cli", filterLevel, output, 0)
}

// Drain returns the entries currently queued on ch without blocking.
func Drain(ch <-chan LogEntry) []LogEntry {
	var entries []LogEntry
	for {
		select {
		case entry, ok := <-ch:
			if !ok {
				return entries
			}
			entries = append(entries, entry)
		default:
			return entries
		}
	}
}

func renameLevels(groups []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey {
		return a
	}
	switch a.Value.Any().(slog.Level) {
	case slogLevelTrace:
		a.Value = slog.StringValue("TRACE")
	case slogLevelNotice:
		a.Value = slog.StringValue("NOTICE")
	}
	return a
}

func logInternal(level LogLevel, subsystem string, err error, messageFmt string, args ...interface{}) {
	if isBufferMode {
		if level < bufferLevel {
			return
		}
	} else if defaultLogger == nil || !defaultLogger.Enabled(context.Background(), level.SlogLevel()) {
		return
	}

	msg := messageFmt
	if len(args) > 0 {
		msg = fmt.Sprintf(messageFmt, args...)
	}
	now := time.Now()

	if isBufferMode {
		if bufferChannel == nil {
			fmt.Fprintf(os.Stderr, "[LOGGING_CRITICAL] buffer mode active but channel is nil. Log: %s [%s] %s\n", now.Format(time.RFC3339), level, msg)
			return
		}
		entry := LogEntry{
			Timestamp: now,
			Level:     level,
			Subsystem: subsystem,
			Message:   msg,
			Err:       err,
		}
		select {
		case bufferChannel <- entry:
		default:
			fmt.Fprintf(os.Stderr, "[LOGGING_CRITICAL] log buffer full. Dropping: %s [%s] %s\n", now.Format(time.RFC3339), level, msg)
		}
		return
	}

	var slogAttrs []slog.Attr
	slogAttrs = append(slogAttrs, slog.String("subsystem", subsystem))
	if err != nil {
		slogAttrs = append(slogAttrs, slog.String("error", err.Error()))
	}

	defaultLogger.LogAttrs(context.Background(), level.SlogLevel(), msg, slogAttrs...)
}

// Trace logs a trace message.
func Trace(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(LevelTrace, subsystem, nil, messageFmt, args...)
}

// Debug logs a debug message.
func Debug(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(LevelDebug, subsystem, nil, messageFmt, args...)
}

// Info logs an informational message.
func Info(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(LevelInfo, subsystem, nil, messageFmt, args...)
}

// Notice logs a notice, the level tor uses for its normal progress output.
func Notice(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(LevelNotice, subsystem, nil, messageFmt, args...)
}

// Warn logs a warning message.
func Warn(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(LevelWarn, subsystem, nil, messageFmt, args...)
}

// Error logs an error message.
func Error(subsystem string, err error, messageFmt string, args ...interface{}) {
	logInternal(LevelError, subsystem, err, messageFmt, args...)
}

// Log logs at an arbitrary level, used when relaying another program's log lines.
func Log(level LogLevel, subsystem string, messageFmt string, args ...interface{}) {
	logInternal(level, subsystem, nil, messageFmt, args...)
}

// CloseBuffer closes the buffer channel. Should be called on application shutdown.
func CloseBuffer() {
	if bufferChannel != nil {
		close(bufferChannel)
		bufferChannel = nil
	}
}
