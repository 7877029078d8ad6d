package testing

import (
	"fmt"
	"strings"

	"github.com/saturn597/stem/pkg/logging"
)

// runLogger implements TestLogger on top of the logging package, so the
// runner's own messages are buffered and flushed with everything else.
type runLogger struct {
	subsystem string
	debug     bool
}

// NewLogger creates a logger that logs under subsystem. Debug messages are
// only formatted when debug is set.
func NewLogger(subsystem string, debug bool) TestLogger {
	return &runLogger{
		subsystem: subsystem,
		debug:     debug,
	}
}

func (l *runLogger) Debug(format string, args ...interface{}) {
	if l.debug {
		logging.Debug(l.subsystem, "%s", message(format, args...))
	}
}

func (l *runLogger) Info(format string, args ...interface{}) {
	logging.Info(l.subsystem, "%s", message(format, args...))
}

func (l *runLogger) Error(format string, args ...interface{}) {
	logging.Error(l.subsystem, nil, "%s", message(format, args...))
}

func (l *runLogger) IsDebugEnabled() bool {
	return l.debug
}

// message formats a printf-style message without its trailing newline.
func message(format string, args ...interface{}) string {
	return strings.TrimRight(fmt.Sprintf(format, args...), "\n")
}

// silentLogger implements TestLogger, discarding everything.
type silentLogger struct{}

// NewSilentLogger creates a logger that suppresses all output.
func NewSilentLogger() TestLogger {
	return silentLogger{}
}

func (silentLogger) Debug(format string, args ...interface{}) {}

func (silentLogger) Info(format string, args ...interface{}) {}

func (silentLogger) Error(format string, args ...interface{}) {}

func (silentLogger) IsDebugEnabled() bool { return false }
