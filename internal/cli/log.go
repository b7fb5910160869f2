// Package cli implements the taskplan command-line interface.
//
// # Commands
//
//   - solve: search for a minimal-makespan schedule of a DOT or JSON task graph
//   - gantt: browse a solved schedule as an interactive Gantt chart
//   - serve: expose solve and run history over HTTP
//   - runs: list, show and delete recorded runs
//   - cache: inspect and clear the solve cache
//
// # Logging
//
// Logs go to stderr through charmbracelet/log so schedule tables and file
// paths on stdout stay pipeable. --verbose (-v) adds search progress and
// cache activity. The root command attaches the logger to the command
// context.
//
// # Configuration
//
// Defaults are read from $XDG_CONFIG_HOME/taskplan/config.toml, or the file
// named by --config. Flags and HTTP query parameters override the file.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger returns a stderr-style logger with centisecond timestamps.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// stopwatch times one solve and logs its summary.
type stopwatch struct {
	logger *log.Logger
	start  time.Time
}

func startStopwatch(l *log.Logger) *stopwatch {
	return &stopwatch{logger: l, start: time.Now()}
}

// done logs msg with keyvals and the elapsed time, rounded to milliseconds.
func (s *stopwatch) done(msg string, keyvals ...any) {
	keyvals = append(keyvals, "elapsed", time.Since(s.start).Round(time.Millisecond))
	s.logger.Info(msg, keyvals...)
}

type ctxKey int

const loggerKey ctxKey = 0

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger attached by the root command, or
// log.Default when a command runs outside it (tests).
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
