package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger returns the CLI logger. Timestamps use "15:04:05.00".
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// runTimer logs the duration of a command and of its steps.
// Not safe for concurrent use.
type runTimer struct {
	logger *log.Logger
	start  time.Time
	last   time.Time
}

func startTimer(l *log.Logger) *runTimer {
	now := time.Now()
	return &runTimer{logger: l, start: now, last: now}
}

// step logs msg at debug level with the time since the previous step.
func (t *runTimer) step(msg string, keyvals ...any) {
	now := time.Now()
	t.logger.Debug(msg, append(keyvals, "took", now.Sub(t.last).Round(time.Millisecond))...)
	t.last = now
}

// done logs msg at info level with the total elapsed time.
func (t *runTimer) done(msg string, keyvals ...any) {
	t.logger.Info(msg, append(keyvals, "elapsed", time.Since(t.start).Round(time.Millisecond))...)
}
