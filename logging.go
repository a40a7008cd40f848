package provision

import (
	charmlog "github.com/charmbracelet/log"
)

// charmLogger adapts a charmbracelet/log logger to the Logger interface.
type charmLogger struct {
	l *charmlog.Logger
}

// NewLogAdapter wraps a charmbracelet/log logger for use as a Logger.
// Pass charmlog.Default() to log through the process-wide logger.
func NewLogAdapter(l *charmlog.Logger) Logger {
	return &charmLogger{l: l}
}

func (c *charmLogger) Debug(msg string, keysAndValues ...any) {
	c.l.Debug(msg, keysAndValues...)
}

func (c *charmLogger) Info(msg string, keysAndValues ...any) {
	c.l.Info(msg, keysAndValues...)
}

func (c *charmLogger) Warn(msg string, keysAndValues ...any) {
	c.l.Warn(msg, keysAndValues...)
}

func (c *charmLogger) Error(msg string, keysAndValues ...any) {
	c.l.Error(msg, keysAndValues...)
}
