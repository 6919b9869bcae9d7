package sacn

import (
	"os"

	charmlog "github.com/charmbracelet/log"
)

// charmLogger adapts a *charmlog.Logger to the Logger interface.
type charmLogger struct {
	l *charmlog.Logger
}

// NewCharmLogger returns a Logger backed by charmbracelet/log, writing
// timestamped, leveled output to os.Stderr. This is the logger the cmd/
// binaries wire in by default.
func NewCharmLogger() Logger {
	l := charmlog.NewWithOptions(os.Stderr, charmlog.Options{
		ReportTimestamp: true,
		Prefix:          "sacn",
	})
	return &charmLogger{l: l}
}

func (c *charmLogger) Debugf(format string, args ...any) { c.l.Debugf(format, args...) }
func (c *charmLogger) Infof(format string, args ...any)  { c.l.Infof(format, args...) }
func (c *charmLogger) Warnf(format string, args ...any)  { c.l.Warnf(format, args...) }
func (c *charmLogger) Errorf(format string, args ...any) { c.l.Errorf(format, args...) }
