package runtime

import (
	"fmt"
	"log/slog"
	"strings"
)

// BadgerLogger redirects the logs of the Badger engine to the application's slog.Logger.
// Badger messages end with a newline that slog does not need.
type BadgerLogger struct {
	logger *slog.Logger
}

func NewBadgerLogger(logger *slog.Logger) *BadgerLogger {
	return &BadgerLogger{logger: logger.With("component", "badger")}
}

func (l *BadgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(clean(format, args))
}

func (l *BadgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(clean(format, args))
}

func (l *BadgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(clean(format, args))
}

func (l *BadgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(clean(format, args))
}

func clean(format string, args []interface{}) string {
	return strings.TrimRight(fmt.Sprintf(format, args...), "\n")
}
