package logging

import (
	"fmt"
)

// Interface decouples packages from the concrete logging library.
//
// Production code gets a zap-backed implementation from Module, tests usually
// pass NewTestLogger or Nop. Structured fields should be attached with
// WithField instead of being formatted into the message.
type Interface interface {
	WithField(key string, value interface{}) Interface
	WithError(err error) Interface

	Debug(msg string)
	Info(msg string)
	Warn(msg string)
	Error(msg string)
	Fatal(msg string)

	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
}

func fmtMsg(format string, args []interface{}) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
