package logging

import "github.com/sirupsen/logrus"

type logrusWrapper struct {
	entry *logrus.Entry
}

// ForLogrus adapts a logrus entry to Interface.
func ForLogrus(entry *logrus.Entry) Interface {
	return logrusWrapper{entry: entry}
}

// NewTestLogger returns a debug-level logrus logger writing to stderr.
func NewTestLogger() Interface {
	l := logrus.New()
	l.SetLevel(logrus.DebugLevel)
	return ForLogrus(logrus.NewEntry(l))
}

func (l logrusWrapper) WithField(key string, value interface{}) Interface {
	return logrusWrapper{entry: l.entry.WithField(key, value)}
}

func (l logrusWrapper) WithError(err error) Interface {
	return logrusWrapper{entry: l.entry.WithError(err)}
}

func (l logrusWrapper) Debug(msg string)                          { l.entry.Debug(msg) }
func (l logrusWrapper) Info(msg string)                           { l.entry.Info(msg) }
func (l logrusWrapper) Warn(msg string)                           { l.entry.Warn(msg) }
func (l logrusWrapper) Error(msg string)                          { l.entry.Error(msg) }
func (l logrusWrapper) Fatal(msg string)                          { l.entry.Fatal(msg) }
func (l logrusWrapper) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l logrusWrapper) Infof(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l logrusWrapper) Warnf(format string, args ...interface{})  { l.entry.Warnf(format, args...) }
func (l logrusWrapper) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }
func (l logrusWrapper) Fatalf(format string, args ...interface{}) { l.entry.Fatalf(format, args...) }
