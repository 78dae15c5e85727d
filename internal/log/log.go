// Package log provides module-scoped structured loggers
// (logger.Info("msg", "key", val, ...)), backed by logrus.
package log

import (
	"os"

	"github.com/sirupsen/logrus"
)

var base = newBase()

func newBase() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		if parsed, err := logrus.ParseLevel(lvl); err == nil {
			l.SetLevel(parsed)
		}
	}
	return l
}

// ModuleLogger is a logrus entry permanently tagged with a module name.
type ModuleLogger struct {
	entry *logrus.Entry
}

// NewModuleLogger returns a logger that always carries a "module" field.
func NewModuleLogger(module string) *ModuleLogger {
	return &ModuleLogger{entry: base.WithField("module", module)}
}

func fields(kv []interface{}) logrus.Fields {
	f := make(logrus.Fields, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		f[key] = kv[i+1]
	}
	return f
}

func (m *ModuleLogger) Debug(msg string, kv ...interface{}) {
	m.entry.WithFields(fields(kv)).Debug(msg)
}

func (m *ModuleLogger) Info(msg string, kv ...interface{}) {
	m.entry.WithFields(fields(kv)).Info(msg)
}

func (m *ModuleLogger) Warn(msg string, kv ...interface{}) {
	m.entry.WithFields(fields(kv)).Warn(msg)
}

func (m *ModuleLogger) Error(msg string, kv ...interface{}) {
	m.entry.WithFields(fields(kv)).Error(msg)
}

// Crit logs at fatal level and terminates the process; use it for
// unrecoverable startup failures (e.g. missing config).
func (m *ModuleLogger) Crit(msg string, kv ...interface{}) {
	m.entry.WithFields(fields(kv)).Fatal(msg)
}
