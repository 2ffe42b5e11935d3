// Package logging provides the proxy's shared structured logger: a
// package-level *logrus.Logger, SetLevel/SetJSONFormat toggles, and
// helpers for component-scoped entries used by every subsystem that logs.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Log is the process-wide logger. Components should not construct their own
// *logrus.Logger; they call Component to get a field-scoped *logrus.Entry.
var Log = logrus.New()

func init() {
	Log.SetOutput(os.Stderr)
	Log.SetLevel(logrus.InfoLevel)
	Log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02T15:04:05Z07:00",
	})
}

// SetLevel parses level and applies it, returning an error for an unknown
// name rather than silently falling back to Info.
func SetLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	Log.SetLevel(lvl)
	return nil
}

// SetJSONFormat switches the logger to JSON output, for deployments that
// ship logs to a collector rather than a terminal.
func SetJSONFormat() {
	Log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05Z07:00",
	})
}

// Component returns a logger scoped to name (e.g. "socks5", "modem", "api"),
// the way every long-running subsystem in cellroute identifies its log
// lines.
func Component(name string) *logrus.Entry {
	return Log.WithField("component", name)
}

// WithFields returns an entry on the root logger carrying fields, for
// one-off call sites that don't have a component entry handy (e.g. main).
func WithFields(fields logrus.Fields) *logrus.Entry {
	return Log.WithFields(fields)
}
