// Package logutil provides package-level loggers sharing one output and level.
package logutil

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	mu   sync.Mutex
	base = newBase()
)

func newBase() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return l
}

// GetLogger gets a logger with the given prefix. The prefix is recorded in the
// "pkg" field with surrounding brackets and spaces removed, so "[compile] "
// becomes "compile".
func GetLogger(prefix string) logrus.FieldLogger {
	name := strings.Trim(strings.TrimSpace(prefix), "[]")
	return base.WithField("pkg", name)
}

// SetOutput redirects all loggers obtained from GetLogger.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	base.SetOutput(w)
}

// SetOutputFile redirects all loggers to the named file. An empty name turns
// logging off.
func SetOutputFile(fname string) error {
	if fname == "" {
		SetOutput(io.Discard)
		return nil
	}
	f, err := os.OpenFile(fname, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	SetOutput(f)
	return nil
}

// SetLevel parses and sets the level of all loggers.
func SetLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	mu.Lock()
	defer mu.Unlock()
	base.SetLevel(lvl)
	return nil
}

// Base returns the underlying logger.
func Base() *logrus.Logger { return base }

// DebugEnabled reports whether debug messages are logged.
func DebugEnabled() bool { return base.IsLevelEnabled(logrus.DebugLevel) }
