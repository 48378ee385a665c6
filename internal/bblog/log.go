// Package bblog provides the structured logger shared across the core
// packages and the CLI front end.
package bblog

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the package-wide logger. Commands and core packages log
// through it rather than constructing their own, so verbosity and output
// format stay consistent across a run.
var Logger = newDefault()

func newDefault() *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.InfoLevel)
	return l
}

// SetVerbose switches the logger to debug level, used by the CLI's -v flag.
func SetVerbose(verbose bool) {
	if verbose {
		Logger.SetLevel(logrus.DebugLevel)
	} else {
		Logger.SetLevel(logrus.InfoLevel)
	}
}

// SetOutput redirects logging, mainly for tests that want to assert on
// emitted lines instead of polluting stderr.
func SetOutput(w io.Writer) {
	Logger.SetOutput(w)
}

// IOError wraps a filesystem or subprocess-spawn failure with the
// operation that failed, per the core's error-kind taxonomy.
type IOError struct {
	Op    string
	Path  string
	Cause error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return e.Op + ": " + e.Cause.Error()
	}
	return e.Op + " " + e.Path + ": " + e.Cause.Error()
}

func (e *IOError) Unwrap() error { return e.Cause }

// WrapIO builds an *IOError, or returns nil if err is nil.
func WrapIO(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Op: op, Path: path, Cause: err}
}
