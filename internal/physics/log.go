package physics

import (
	"io"
	"log"
	"os"
	"sync/atomic"
)

var (
	logger  atomic.Pointer[log.Logger]
	verbose atomic.Bool
)

func init() {
	logger.Store(log.New(os.Stderr, "physics: ", 0))
}

// SetLogger replaces the package logger. A nil logger silences output.
func SetLogger(l *log.Logger) {
	if l == nil {
		l = log.New(io.Discard, "", 0)
	}
	logger.Store(l)
}

// SetVerbose enables per-contact debug notices such as depth clamping.
func SetVerbose(v bool) { verbose.Store(v) }

func Logger() *log.Logger { return logger.Load() }

func warnf(format string, args ...any) {
	logger.Load().Printf(format, args...)
}

func debugf(format string, args ...any) {
	if verbose.Load() {
		logger.Load().Printf(format, args...)
	}
}
