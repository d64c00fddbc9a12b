package core

import (
	"log"
	"os"
)

// Logger is the minimal logging surface the runtime needs. The default
// implementation wraps the standard log package; applications inject
// their own via WithLogger. Nothing logs on the message hot path.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// stdLogger writes leveled lines through a *log.Logger.
type stdLogger struct {
	l     *log.Logger
	debug bool
}

// NewStdLogger returns a Logger backed by the standard library.
func NewStdLogger(debug bool) Logger {
	return &stdLogger{
		l:     log.New(os.Stderr, "loom ", log.LstdFlags|log.Lmsgprefix),
		debug: debug,
	}
}

func (s *stdLogger) Debugf(format string, args ...interface{}) {
	if s.debug {
		s.l.Printf("DEBUG "+format, args...)
	}
}

func (s *stdLogger) Infof(format string, args ...interface{}) {
	s.l.Printf("INFO  "+format, args...)
}

func (s *stdLogger) Warnf(format string, args ...interface{}) {
	s.l.Printf("WARN  "+format, args...)
}

func (s *stdLogger) Errorf(format string, args ...interface{}) {
	s.l.Printf("ERROR "+format, args...)
}

// nopLogger discards everything. Useful in benchmarks.
type nopLogger struct{}

// NewNopLogger returns a Logger that discards all output.
func NewNopLogger() Logger { return nopLogger{} }

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
