// Package monitoring holds the diagnostic loggers shared by the scan packages.
package monitoring

import (
	"log"
	"sync/atomic"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Scan notices (skipped radii, failed jobs, run
// summaries) go through it so callers can redirect or mute them.
var Logf func(format string, v ...interface{}) = log.Printf

// verbosity mirrors the CLI -v flag: 0 quiet, 1 notices, 2 per-job detail.
var verbosity atomic.Int32

func init() {
	verbosity.Store(1)
}

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// SetVerbosity sets the level used by Noticef and Debugf.
func SetVerbosity(level int) {
	verbosity.Store(int32(level))
}

// Verbosity returns the current level.
func Verbosity() int {
	return int(verbosity.Load())
}

// Noticef logs through Logf when verbosity is at least 1.
func Noticef(format string, v ...interface{}) {
	if verbosity.Load() >= 1 {
		Logf(format, v...)
	}
}

// Debugf logs through Logf when verbosity is at least 2.
func Debugf(format string, v ...interface{}) {
	if verbosity.Load() >= 2 {
		Logf(format, v...)
	}
}
