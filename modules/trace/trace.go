// Package trace provides the merge engine's debug/warn logging, a thin
// wrapper over logrus in the style of the teacher's modules/trace package.
package trace

import (
	"fmt"
	"runtime"

	"github.com/sirupsen/logrus"
)

// Log is the package-level logger (logrus's standard logger); callers may
// swap its formatter/level before use (e.g. cmd/mergekit raises the level to
// Debug for --verbose runs).
var Log = logrus.StandardLogger()

func location(skip int) (string, int) {
	pc, _, line, ok := runtime.Caller(skip)
	if !ok {
		return "?", line
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return "?", line
	}
	return fn.Name(), line
}

// Dbg logs a Debug-level trace message, used for auto-merge/no-op decisions.
func Dbg(format string, args ...any) {
	Log.Debugf(format, args...)
}

// Conflict logs a Warn-level message for a surfaced merge conflict.
func Conflict(format string, args ...any) {
	Log.Warnf(format, args...)
}

// Fatalf logs an Error-level message for store corruption and returns the
// formatted error, matching the teacher's trace.Errorf: log then propagate,
// never os.Exit.
func Fatalf(format string, args ...any) error {
	fn, line := location(2)
	msg := fmt.Sprintf(format, args...)
	Log.Errorf("%s:%d %s", fn, line, msg)
	return fmt.Errorf("%s", msg)
}
