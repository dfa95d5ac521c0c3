// Package fatal implements the single entry point for developer-invariant
// breaches: configuration violations that indicate a bug rather than a
// runtime condition, and which must abort the process rather than be
// returned up a call chain.
package fatal

import (
	"os"

	"github.com/duniter/dunicore/log"
)

// exitFunc is swapped out in tests so Fatal can be exercised without
// killing the test binary.
var exitFunc = os.Exit

// Fatal logs one line identifying subsystem and err, then exits the
// process with status 2 (fatal runtime error, per the CLI exit-code table).
func Fatal(logger log.Logger, subsystem string, err error) {
	logger.Error("fatal", "subsystem", subsystem, "err", err)
	exitFunc(2)
}

// SetExitFuncForTest overrides the process-exit hook and returns a
// function that restores the previous one. Exported so other packages'
// tests can exercise callers of Fatal (e.g. the router's fatal
// configuration errors) without terminating the test binary.
func SetExitFuncForTest(f func(code int)) (restore func()) {
	orig := exitFunc
	exitFunc = f
	return func() { exitFunc = orig }
}
