package helper

import (
	"runtime/debug"

	"github.com/leoprim/ranked-tracker-web/pkg/logger"
)

// RecoverPanic recovers from panics in goroutines and logs the stack trace.
// Any onPanic callbacks run after logging, e.g. to answer an HTTP request.
// Usage: defer helper.RecoverPanic(logger, "goroutine-name")
func RecoverPanic(log *logger.Logger, name string, onPanic ...func(recovered any)) {
	if r := recover(); r != nil {
		log.Errorf("PANIC recovered in %s: %v\nStack: %s", name, r, debug.Stack())
		for _, fn := range onPanic {
			fn(r)
		}
	}
}
