// Package recovery provides panic-recovery wrappers for holder, UDTF and
// scan-function callbacks supplied by embedders. A panic inside user code
// must never take down the host process.
package recovery

import (
	"fmt"
	"log/slog"
	"runtime/debug"
)

// RecoverToError wraps a function call with panic recovery, converting a
// panic into a plain error.
//
//	err := recovery.RecoverToError(logger, "Holder.Close", func() error {
//	    return holder.Close()
//	})
func RecoverToError(logger *slog.Logger, operation string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			logger.Error("panic recovered",
				"operation", operation,
				"panic", r,
				"stack", string(stack),
			)
			err = fmt.Errorf("%s panicked: %v", operation, r)
		}
	}()

	return fn()
}

// RecoverToValue wraps a function that returns a value and error. On panic
// it returns the zero value and an error describing the panic.
func RecoverToValue[T any](logger *slog.Logger, operation string, fn func() (T, error)) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			logger.Error("panic recovered",
				"operation", operation,
				"panic", r,
				"stack", string(stack),
			)
			var zero T
			result = zero
			err = fmt.Errorf("%s panicked: %v", operation, r)
		}
	}()

	return fn()
}

// Recover wraps a void function with panic recovery. Logs the panic but
// does not return an error; use for cleanup paths where an error can't be
// propagated (e.g. Holder.Close during registry replace).
func Recover(logger *slog.Logger, operation string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			logger.Error("panic recovered during cleanup",
				"operation", operation,
				"panic", r,
				"stack", string(stack),
			)
		}
	}()

	fn()
}
