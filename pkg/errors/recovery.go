// Panic recovery for worker goroutines: a panic inside a tree fit becomes a
// PanicError returned to the caller instead of crashing the process.

package errors

import (
	"fmt"
	"runtime/debug"
)

// PanicError represents an error that was created from a recovered panic.
type PanicError struct {
	// PanicValue is the original value passed to panic()
	PanicValue interface{}

	// StackTrace contains the stack trace at the time of panic
	StackTrace string

	// Operation identifies where the panic was recovered
	Operation string
}

// Error implements the error interface for PanicError.
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Operation, e.PanicValue)
}

// String provides detailed information including stack trace.
func (e *PanicError) String() string {
	return fmt.Sprintf("panic in %s: %v\nStack trace:\n%s",
		e.Operation, e.PanicValue, e.StackTrace)
}

// NewPanicError creates a new PanicError with the given operation context and panic value.
func NewPanicError(operation string, panicValue interface{}) *PanicError {
	return &PanicError{
		PanicValue: panicValue,
		StackTrace: string(debug.Stack()),
		Operation:  operation,
	}
}

// Recover converts a panic into an error. Use it with defer and a pointer to
// the named error result:
//
//	func fitTree() (err error) {
//	    defer Recover(&err, "fitTree")
//	    ...
//	}
//
// If the function already set an error, the panic is wrapped around it.
func Recover(err *error, operation string) {
	if r := recover(); r != nil {
		if *err != nil {
			*err = Wrapf(*err, "panic in %s: %v", operation, r)
			return
		}
		*err = NewPanicError(operation, r)
	}
}

// SafeExecute runs fn and turns any panic into a PanicError.
func SafeExecute(operation string, fn func() error) (err error) {
	defer Recover(&err, operation)
	return fn()
}
