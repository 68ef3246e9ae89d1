package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestSafeExecute(t *testing.T) {
	fnErr := fmt.Errorf("function error")

	tests := []struct {
		name      string
		fn        func() error
		wantPanic bool
		wantErr   error
	}{
		{name: "success", fn: func() error { return nil }},
		{name: "function error", fn: func() error { return fnErr }, wantErr: fnErr},
		{name: "panic", fn: func() error { panic("tree split on empty node") }, wantPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := SafeExecute("fitTree", tt.fn)

			if tt.wantPanic {
				var panicErr *PanicError
				if !As(err, &panicErr) {
					t.Fatalf("Expected PanicError, got %T", err)
				}
				if panicErr.Operation != "fitTree" {
					t.Errorf("Operation = %q, want fitTree", panicErr.Operation)
				}
				if panicErr.StackTrace == "" {
					t.Error("Expected non-empty stack trace")
				}
				if !strings.Contains(panicErr.String(), "Stack trace:") {
					t.Error("String() should include stack trace information")
				}
				return
			}
			if err != tt.wantErr {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRecover_WithExistingError(t *testing.T) {
	originalErr := fmt.Errorf("original error")

	testFunc := func() (err error) {
		defer Recover(&err, "TestOperation")
		err = originalErr
		panic("panic after error")
	}

	err := testFunc()
	if err == nil {
		t.Fatal("Expected error from recovered panic with existing error, got nil")
	}
	if !strings.Contains(err.Error(), "panic in TestOperation") {
		t.Errorf("Error message should contain panic info: %s", err.Error())
	}
	if !Is(err, originalErr) {
		t.Error("wrapped error should still match the original error")
	}
}
