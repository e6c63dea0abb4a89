package pcore

import "fmt"

// PlanError reports a structural problem discovered while constructing
// or wiring a plan (e.g. an expression cycle) — a construction-time
// error, never raised once a plan has started executing.
type PlanError struct {
	Cause   error
	Message string
}

func (e *PlanError) Error() string {
	if e.Message == "" {
		return "plan error"
	}
	return e.Message
}

func (e *PlanError) Unwrap() error { return e.Cause }

// InterfaceError reports a failure at the external-interface boundary:
// a lookup or command that the ExternalInterface implementation itself
// rejected, as opposed to a value it legitimately returned as unknown.
type InterfaceError struct {
	Cause   error
	State   State
	Message string
}

func (e *InterfaceError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("interface error for %s", e.State)
	}
	return e.Message
}

func (e *InterfaceError) Unwrap() error { return e.Cause }

// AssertionError signals a runtime invariant violation inside the
// kernel itself — a bug, not a plan-author mistake. Driver.Step
// recovers panics of this type by default (see WithPanicOnAssert).
type AssertionError struct {
	Message string
}

func (e *AssertionError) Error() string { return "assertion failed: " + e.Message }

// assertTrue panics with an AssertionError if cond is false. Mirrors
// the original implementation's assertTrue_2 macro, minus the
// build-configuration toggle (handled instead by Driver's recover
// policy, see WithPanicOnAssert).
func assertTrue(cond bool, message string) {
	if !cond {
		panic(&AssertionError{Message: message})
	}
}

// WrapError wraps cause with a message, preserving the cause chain for
// errors.Is/errors.As.
func WrapError(message string, cause error) error {
	return fmt.Errorf("%s: %w", message, cause)
}
