// Package errors provides standardized error handling patterns for feedbridge.
//
// # Overview
//
// The errors package implements a three-class error classification system:
// Transient (temporary, a fresh client instance may retry), Invalid (bad input
// or an operation illegal in the current lifecycle state, never retried), and
// Fatal (unrecoverable, stop streaming).
//
// The classification system integrates with Go's standard error handling,
// supporting errors.Is(), errors.As(), and error wrapping chains.
//
// # Quick Start
//
// Use standard error variables for known conditions:
//
//	if state == live.StateDisposed {
//	    return errors.ErrDisposed
//	}
//
// Wrap errors with context for debugging:
//
//	if err := engine.Connect(ctx, subs, handler); err != nil {
//	    return errors.WrapTransient(err, "Client", "Start", "connect upstream")
//	}
//
// Check classification when deciding how to react:
//
//	if errors.IsFatal(err) {
//	    // faulted: end of the line for this client instance
//	}
//
// # Error Wrapping Pattern
//
// All error wrapping follows the standardized format:
//
//	"component.method: action failed: <underlying error>"
//
// This produces grep-friendly messages that identify exactly where a failure
// originated without stack traces.
package errors
