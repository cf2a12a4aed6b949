package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorClass_String(t *testing.T) {
	tests := []struct {
		class    ErrorClass
		expected string
	}{
		{ErrorTransient, "transient"},
		{ErrorInvalid, "invalid"},
		{ErrorFatal, "fatal"},
		{ErrorClass(999), "unknown"},
	}

	for _, test := range tests {
		t.Run(test.expected, func(t *testing.T) {
			result := test.class.String()
			if result != test.expected {
				t.Errorf("expected %s, got %s", test.expected, result)
			}
		})
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection", ErrConnection, true},
		{"connection lost", ErrConnectionLost, true},
		{"timeout", ErrTimeout, true},
		{"backpressure", ErrBackpressure, true},
		{"context deadline exceeded", context.DeadlineExceeded, true},
		{"context canceled", context.Canceled, true},
		{"invalid state", ErrInvalidState, false},
		{"authentication", ErrAuthentication, false},
		{"timeout in message", fmt.Errorf("operation timeout occurred"), true},
		{"network error", fmt.Errorf("network connection failed"), true},
		{"classified transient", &ClassifiedError{Class: ErrorTransient, Err: fmt.Errorf("test")}, true},
		{"classified fatal", &ClassifiedError{Class: ErrorFatal, Err: fmt.Errorf("test")}, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := IsTransient(test.err)
			if result != test.expected {
				t.Errorf("expected %v, got %v for error: %v", test.expected, result, test.err)
			}
		})
	}
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"authentication", ErrAuthentication, true},
		{"faulted", ErrFaulted, true},
		{"connection", ErrConnection, false},
		{"fatal in message", fmt.Errorf("fatal handshake failure"), true},
		{"classified fatal", &ClassifiedError{Class: ErrorFatal, Err: fmt.Errorf("test")}, true},
		{"classified transient", &ClassifiedError{Class: ErrorTransient, Err: fmt.Errorf("test")}, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := IsFatal(test.err)
			if result != test.expected {
				t.Errorf("expected %v, got %v for error: %v", test.expected, result, test.err)
			}
		})
	}
}

func TestIsInvalid(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"invalid state", ErrInvalidState, true},
		{"disposed", ErrDisposed, true},
		{"empty symbols", ErrEmptySymbols, true},
		{"unsupported combination", ErrUnsupportedCombination, true},
		{"puller active", ErrPullerActive, true},
		{"invalid schema", ErrInvalidSchema, true},
		{"connection", ErrConnection, false},
		{"classified invalid", &ClassifiedError{Class: ErrorInvalid, Err: fmt.Errorf("test")}, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := IsInvalid(test.err)
			if result != test.expected {
				t.Errorf("expected %v, got %v for error: %v", test.expected, result, test.err)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorClass
	}{
		{"nil defaults to transient", nil, ErrorTransient},
		{"invalid state", ErrInvalidState, ErrorInvalid},
		{"authentication", ErrAuthentication, ErrorFatal},
		{"connection", ErrConnection, ErrorTransient},
		{"unknown error defaults to transient", fmt.Errorf("mystery"), ErrorTransient},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := Classify(test.err); got != test.expected {
				t.Errorf("expected %v, got %v", test.expected, got)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "Client", "Start", "connect") != nil {
		t.Error("wrapping nil should return nil")
	}

	base := fmt.Errorf("dial tcp: refused")
	wrapped := Wrap(base, "Client", "Start", "connect upstream")

	if !errors.Is(wrapped, base) {
		t.Error("wrapped error should unwrap to the base error")
	}
	if !strings.Contains(wrapped.Error(), "Client.Start: connect upstream failed") {
		t.Errorf("unexpected wrap format: %s", wrapped.Error())
	}
}

func TestWrapClassified(t *testing.T) {
	base := ErrBackpressure

	transient := WrapTransient(base, "Bridge", "OnRecord", "enqueue record")
	if !IsTransient(transient) {
		t.Error("WrapTransient result should be transient")
	}
	if !errors.Is(transient, ErrBackpressure) {
		t.Error("classified error should preserve the sentinel")
	}

	invalid := WrapInvalid(ErrInvalidState, "Client", "Subscribe", "check state")
	if !IsInvalid(invalid) {
		t.Error("WrapInvalid result should be invalid")
	}

	fatal := WrapFatal(ErrAuthentication, "Client", "Start", "handshake")
	if !IsFatal(fatal) {
		t.Error("WrapFatal result should be fatal")
	}

	if WrapTransient(nil, "a", "b", "c") != nil ||
		WrapInvalid(nil, "a", "b", "c") != nil ||
		WrapFatal(nil, "a", "b", "c") != nil {
		t.Error("wrapping nil should return nil")
	}
}

func TestClassifiedError_MessagePrecedence(t *testing.T) {
	ce := &ClassifiedError{
		Class:   ErrorInvalid,
		Err:     fmt.Errorf("underlying"),
		Message: "override",
	}
	if ce.Error() != "override" {
		t.Errorf("expected Message to take precedence, got %s", ce.Error())
	}

	ce.Message = ""
	if ce.Error() != "underlying" {
		t.Errorf("expected fallback to Err, got %s", ce.Error())
	}
}
