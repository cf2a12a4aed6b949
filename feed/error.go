package feed

import (
	"fmt"

	fberrors "github.com/c360/feedbridge/errors"
)

// ErrorKind identifies where in the transport stack a session error
// originated.
type ErrorKind int

const (
	// KindConnection covers dial failures, resets, and lost sessions.
	KindConnection ErrorKind = iota + 1
	// KindProtocol covers frames the engine could read but not make
	// sense of.
	KindProtocol
	// KindUpstream covers error messages the venue sent explicitly.
	KindUpstream
	// KindDecode covers records that failed to decode into market types.
	KindDecode
)

// String returns the string representation of ErrorKind
func (k ErrorKind) String() string {
	switch k {
	case KindConnection:
		return "connection"
	case KindProtocol:
		return "protocol"
	case KindUpstream:
		return "upstream"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Error is a session error raised by an Engine, tagged with its origin.
// It participates in the sentinel taxonomy through Is, so callers can
// keep using errors.Is and the classification helpers without knowing
// which engine produced it.
type Error struct {
	Kind ErrorKind
	Op   string // engine operation, e.g. "dial", "read"
	Err  error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("feed: %s: %s error", e.Op, e.Kind)
	}
	return fmt.Sprintf("feed: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is maps each kind onto its sentinel so classification works without
// the engines wrapping sentinels by hand.
func (e *Error) Is(target error) bool {
	switch target {
	case fberrors.ErrConnection:
		return e.Kind == KindConnection
	case fberrors.ErrInvalidRecord:
		return e.Kind == KindProtocol
	case fberrors.ErrDecodeFailed:
		return e.Kind == KindDecode
	}
	return false
}

// NewError builds a tagged session error.
func NewError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}
