package feed

import (
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"

	fberrors "github.com/c360/feedbridge/errors"
)

func TestErrorKindClassification(t *testing.T) {
	tests := []struct {
		name      string
		err       *Error
		sentinel  error
		transient bool
	}{
		{
			name:      "connection errors are transient",
			err:       NewError(KindConnection, "dial", &net.OpError{Op: "dial"}),
			sentinel:  fberrors.ErrConnection,
			transient: true,
		},
		{
			name:     "protocol errors map to invalid record",
			err:      NewError(KindProtocol, "read", errors.New("unexpected frame type")),
			sentinel: fberrors.ErrInvalidRecord,
		},
		{
			name:     "decode errors map to decode failed",
			err:      NewError(KindDecode, "read", errors.New("short buffer")),
			sentinel: fberrors.ErrDecodeFailed,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.True(t, errors.Is(test.err, test.sentinel))
			assert.Equal(t, test.transient, fberrors.IsTransient(test.err))
		})
	}
}

func TestErrorFormatting(t *testing.T) {
	err := NewError(KindUpstream, "session", errors.New("Unknown dataset"))
	assert.Equal(t, "feed: session: Unknown dataset", err.Error())
	assert.Equal(t, "upstream", err.Kind.String())

	bare := &Error{Kind: KindConnection, Op: "dial"}
	assert.Contains(t, bare.Error(), "connection error")
}
