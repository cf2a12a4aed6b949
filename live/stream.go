package live

import (
	"context"

	"github.com/c360/feedbridge/errors"
	"github.com/c360/feedbridge/market"
	"github.com/c360/feedbridge/pkg/buffer"
)

// Stream is the pull cursor over a client's delivery queue. Obtain one
// with Client.Stream; at most one is active per client at a time.
//
// A Stream is not safe for concurrent use. One goroutine calls Next in
// a loop; other consumers use record observers instead.
type Stream struct {
	client *Client
	queue  buffer.ContextBuffer[item]
	closed bool
}

// Next blocks until the next record arrives, the stream ends, or ctx is
// cancelled.
//
// Stream errors are delivered in-band: Next returns them as they were
// raised, and the cursor stays usable afterwards unless the error was
// terminal. A requested stop discards anything still queued and Next
// returns ErrStreamEnd. A faulted stream drains what was already
// delivered, then returns the fault. Cancellation returns ctx.Err()
// and affects nobody else; observers keep running.
func (s *Stream) Next(ctx context.Context) (market.Record, error) {
	if s.closed {
		return nil, errors.WrapInvalid(errors.ErrInvalidState, "live.Stream", "Next",
			"read from closed cursor")
	}

	it, err := s.queue.ReadWithContext(ctx)
	if err != nil {
		if errors.Is(err, errors.ErrQueueClosed) {
			if fault := s.client.faultReason(); fault != nil {
				return nil, fault
			}
			return nil, errors.ErrStreamEnd
		}
		return nil, err
	}
	if it.err != nil {
		return nil, it.err
	}
	s.client.metrics.RecordPulled(s.client.id)
	return it.rec, nil
}

// Close releases the cursor so another Stream call can succeed. It does
// not affect the session or the queue contents.
func (s *Stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.client.releasePuller()
	return nil
}
