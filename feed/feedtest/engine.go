// Package feedtest provides a scripted in-memory feed.Engine for tests.
//
// Events queued with the Emit methods are replayed to the connected
// handler from a dedicated goroutine, preserving the real engine
// contract: one delivery goroutine, metadata first if emitted first,
// one OnConnectionClosed at the end.
package feedtest

import (
	"context"
	"sync"

	fberrors "github.com/c360/feedbridge/errors"
	"github.com/c360/feedbridge/feed"
	"github.com/c360/feedbridge/market"
)

type event struct {
	md     *market.Metadata
	rec    market.Record
	err    error
	closed bool
}

// Engine is a scripted feed.Engine. Configure the exported fields before
// Connect; emit events before or after Connect, they are buffered either
// way. The zero value is not usable, call NewEngine.
type Engine struct {
	// Caps is what Capabilities reports.
	Caps feed.Capabilities
	// ConnectErr, when set, makes Connect fail without starting delivery.
	ConnectErr error

	mu        sync.Mutex
	handler   feed.Handler
	events    chan event
	pending   []event
	done      chan struct{}
	connected bool
	finished  bool

	subs       []market.Subscription
	closeCalls int
}

// NewEngine returns a scripted engine with snapshot and replay enabled
// and multi-dataset sessions disabled, matching the production engine.
func NewEngine() *Engine {
	return &Engine{
		Caps:   feed.Capabilities{Snapshot: true, Replay: true},
		events: make(chan event, 1024),
		done:   make(chan struct{}),
	}
}

// Connect implements feed.Engine.
func (e *Engine) Connect(_ context.Context, subs []market.Subscription, h feed.Handler) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ConnectErr != nil {
		return e.ConnectErr
	}
	if e.connected {
		return fberrors.ErrInvalidState
	}
	e.connected = true
	e.handler = h
	e.subs = append([]market.Subscription(nil), subs...)

	for _, ev := range e.pending {
		e.events <- ev
	}
	e.pending = nil

	go e.deliver(h)
	return nil
}

func (e *Engine) deliver(h feed.Handler) {
	defer close(e.done)
	for ev := range e.events {
		switch {
		case ev.md != nil:
			h.OnMetadata(ev.md)
		case ev.rec != nil:
			h.OnRecord(ev.rec)
		case ev.err != nil:
			h.OnError(ev.err)
		case ev.closed:
			h.OnConnectionClosed()
			return
		}
	}
}

// Close implements feed.Engine. It ends delivery with a closed event and
// waits for the delivery goroutine, bounded by ctx.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	e.closeCalls++
	started := e.connected
	e.mu.Unlock()

	e.EmitClosed()
	if !started {
		return nil
	}
	select {
	case <-e.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Capabilities implements feed.Engine.
func (e *Engine) Capabilities() feed.Capabilities {
	return e.Caps
}

// EmitMetadata queues a metadata event.
func (e *Engine) EmitMetadata(md *market.Metadata) { e.emit(event{md: md}) }

// EmitRecord queues a record event.
func (e *Engine) EmitRecord(rec market.Record) { e.emit(event{rec: rec}) }

// EmitError queues an error event.
func (e *Engine) EmitError(err error) { e.emit(event{err: err}) }

// EmitClosed queues the terminal closed event. Further emits are
// ignored.
func (e *Engine) EmitClosed() { e.emit(event{closed: true}) }

func (e *Engine) emit(ev event) {
	e.mu.Lock()
	if e.finished {
		e.mu.Unlock()
		return
	}
	if ev.closed {
		e.finished = true
	}
	if !e.connected {
		e.pending = append(e.pending, ev)
		e.mu.Unlock()
		return
	}
	e.mu.Unlock()

	// Blocks when the handler is slower than the emitter, same as a
	// transport read loop stalled behind a full delivery queue.
	e.events <- ev
}

// Subscriptions returns what Connect received.
func (e *Engine) Subscriptions() []market.Subscription {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]market.Subscription(nil), e.subs...)
}

// CloseCalls returns how many times Close was invoked.
func (e *Engine) CloseCalls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closeCalls
}

// Done is closed when the delivery goroutine has exited.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}
