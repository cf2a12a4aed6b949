package feed

import (
	"context"

	"github.com/c360/feedbridge/market"
)

// Capabilities describes optional behaviors an Engine supports. Callers
// probe it before attempting subscriptions that not every transport can
// honor.
type Capabilities struct {
	// MultiDataset reports whether a single session may mix
	// subscriptions from different datasets.
	MultiDataset bool
	// Snapshot reports whether the engine can serve an initial book
	// snapshot before the live tail.
	Snapshot bool
	// Replay reports whether the engine supports intraday replay
	// subscriptions that start in the past.
	Replay bool
}

// Handler receives session events from an Engine. All methods are invoked
// from the engine's single delivery goroutine, in arrival order, so
// implementations see metadata first and never observe two calls at once.
//
// Implementations must not retain the record or metadata arguments past
// the call; engines may reuse their buffers.
type Handler interface {
	// OnMetadata is called exactly once per session, before any record
	// or error, when the upstream session description arrives.
	OnMetadata(md *market.Metadata)

	// OnRecord is called for each market data record.
	OnRecord(rec market.Record)

	// OnError is called for recoverable and terminal session errors.
	// Delivery continues after the call unless the session is over, in
	// which case OnConnectionClosed follows.
	OnError(err error)

	// OnConnectionClosed is called exactly once when the transport is
	// done, whether by a clean close or a failure. No further calls
	// are made after it.
	OnConnectionClosed()
}

// Engine is the transport boundary. An Engine owns a single upstream
// session: Connect establishes it and starts the delivery goroutine,
// Close tears it down. Engines do not reconnect; a lost session surfaces
// through Handler.OnError and Handler.OnConnectionClosed, and the caller
// builds a new client if it wants to resume.
type Engine interface {
	// Connect opens the session, submits the subscriptions, and begins
	// delivering events to h from a dedicated goroutine. It returns once
	// the session is established or with a classified error. The context
	// bounds connection establishment only, not the session lifetime.
	Connect(ctx context.Context, subs []market.Subscription, h Handler) error

	// Close tears the session down and waits, bounded by ctx, for the
	// delivery goroutine to exit. Safe to call more than once.
	Close(ctx context.Context) error

	// Capabilities reports what this engine supports. It must be
	// callable before Connect.
	Capabilities() Capabilities
}
