// Package live implements the streaming client: subscription
// management, session lifecycle, and record delivery over a
// feed.Engine.
//
// # Lifecycle
//
// A client moves through a fixed set of states:
//
//	Created → Subscribed → Started → Streaming → Stopping → Stopped
//	                                    ↓
//	                                 Faulted
//
// Subscribe and observer registration are legal only before Start.
// Start connects the engine and blocks until session metadata arrives;
// metadata is delivered exactly once and strictly before any record or
// error. Stop is graceful and idempotent. Close disposes the client.
// There is no reconnect; a lost session faults the client and the
// caller builds a new one.
//
// # Delivery
//
// The engine pushes events from a single delivery goroutine. The
// bridge clones each record, runs the registered observers in order
// with panic isolation, and enqueues the record into a bounded queue
// for the pull consumer. When the queue stays full past the enqueue
// timeout, a backpressure error is raised instead of dropping records
// silently, and the exception policy decides whether the stream
// survives.
//
// # Consuming
//
// Push consumers register OnRecord and OnError callbacks. The pull
// consumer obtains a Stream cursor and loops on Next until it returns
// errors.ErrStreamEnd:
//
//	stream, err := client.Stream()
//	if err != nil { ... }
//	for {
//		rec, err := stream.Next(ctx)
//		if errors.Is(err, fberrors.ErrStreamEnd) {
//			break
//		}
//		if err != nil { ... }
//		handle(rec)
//	}
//
// At most one cursor is active per client; a second Stream call fails
// until the first cursor is closed.
package live
