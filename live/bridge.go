package live

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/c360/feedbridge/errors"
	"github.com/c360/feedbridge/market"
	"github.com/c360/feedbridge/metric"
	"github.com/c360/feedbridge/pkg/buffer"
)

// item is what the pull queue carries: a record or an in-band error.
type item struct {
	rec market.Record
	err error
}

// bridge is the delivery bridge between the engine's delivery goroutine
// and the client's consumers. It implements feed.Handler.
//
// All Handler methods run on the engine's single delivery goroutine, so
// the bridge needs no locking of its own for delivery state. Observer
// slices are frozen before Start; the client enforces that.
//
// Fan-out order per record: clone, push observers in registration order,
// then enqueue for the pull consumer. A slow pull consumer therefore
// backs up into the engine's read loop rather than losing records.
type bridge struct {
	sessionID string
	logger    *slog.Logger
	metrics   *metric.Metrics
	policy    *policyEvaluator
	symbols   *market.SymbolMap

	queue          buffer.ContextBuffer[item]
	enqueueTimeout time.Duration

	recordObs []func(market.Record)
	errorObs  []func(error)

	// onMetadata fires the client's start gate. onPolicyStop asks the
	// client to begin a graceful stop; it must not block. onClosed
	// reports delivery-goroutine exit.
	onMetadata   func(md *market.Metadata)
	onPolicyStop func(reason error)
	onClosed     func()

	metadataSeen bool
	// stopping flips when the policy decides Stop. Only the delivery
	// goroutine touches it. Records arriving between the stop decision
	// and the engine actually closing are suppressed so the triggering
	// error is the last thing observers see.
	stopping bool
}

// OnMetadata implements feed.Handler.
func (b *bridge) OnMetadata(md *market.Metadata) {
	if b.metadataSeen {
		b.logger.Warn("duplicate metadata from engine, ignoring", "session", b.sessionID)
		return
	}
	b.metadataSeen = true
	b.onMetadata(md.Clone())
}

// OnRecord implements feed.Handler.
func (b *bridge) OnRecord(rec market.Record) {
	if b.stopping {
		return
	}
	start := time.Now()

	// Detach from the engine's buffer before anything else sees it.
	owned := rec.Clone()
	b.symbols.Apply(owned)
	b.metrics.RecordReceived(b.sessionID, owned.Kind().String())

	for _, obs := range b.recordObs {
		b.notifyRecord(obs, owned)
	}

	if err := b.enqueue(item{rec: owned}); err != nil {
		b.enqueueFailed(err)
		return
	}
	b.metrics.RecordDelivered(b.sessionID)
	b.metrics.RecordDeliveryDuration(b.sessionID, time.Since(start))
}

// OnError implements feed.Handler.
func (b *bridge) OnError(err error) {
	b.raise(err)
}

// OnConnectionClosed implements feed.Handler.
func (b *bridge) OnConnectionClosed() {
	b.onClosed()
}

// raise fans an error out to the error observers and the pull queue,
// then applies the exception policy. ActionStop triggers a graceful
// client stop; the error has already been delivered either way.
func (b *bridge) raise(err error) {
	b.metrics.RecordError(b.sessionID, errors.Classify(err).String())

	for _, obs := range b.errorObs {
		b.notifyError(obs, err)
	}

	if b.policy.evaluate(err) == ActionStop {
		b.stopping = true
		b.logger.Info("exception policy requested stop",
			"session", b.sessionID,
			"stream_error", err)
		b.onPolicyStop(err)
		return
	}

	// The session keeps running, so the pull consumer gets the error
	// in-band and can decide for itself.
	if werr := b.enqueue(item{err: err}); werr != nil {
		b.logger.Warn("could not enqueue stream error for pull consumer",
			"session", b.sessionID,
			"stream_error", err,
			"enqueue_error", werr)
	}
}

// enqueue writes one item to the pull queue. A zero timeout blocks
// until the consumer makes room or the queue closes.
func (b *bridge) enqueue(it item) error {
	if b.enqueueTimeout <= 0 {
		return b.queue.Write(it)
	}
	return b.queue.WriteWithTimeout(it, b.enqueueTimeout)
}

// enqueueFailed converts a failed record enqueue into the error path. A
// timeout means the pull consumer fell behind past the grace window; a
// closed queue means shutdown already started and the record is moot.
func (b *bridge) enqueueFailed(err error) {
	if errors.Is(err, errors.ErrQueueClosed) {
		b.logger.Debug("record dropped, queue closed during shutdown", "session", b.sessionID)
		return
	}
	b.metrics.RecordBackpressure(b.sessionID)
	b.raise(errors.WrapTransient(errors.ErrBackpressure,
		"live.bridge", "enqueue",
		fmt.Sprintf("delivery after %s", b.enqueueTimeout)))
}

// notifyRecord runs one record observer with panic isolation. A
// panicking observer is reported through the error path but never
// aborts fan-out to its peers or to the queue.
func (b *bridge) notifyRecord(obs func(market.Record), rec market.Record) {
	defer func() {
		if r := recover(); r != nil {
			b.raise(errors.WrapInvalid(
				fmt.Errorf("record observer panicked: %v", r),
				"live.bridge", "notifyRecord", "observer callback"))
		}
	}()
	obs(rec)
}

// notifyError runs one error observer with panic isolation. Panics here
// are only logged, not re-raised, to keep the error path from feeding
// itself.
func (b *bridge) notifyError(obs func(error), err error) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("error observer panicked",
				"session", b.sessionID,
				"panic", r,
				"stream_error", err)
		}
	}()
	obs(err)
}
