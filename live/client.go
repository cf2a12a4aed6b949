package live

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/c360/feedbridge/errors"
	"github.com/c360/feedbridge/feed"
	"github.com/c360/feedbridge/market"
	"github.com/c360/feedbridge/metric"
	"github.com/c360/feedbridge/pkg/buffer"
)

// Client is a live streaming session over a feed.Engine. It owns the
// session lifecycle, fans records out to registered observers, and
// feeds one pull consumer through a bounded queue.
//
// A Client streams exactly one session. After Stop or a fault it does
// not reconnect; build a new Client to resume.
//
// All methods are safe for concurrent use. Observer callbacks and the
// exception handler run on the engine's delivery goroutine and must not
// call back into the Client.
type Client struct {
	engine  feed.Engine
	id      string
	logger  *slog.Logger
	metrics *metric.Metrics

	cfg settings

	mu            sync.Mutex
	state         State
	subs          subscriptionRegistry
	recordObs     []func(market.Record)
	errorObs      []func(error)
	queue         buffer.ContextBuffer[item]
	symbols       *market.SymbolMap
	metadata      *market.Metadata
	faultErr      error
	stopRequested bool
	pullerActive  bool

	metadataCh chan *market.Metadata
	startErrCh chan error
	closedCh   chan struct{}
	closedOnce sync.Once
}

// New builds a Client over the given engine. The engine must not be
// connected yet; the Client connects it during Start.
func New(engine feed.Engine, opts ...ClientOption) (*Client, error) {
	if engine == nil {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig,
			"live.Client", "New", "nil engine")
	}

	cfg := defaultSettings()
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	c := &Client{
		engine:     engine,
		id:         uuid.NewString(),
		cfg:        cfg,
		state:      StateCreated,
		symbols:    market.NewSymbolMap(),
		metadataCh: make(chan *market.Metadata, 1),
		startErrCh: make(chan error, 1),
		closedCh:   make(chan struct{}),
	}
	c.logger = cfg.logger.With("session", c.id)
	if cfg.registry != nil {
		c.metrics = cfg.registry.CoreMetrics()
	} else {
		c.metrics = metric.NewMetrics()
	}
	return c, nil
}

// ID returns the session identifier, unique per Client.
func (c *Client) ID() string {
	return c.id
}

// State returns the current lifecycle state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe registers a subscription. Legal only before Start, in the
// Created or Subscribed states. The engine receives all registered
// subscriptions, duplicates included, in registration order at Start.
func (c *Client) Subscribe(sub market.Subscription) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requirePreStart("Subscribe"); err != nil {
		return err
	}
	if err := c.subs.add(sub, c.engine.Capabilities()); err != nil {
		return err
	}
	c.setState(StateSubscribed)
	return nil
}

// Subscriptions returns the registered subscriptions in order.
func (c *Client) Subscriptions() []market.Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subs.list()
}

// OnRecord registers a record observer. Observers run synchronously on
// the delivery goroutine in registration order, before the record is
// queued for the pull consumer. Legal only before Start.
func (c *Client) OnRecord(fn func(market.Record)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requirePreStart("OnRecord"); err != nil {
		return err
	}
	c.recordObs = append(c.recordObs, fn)
	return nil
}

// OnError registers an error observer. Like record observers, error
// observers run synchronously on the delivery goroutine. Legal only
// before Start.
func (c *Client) OnError(fn func(error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requirePreStart("OnError"); err != nil {
		return err
	}
	c.errorObs = append(c.errorObs, fn)
	return nil
}

// Start connects the engine, submits the subscriptions, and blocks
// until session metadata arrives or the attempt fails. On success the
// client is Streaming, the resolved metadata is returned, and records
// are flowing to observers and the pull queue. ctx bounds connection
// establishment; the configured start timeout bounds the metadata wait.
func (c *Client) Start(ctx context.Context) (*market.Metadata, error) {
	c.mu.Lock()
	switch c.state {
	case StateDisposed:
		c.mu.Unlock()
		return nil, errors.WrapInvalid(errors.ErrDisposed, "live.Client", "Start", "state check")
	case StateCreated:
		c.mu.Unlock()
		return nil, errors.WrapInvalid(errors.ErrNoSubscriptions, "live.Client", "Start", "state check")
	case StateSubscribed:
	default:
		state := c.state
		c.mu.Unlock()
		return nil, errors.WrapInvalid(errors.ErrInvalidState, "live.Client", "Start",
			"start from "+state.String())
	}

	queueOpts := []buffer.Option[item]{
		buffer.WithOverflowPolicy[item](buffer.Block),
	}
	if c.cfg.registry != nil {
		queueOpts = append(queueOpts, buffer.WithMetrics[item](c.cfg.registry, c.id))
	}
	queue, err := buffer.NewCircularBuffer(c.cfg.queueCapacity, queueOpts...)
	if err != nil {
		c.mu.Unlock()
		return nil, errors.WrapInvalid(err, "live.Client", "Start", "queue construction")
	}
	c.queue = queue
	c.setState(StateStarted)

	b := &bridge{
		sessionID:      c.id,
		logger:         c.logger,
		metrics:        c.metrics,
		policy:         &policyEvaluator{handler: c.cfg.handler, logger: c.logger},
		symbols:        c.symbols,
		queue:          queue,
		enqueueTimeout: c.cfg.enqueueTimeout,
		recordObs:      c.recordObs,
		errorObs:       c.errorObs,
		onMetadata:     c.acceptMetadata,
		onPolicyStop:   c.beginStop,
		onClosed:       c.engineClosed,
	}
	subs := c.subs.list()
	requested := c.subs.symbols()
	c.mu.Unlock()

	if err := c.engine.Connect(ctx, subs, b); err != nil {
		c.fault(err)
		return nil, errors.WrapTransient(err, "live.Client", "Start", "engine connect")
	}
	c.metrics.RecordConnectionOpened()
	c.metrics.RecordFeedStatus(c.id, true)

	connectedAt := time.Now()
	timer := time.NewTimer(c.cfg.startTimeout)
	defer timer.Stop()

	select {
	case md := <-c.metadataCh:
		if err := md.Validate(requested); err != nil {
			c.abortStart(err)
			return nil, err
		}
		c.mu.Lock()
		c.metadata = md
		if c.state == StateStarted {
			c.setState(StateStreaming)
		}
		c.mu.Unlock()
		c.metrics.RecordMetadataLatency(c.id, time.Since(connectedAt))
		c.logger.Info("stream started",
			"dataset", md.Dataset,
			"resolved", len(md.Symbols),
			"not_found", len(md.NotFound))
		return md.Clone(), nil

	case err := <-c.startErrCh:
		c.abortStart(err)
		return nil, err

	case <-c.closedCh:
		err := errors.WrapTransient(errors.ErrConnectionLost,
			"live.Client", "Start", "session before metadata")
		c.abortStart(err)
		return nil, err

	case <-timer.C:
		err := errors.WrapTransient(errors.ErrTimeout,
			"live.Client", "Start", "metadata wait")
		c.abortStart(err)
		return nil, err

	case <-ctx.Done():
		c.abortStart(ctx.Err())
		return nil, ctx.Err()
	}
}

// Metadata returns the session metadata, or nil before Start completes.
func (c *Client) Metadata() *market.Metadata {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.metadata.Clone()
}

// SymbolMap returns the live instrument-ID to symbol map, maintained
// from symbol mapping records as they arrive.
func (c *Client) SymbolMap() *market.SymbolMap {
	return c.symbols
}

// Stream returns the pull cursor for this client. At most one cursor
// may be active; a second call fails with the puller-active error until
// the first cursor is closed.
func (c *Client) Stream() (*Stream, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateDisposed:
		return nil, errors.WrapInvalid(errors.ErrDisposed, "live.Client", "Stream", "state check")
	case StateCreated, StateSubscribed:
		return nil, errors.WrapInvalid(errors.ErrInvalidState, "live.Client", "Stream",
			"cursor before start")
	}
	if c.pullerActive {
		return nil, errors.WrapInvalid(errors.ErrPullerActive, "live.Client", "Stream",
			"second cursor")
	}
	c.pullerActive = true
	return &Stream{client: c, queue: c.queue}, nil
}

// Stop shuts the session down gracefully. It signals the engine, waits
// up to the shutdown grace for the delivery goroutine to exit, and then
// discards anything still queued; the pull consumer sees a clean end of
// stream. Stop is idempotent; calling it on an already stopped or
// faulted client is a no-op.
func (c *Client) Stop() error {
	c.mu.Lock()
	switch c.state {
	case StateDisposed:
		c.mu.Unlock()
		return errors.WrapInvalid(errors.ErrDisposed, "live.Client", "Stop", "state check")
	case StateCreated, StateSubscribed:
		c.mu.Unlock()
		return errors.WrapInvalid(errors.ErrInvalidState, "live.Client", "Stop",
			"stop before start")
	case StateStopped, StateFaulted:
		c.mu.Unlock()
		return nil
	case StateStarted, StateStreaming:
		c.setState(StateStopping)
		c.stopRequested = true
	case StateStopping:
		c.stopRequested = true
	}
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.shutdownGrace)
	defer cancel()
	closeErr := c.engine.Close(ctx)

	select {
	case <-c.closedCh:
	case <-ctx.Done():
		c.logger.Warn("delivery goroutine did not exit within shutdown grace",
			"grace", c.cfg.shutdownGrace)
	}

	c.mu.Lock()
	if c.queue != nil {
		c.queue.Clear()
	}
	if c.state == StateStopping {
		c.setState(StateStopped)
	}
	c.mu.Unlock()

	if closeErr != nil {
		return errors.WrapTransient(closeErr, "live.Client", "Stop", "engine close")
	}
	return nil
}

// Close disposes the client: stops the session if one is running and
// releases the engine. All later operations fail with the disposed
// error. Close is idempotent.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.state == StateDisposed {
		c.mu.Unlock()
		return nil
	}
	running := c.state.running()
	everStarted := c.queue != nil
	c.mu.Unlock()

	if running {
		if err := c.Stop(); err != nil {
			c.logger.Warn("stop during dispose", "error", err)
		}
	} else if !everStarted {
		// Engine was never connected, but give it the chance to
		// release held resources anyway.
		ctx, cancel := context.WithTimeout(context.Background(), c.cfg.shutdownGrace)
		if err := c.engine.Close(ctx); err != nil {
			c.logger.Debug("engine close during dispose", "error", err)
		}
		cancel()
	}

	c.mu.Lock()
	if c.queue != nil {
		_ = c.queue.Close()
	}
	c.setState(StateDisposed)
	c.mu.Unlock()
	return nil
}

// requirePreStart gates operations legal only in Created or Subscribed.
// Caller holds c.mu.
func (c *Client) requirePreStart(op string) error {
	switch c.state {
	case StateCreated, StateSubscribed:
		return nil
	case StateDisposed:
		return errors.WrapInvalid(errors.ErrDisposed, "live.Client", op, "state check")
	default:
		return errors.WrapInvalid(errors.ErrInvalidState, "live.Client", op,
			op+" after start")
	}
}

// setState transitions the lifecycle state. Caller holds c.mu.
func (c *Client) setState(s State) {
	if c.state == s {
		return
	}
	c.logger.Debug("state transition", "from", c.state.String(), "to", s.String())
	c.state = s
	c.metrics.RecordStreamState(c.id, int(s))
}

// acceptMetadata is the bridge's metadata callback. The buffered channel
// holds the value until Start collects it.
func (c *Client) acceptMetadata(md *market.Metadata) {
	select {
	case c.metadataCh <- md:
	default:
	}
}

// engineClosed is the bridge's terminal callback, invoked once when the
// engine's delivery goroutine is done. A close that nobody asked for
// faults the client; a requested one completes the stop.
func (c *Client) engineClosed() {
	c.metrics.RecordFeedStatus(c.id, false)

	c.mu.Lock()
	switch {
	case c.state == StateStopping && c.stopRequested:
		// Stop finishes the transition once it observes closedCh.
	case c.state == StateStreaming:
		c.faultErr = errors.WrapTransient(errors.ErrConnectionLost,
			"live.Client", "stream", "session")
		c.setState(StateFaulted)
	case c.state == StateStarted:
		// Start's select on closedCh owns this failure.
	}
	if c.queue != nil {
		_ = c.queue.Close()
	}
	c.mu.Unlock()

	c.closedOnce.Do(func() { close(c.closedCh) })
}

// beginStop is the bridge's policy-stop callback. It runs on the
// delivery goroutine, so the engine close happens on a separate
// goroutine; closing synchronously would deadlock engines that wait for
// their delivery goroutine in Close.
func (c *Client) beginStop(reason error) {
	c.mu.Lock()
	if c.state != StateStarted && c.state != StateStreaming {
		c.mu.Unlock()
		return
	}
	c.setState(StateStopping)
	c.stopRequested = true
	c.mu.Unlock()

	c.logger.Info("stopping stream", "reason", reason)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.cfg.shutdownGrace)
		defer cancel()
		if err := c.engine.Close(ctx); err != nil {
			c.logger.Warn("engine close after policy stop", "error", err)
		}
		<-c.closedCh
		c.mu.Lock()
		if c.queue != nil {
			c.queue.Clear()
		}
		if c.state == StateStopping {
			c.setState(StateStopped)
		}
		c.mu.Unlock()
	}()
}

// fault records the first terminal error and moves to Faulted. A
// requested stop already winding the session down wins over a racing
// failure: the client ends Stopped, not Faulted, and no fault reason
// is recorded.
func (c *Client) fault(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopRequested {
		if c.queue != nil {
			_ = c.queue.Close()
		}
		return
	}
	if c.faultErr == nil {
		c.faultErr = err
	}
	if c.state != StateDisposed {
		c.setState(StateFaulted)
	}
	if c.queue != nil {
		_ = c.queue.Close()
	}
}

// abortStart faults the client and makes a best-effort engine close,
// bounded by the shutdown grace.
func (c *Client) abortStart(err error) {
	c.logger.Error("start failed", "error", err)
	c.fault(err)
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.shutdownGrace)
	defer cancel()
	if cerr := c.engine.Close(ctx); cerr != nil {
		c.logger.Debug("engine close after failed start", "error", cerr)
	}
}

// faultReason returns the terminal error, if any.
func (c *Client) faultReason() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.faultErr
}

func (c *Client) releasePuller() {
	c.mu.Lock()
	c.pullerActive = false
	c.mu.Unlock()
}
