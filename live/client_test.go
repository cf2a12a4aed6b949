package live

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/feedbridge/errors"
	"github.com/c360/feedbridge/feed/feedtest"
	"github.com/c360/feedbridge/market"
	"github.com/c360/feedbridge/metric"
)

func metadataFor(resolved, notFound []string) *market.Metadata {
	schema := market.SchemaTrades
	return &market.Metadata{
		Version:  3,
		Dataset:  "XNAS.ITCH",
		Schema:   &schema,
		Symbols:  resolved,
		NotFound: notFound,
	}
}

func trade(seq uint32) *market.TradeMsg {
	return &market.TradeMsg{
		Header:   market.Header{Instrument: 42, TsEventNs: int64(seq) * 1000},
		Price:    market.Price(100_000_000_000),
		Size:     10,
		Side:     market.SideBid,
		Sequence: seq,
	}
}

func newClient(t *testing.T, eng *feedtest.Engine, opts ...ClientOption) *Client {
	t.Helper()
	c, err := New(eng, opts...)
	require.NoError(t, err)
	return c
}

func mustStart(t *testing.T, c *Client) *market.Metadata {
	t.Helper()
	md, err := c.Start(context.Background())
	require.NoError(t, err)
	return md
}

func TestNewRequiresEngine(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestEnqueueTimeoutOption(t *testing.T) {
	// zero disables the timeout (block until room); negative is invalid
	_, err := New(feedtest.NewEngine(), WithEnqueueTimeout(0))
	require.NoError(t, err)

	_, err = New(feedtest.NewEngine(), WithEnqueueTimeout(-time.Second))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidConfig))
}

func TestSubscribeTransitionsToSubscribed(t *testing.T) {
	c := newClient(t, feedtest.NewEngine())
	assert.Equal(t, StateCreated, c.State())

	require.NoError(t, c.Subscribe(sub("XNAS.ITCH", "NVDA")))
	assert.Equal(t, StateSubscribed, c.State())

	// invalid subscriptions leave the state alone
	err := c.Subscribe(market.Subscription{Dataset: "XNAS.ITCH", Schema: market.SchemaTrades})
	require.Error(t, err)
	assert.Equal(t, StateSubscribed, c.State())
}

func TestStartWithoutSubscriptionsFails(t *testing.T) {
	c := newClient(t, feedtest.NewEngine())
	_, err := c.Start(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNoSubscriptions))
	assert.Equal(t, StateCreated, c.State())
}

func TestStartDeliversMetadataBeforeRecords(t *testing.T) {
	eng := feedtest.NewEngine()
	eng.EmitMetadata(metadataFor([]string{"NVDA"}, []string{"BADTICKER"}))
	eng.EmitRecord(trade(1))

	c := newClient(t, eng)
	require.NoError(t, c.Subscribe(sub("XNAS.ITCH", "NVDA", "BADTICKER")))
	md := mustStart(t, c)
	defer func() { _ = c.Close() }()

	assert.Equal(t, StateStreaming, c.State())
	require.NotNil(t, md)
	assert.Equal(t, []string{"NVDA"}, md.Symbols)
	assert.Equal(t, []string{"BADTICKER"}, md.NotFound)
	assert.Empty(t, md.Partial)

	// the first pulled item is a record, never something pre-metadata
	stream, err := c.Stream()
	require.NoError(t, err)
	rec, err := stream.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint32(1), rec.(*market.TradeMsg).Sequence)
}

func TestSecondStartFails(t *testing.T) {
	eng := feedtest.NewEngine()
	eng.EmitMetadata(metadataFor([]string{"NVDA"}, nil))

	c := newClient(t, eng)
	require.NoError(t, c.Subscribe(sub("XNAS.ITCH", "NVDA")))
	mustStart(t, c)
	defer func() { _ = c.Close() }()

	_, err := c.Start(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidState))
}

func TestSubscribeAfterStartFails(t *testing.T) {
	eng := feedtest.NewEngine()
	eng.EmitMetadata(metadataFor([]string{"NVDA"}, nil))

	c := newClient(t, eng)
	require.NoError(t, c.Subscribe(sub("XNAS.ITCH", "NVDA")))
	mustStart(t, c)
	defer func() { _ = c.Close() }()

	err := c.Subscribe(sub("XNAS.ITCH", "AAPL"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidState))

	err = c.OnRecord(func(market.Record) {})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidState))
}

func TestStartTimesOutWithoutMetadata(t *testing.T) {
	eng := feedtest.NewEngine() // never emits metadata

	c := newClient(t, eng, WithStartTimeout(50*time.Millisecond))
	require.NoError(t, c.Subscribe(sub("XNAS.ITCH", "NVDA")))

	_, err := c.Start(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrTimeout))
	assert.True(t, errors.IsTransient(err))
	assert.Equal(t, StateFaulted, c.State())
	assert.GreaterOrEqual(t, eng.CloseCalls(), 1, "failed start must release the engine")
}

func TestStartFaultsWhenConnectFails(t *testing.T) {
	eng := feedtest.NewEngine()
	eng.ConnectErr = stderrors.New("dial tcp: connection refused")

	c := newClient(t, eng)
	require.NoError(t, c.Subscribe(sub("XNAS.ITCH", "NVDA")))

	_, err := c.Start(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateFaulted, c.State())
}

func TestStartFailsWhenSessionClosesBeforeMetadata(t *testing.T) {
	eng := feedtest.NewEngine()
	eng.EmitClosed()

	c := newClient(t, eng, WithStartTimeout(time.Second))
	require.NoError(t, c.Subscribe(sub("XNAS.ITCH", "NVDA")))

	_, err := c.Start(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConnectionLost))
	assert.Equal(t, StateFaulted, c.State())
}

func TestStopIsGracefulAndIdempotent(t *testing.T) {
	eng := feedtest.NewEngine()
	eng.EmitMetadata(metadataFor([]string{"NVDA"}, nil))

	c := newClient(t, eng)
	require.NoError(t, c.Subscribe(sub("XNAS.ITCH", "NVDA")))
	mustStart(t, c)

	require.NoError(t, c.Stop())
	assert.Equal(t, StateStopped, c.State())

	// repeat calls are no-ops
	require.NoError(t, c.Stop())
	require.NoError(t, c.Stop())
	assert.Equal(t, StateStopped, c.State())
}

func TestStopBeforeStartIsInvalid(t *testing.T) {
	c := newClient(t, feedtest.NewEngine())
	err := c.Stop()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidState))
}

func TestCloseDisposesClient(t *testing.T) {
	eng := feedtest.NewEngine()
	eng.EmitMetadata(metadataFor([]string{"NVDA"}, nil))

	c := newClient(t, eng)
	require.NoError(t, c.Subscribe(sub("XNAS.ITCH", "NVDA")))
	mustStart(t, c)

	require.NoError(t, c.Close())
	assert.Equal(t, StateDisposed, c.State())

	err := c.Subscribe(sub("XNAS.ITCH", "AAPL"))
	assert.True(t, errors.Is(err, errors.ErrDisposed))
	err = c.Stop()
	assert.True(t, errors.Is(err, errors.ErrDisposed))
	_, err = c.Stream()
	assert.True(t, errors.Is(err, errors.ErrDisposed))

	// dispose is idempotent
	require.NoError(t, c.Close())
}

func TestCloseWithoutStartReleasesEngine(t *testing.T) {
	eng := feedtest.NewEngine()
	c := newClient(t, eng)
	require.NoError(t, c.Close())
	assert.Equal(t, StateDisposed, c.State())
	assert.GreaterOrEqual(t, eng.CloseCalls(), 1)
}

func TestConnectionLossFaultsStreamingClient(t *testing.T) {
	eng := feedtest.NewEngine()
	eng.EmitMetadata(metadataFor([]string{"NVDA"}, nil))

	c := newClient(t, eng)
	require.NoError(t, c.Subscribe(sub("XNAS.ITCH", "NVDA")))
	mustStart(t, c)

	eng.EmitRecord(trade(1))
	eng.EmitClosed()

	require.Eventually(t, func() bool {
		return c.State() == StateFaulted
	}, time.Second, 5*time.Millisecond)

	// queued records remain readable, then the fault surfaces
	stream, err := c.Stream()
	require.NoError(t, err)
	rec, err := stream.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint32(1), rec.(*market.TradeMsg).Sequence)

	_, err = stream.Next(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConnectionLost))
}

func TestObserversRunInRegistrationOrder(t *testing.T) {
	eng := feedtest.NewEngine()
	eng.EmitMetadata(metadataFor([]string{"NVDA"}, nil))

	c := newClient(t, eng)
	require.NoError(t, c.Subscribe(sub("XNAS.ITCH", "NVDA")))

	var mu sync.Mutex
	var order []string
	require.NoError(t, c.OnRecord(func(market.Record) {
		mu.Lock()
		order = append(order, "first")
		mu.Unlock()
	}))
	require.NoError(t, c.OnRecord(func(market.Record) {
		mu.Lock()
		order = append(order, "second")
		mu.Unlock()
	}))

	mustStart(t, c)
	defer func() { _ = c.Close() }()

	eng.EmitRecord(trade(1))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == 2
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	assert.Equal(t, []string{"first", "second"}, order)
	mu.Unlock()
}

func TestObserverPanicDoesNotStopDelivery(t *testing.T) {
	eng := feedtest.NewEngine()
	eng.EmitMetadata(metadataFor([]string{"NVDA"}, nil))

	c := newClient(t, eng)
	require.NoError(t, c.Subscribe(sub("XNAS.ITCH", "NVDA")))

	var mu sync.Mutex
	var delivered []uint32
	var observedErrs []error
	require.NoError(t, c.OnRecord(func(rec market.Record) {
		if rec.(*market.TradeMsg).Sequence == 1 {
			panic("observer bug")
		}
	}))
	require.NoError(t, c.OnRecord(func(rec market.Record) {
		mu.Lock()
		delivered = append(delivered, rec.(*market.TradeMsg).Sequence)
		mu.Unlock()
	}))
	require.NoError(t, c.OnError(func(err error) {
		mu.Lock()
		observedErrs = append(observedErrs, err)
		mu.Unlock()
	}))

	mustStart(t, c)
	defer func() { _ = c.Close() }()

	eng.EmitRecord(trade(1))
	eng.EmitRecord(trade(2))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(delivered) == 2 && len(observedErrs) >= 1
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	assert.Equal(t, []uint32{1, 2}, delivered, "peer observers see every record")
	assert.Contains(t, observedErrs[0].Error(), "panicked")
	mu.Unlock()
}

func TestExceptionPolicyStopEndsStream(t *testing.T) {
	eng := feedtest.NewEngine()
	eng.EmitMetadata(metadataFor([]string{"NVDA"}, nil))

	c := newClient(t, eng, WithExceptionHandler(func(error) Action {
		return ActionStop
	}))

	var mu sync.Mutex
	var observed []error
	require.NoError(t, c.OnError(func(err error) {
		mu.Lock()
		observed = append(observed, err)
		mu.Unlock()
	}))
	require.NoError(t, c.Subscribe(sub("XNAS.ITCH", "NVDA")))
	mustStart(t, c)

	streamErr := stderrors.New("gateway: bad day")
	eng.EmitError(streamErr)

	require.Eventually(t, func() bool {
		return c.State() == StateStopped
	}, time.Second, 5*time.Millisecond)

	// callback observers got the final error; the pull side ends cleanly
	mu.Lock()
	require.Len(t, observed, 1)
	assert.Equal(t, streamErr, observed[0])
	mu.Unlock()

	stream, err := c.Stream()
	require.NoError(t, err)
	_, err = stream.Next(context.Background())
	assert.True(t, errors.Is(err, errors.ErrStreamEnd))
}

// Once the handler decides Stop, the triggering error is the last
// thing observers see: records the engine delivers between the decision
// and its actual close never reach any observer.
func TestPolicyStopSuppressesLaterRecords(t *testing.T) {
	eng := feedtest.NewEngine()
	eng.EmitMetadata(metadataFor([]string{"NVDA"}, nil))

	c := newClient(t, eng, WithExceptionHandler(func(error) Action {
		return ActionStop
	}))

	var mu sync.Mutex
	var delivered []uint32
	require.NoError(t, c.OnRecord(func(rec market.Record) {
		mu.Lock()
		delivered = append(delivered, rec.(*market.TradeMsg).Sequence)
		mu.Unlock()
	}))
	require.NoError(t, c.Subscribe(sub("XNAS.ITCH", "NVDA")))
	mustStart(t, c)

	eng.EmitRecord(trade(1))
	eng.EmitError(stderrors.New("gateway: session revoked"))
	eng.EmitRecord(trade(2))
	eng.EmitRecord(trade(3))

	require.Eventually(t, func() bool {
		return c.State() == StateStopped
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []uint32{1}, delivered, "no records after the stop decision")
}

// A Stop issued while Start is still waiting for metadata wins over the
// resulting connection teardown: the client ends Stopped, not Faulted,
// and carries no fault reason.
func TestStopDuringStartEndsStopped(t *testing.T) {
	eng := feedtest.NewEngine() // never emits metadata

	c := newClient(t, eng)
	require.NoError(t, c.Subscribe(sub("XNAS.ITCH", "NVDA")))

	startErr := make(chan error, 1)
	go func() {
		_, err := c.Start(context.Background())
		startErr <- err
	}()

	require.Eventually(t, func() bool {
		return c.State() == StateStarted
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, c.Stop())

	err := <-startErr
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConnectionLost))
	assert.Equal(t, StateStopped, c.State())
	assert.Nil(t, c.faultReason())
}

func TestNoHandlerMeansContinue(t *testing.T) {
	eng := feedtest.NewEngine()
	eng.EmitMetadata(metadataFor([]string{"NVDA"}, nil))

	c := newClient(t, eng)
	require.NoError(t, c.Subscribe(sub("XNAS.ITCH", "NVDA")))
	mustStart(t, c)
	defer func() { _ = c.Close() }()

	eng.EmitError(stderrors.New("transient wobble"))
	eng.EmitRecord(trade(7))

	stream, err := c.Stream()
	require.NoError(t, err)

	_, err = stream.Next(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wobble")

	// stream survived the error, records keep flowing
	rec, err := stream.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint32(7), rec.(*market.TradeMsg).Sequence)
	assert.Equal(t, StateStreaming, c.State())
}

func TestPanickingHandlerStopsStream(t *testing.T) {
	eng := feedtest.NewEngine()
	eng.EmitMetadata(metadataFor([]string{"NVDA"}, nil))

	c := newClient(t, eng, WithExceptionHandler(func(error) Action {
		panic("handler bug")
	}))
	require.NoError(t, c.Subscribe(sub("XNAS.ITCH", "NVDA")))
	mustStart(t, c)

	eng.EmitError(stderrors.New("anything"))

	require.Eventually(t, func() bool {
		return c.State() == StateStopped
	}, time.Second, 5*time.Millisecond)
}

func TestSymbolMapTracksMappings(t *testing.T) {
	eng := feedtest.NewEngine()
	eng.EmitMetadata(metadataFor([]string{"NVDA"}, nil))

	c := newClient(t, eng)
	require.NoError(t, c.Subscribe(sub("XNAS.ITCH", "NVDA")))
	mustStart(t, c)
	defer func() { _ = c.Close() }()

	eng.EmitRecord(&market.SymbolMappingMsg{
		Header:    market.Header{Instrument: 42},
		InSymbol:  "42",
		OutSymbol: "NVDA",
	})

	require.Eventually(t, func() bool {
		_, ok := c.SymbolMap().Get(42)
		return ok
	}, time.Second, 5*time.Millisecond)

	sym, _ := c.SymbolMap().Get(42)
	assert.Equal(t, "NVDA", sym)
}

func TestClientMetricsRegistered(t *testing.T) {
	registry := metric.NewMetricsRegistry()
	eng := feedtest.NewEngine()
	eng.EmitMetadata(metadataFor([]string{"NVDA"}, nil))

	c := newClient(t, eng, WithMetrics(registry))
	require.NoError(t, c.Subscribe(sub("XNAS.ITCH", "NVDA")))
	mustStart(t, c)
	defer func() { _ = c.Close() }()

	eng.EmitRecord(trade(1))

	require.Eventually(t, func() bool {
		families, err := registry.PrometheusRegistry().Gather()
		if err != nil {
			return false
		}
		for _, fam := range families {
			if fam.GetName() == "feedbridge_records_received_total" {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)
}
