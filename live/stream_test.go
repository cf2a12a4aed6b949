package live

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/feedbridge/errors"
	"github.com/c360/feedbridge/feed/feedtest"
	"github.com/c360/feedbridge/market"
)

func TestSinglePullerEnforced(t *testing.T) {
	eng := feedtest.NewEngine()
	eng.EmitMetadata(metadataFor([]string{"NVDA"}, nil))

	c := newClient(t, eng)
	require.NoError(t, c.Subscribe(sub("XNAS.ITCH", "NVDA")))
	mustStart(t, c)
	defer func() { _ = c.Close() }()

	first, err := c.Stream()
	require.NoError(t, err)

	_, err = c.Stream()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrPullerActive))

	// releasing the cursor frees the slot
	require.NoError(t, first.Close())
	second, err := c.Stream()
	require.NoError(t, err)
	require.NotNil(t, second)

	// a closed cursor refuses further reads
	_, err = first.Next(context.Background())
	assert.True(t, errors.Is(err, errors.ErrInvalidState))
}

func TestNextHonorsContextCancellation(t *testing.T) {
	eng := feedtest.NewEngine()
	eng.EmitMetadata(metadataFor([]string{"NVDA"}, nil))

	c := newClient(t, eng)
	require.NoError(t, c.Subscribe(sub("XNAS.ITCH", "NVDA")))
	mustStart(t, c)
	defer func() { _ = c.Close() }()

	stream, err := c.Stream()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err = stream.Next(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// cancellation affects only that call; the cursor still works
	eng.EmitRecord(trade(9))
	rec, err := stream.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint32(9), rec.(*market.TradeMsg).Sequence)
}

// A cancelled pull is private to the caller: push observers keep
// receiving every record and the session stays Streaming.
func TestCancelledPullLeavesObserversRunning(t *testing.T) {
	eng := feedtest.NewEngine()
	eng.EmitMetadata(metadataFor([]string{"NVDA"}, nil))

	c := newClient(t, eng)

	var mu sync.Mutex
	var seen []uint32
	require.NoError(t, c.OnRecord(func(rec market.Record) {
		mu.Lock()
		seen = append(seen, rec.(*market.TradeMsg).Sequence)
		mu.Unlock()
	}))
	require.NoError(t, c.Subscribe(sub("XNAS.ITCH", "NVDA")))
	mustStart(t, c)
	defer func() { _ = c.Close() }()

	stream, err := c.Stream()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = stream.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	eng.EmitRecord(trade(1))
	eng.EmitRecord(trade(2))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 2
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	assert.Equal(t, []uint32{1, 2}, seen)
	mu.Unlock()
	assert.Equal(t, StateStreaming, c.State())

	// the cursor itself survived the cancelled call too
	rec, err := stream.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint32(1), rec.(*market.TradeMsg).Sequence)
}

// A burst far larger than the queue must come through complete and in
// order: the Block overflow policy backs the producer up instead of
// dropping.
func TestBurstDeliveredWithoutLoss(t *testing.T) {
	const total = 5000

	eng := feedtest.NewEngine()
	eng.EmitMetadata(metadataFor([]string{"NVDA"}, nil))

	c := newClient(t, eng, WithQueueCapacity(64))
	require.NoError(t, c.Subscribe(sub("XNAS.ITCH", "NVDA")))
	mustStart(t, c)

	go func() {
		for i := 1; i <= total; i++ {
			eng.EmitRecord(trade(uint32(i)))
		}
		eng.EmitClosed()
	}()

	stream, err := c.Stream()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var got []uint32
	for {
		rec, err := stream.Next(ctx)
		if err != nil {
			if errors.Is(err, errors.ErrStreamEnd) || errors.Is(err, errors.ErrConnectionLost) {
				break
			}
			t.Fatalf("unexpected stream error after %d records: %v", len(got), err)
		}
		got = append(got, rec.(*market.TradeMsg).Sequence)
	}

	require.Len(t, got, total)
	for i, seq := range got {
		if seq != uint32(i+1) {
			t.Fatalf("record %d out of order: got sequence %d", i, seq)
		}
	}
}

func TestBackpressureRaisesErrorInsteadOfDropping(t *testing.T) {
	eng := feedtest.NewEngine()
	eng.EmitMetadata(metadataFor([]string{"NVDA"}, nil))

	c := newClient(t, eng,
		WithQueueCapacity(1),
		WithEnqueueTimeout(30*time.Millisecond))
	require.NoError(t, c.Subscribe(sub("XNAS.ITCH", "NVDA")))

	errCh := make(chan error, 8)
	require.NoError(t, c.OnError(func(err error) { errCh <- err }))

	mustStart(t, c)
	defer func() { _ = c.Close() }()

	// nobody pulls: the first record fills the queue, the second hits
	// the enqueue timeout
	eng.EmitRecord(trade(1))
	eng.EmitRecord(trade(2))

	select {
	case err := <-errCh:
		assert.True(t, errors.Is(err, errors.ErrBackpressure))
		assert.True(t, errors.IsTransient(err))
	case <-time.After(2 * time.Second):
		t.Fatal("no backpressure error observed")
	}

	// no stop policy configured, so the stream survives
	assert.Equal(t, StateStreaming, c.State())
}

// A zero enqueue timeout disables the backpressure drop entirely: the
// delivery goroutine blocks on the full queue until the pull consumer
// makes room, and every record comes through.
func TestZeroEnqueueTimeoutBlocksInsteadOfDropping(t *testing.T) {
	eng := feedtest.NewEngine()
	eng.EmitMetadata(metadataFor([]string{"NVDA"}, nil))

	c := newClient(t, eng,
		WithQueueCapacity(1),
		WithEnqueueTimeout(0))
	require.NoError(t, c.Subscribe(sub("XNAS.ITCH", "NVDA")))

	errCh := make(chan error, 8)
	require.NoError(t, c.OnError(func(err error) { errCh <- err }))

	mustStart(t, c)
	defer func() { _ = c.Close() }()

	// the second record stalls the delivery goroutine until Next runs
	eng.EmitRecord(trade(1))
	eng.EmitRecord(trade(2))

	stream, err := c.Stream()
	require.NoError(t, err)

	for want := uint32(1); want <= 2; want++ {
		rec, err := stream.Next(context.Background())
		require.NoError(t, err)
		assert.Equal(t, want, rec.(*market.TradeMsg).Sequence)
	}

	select {
	case err := <-errCh:
		t.Fatalf("unexpected stream error: %v", err)
	default:
	}
	assert.Equal(t, StateStreaming, c.State())
}
