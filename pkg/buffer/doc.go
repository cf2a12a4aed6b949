// Package buffer provides thread-safe bounded circular buffers with
// configurable overflow policies, built-in statistics tracking, and optional
// Prometheus metrics integration.
//
// # Overview
//
// The buffer package implements the single designed concurrent shared resource
// between a feed's delivery goroutine and its pull consumers: a bounded queue
// that absorbs bursts, blocks the producer under sustained overload (Block
// policy), and suspends readers until data arrives.
//
// # Quick Start
//
// Basic buffer creation:
//
//	buf, err := buffer.NewCircularBuffer[int](1000)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	err = buf.Write(42)
//	value, ok := buf.Read()
//
// With overflow policy and metrics:
//
//	buf, err := buffer.NewCircularBuffer[market.Record](4096,
//		buffer.WithOverflowPolicy[market.Record](buffer.Block),
//		buffer.WithMetrics[market.Record](registry, "live-client"),
//	)
//
// # Overflow Policies
//
// The buffer supports three overflow behaviors when capacity is reached:
//
//   - DropOldest: remove the oldest item to make room (default)
//   - DropNewest: reject new items when full
//   - Block: Write operations wait for available space
//
// # Blocking Operations
//
// Under the Block policy, WriteWithContext and WriteWithTimeout bound how long
// a producer may be stalled. ReadWithContext suspends a consumer until an item
// arrives, the context is cancelled, or the buffer is closed. Items remaining
// after Close stay readable; a drained closed buffer reports
// errors.ErrQueueClosed.
package buffer
