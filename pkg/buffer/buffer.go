// Package buffer provides generic, thread-safe bounded buffers with
// configurable overflow policies.
//
// This package offers:
//   - CircularBuffer: fixed-size buffer with configurable overflow policies
//   - DropOldest, DropNewest, and Block overflow policies
//   - Blocking reads with context cancellation for pull consumers
//   - Statistics always enabled for observability
//   - Optional Prometheus metrics integration via functional options
//
// All buffer implementations are thread-safe.
package buffer

// Buffer represents a generic bounded buffer that all implementations must
// satisfy. The buffer is parameterized by item type T for type safety.
type Buffer[T any] interface {
	// Write adds an item to the buffer. Behavior when the buffer is full
	// depends on the overflow policy.
	Write(item T) error

	// Read retrieves and removes one item from the buffer.
	// Returns the item and true if successful, zero value and false if empty.
	Read() (T, bool)

	// ReadBatch retrieves and removes up to max items from the buffer.
	ReadBatch(max int) []T

	// Peek retrieves one item without removing it from the buffer.
	Peek() (T, bool)

	// Size returns the current number of items in the buffer.
	Size() int

	// Capacity returns the maximum number of items the buffer can hold.
	Capacity() int

	// IsFull returns true if the buffer is at maximum capacity.
	IsFull() bool

	// IsEmpty returns true if the buffer contains no items.
	IsEmpty() bool

	// Clear removes all items from the buffer.
	Clear()

	// Stats returns buffer statistics (always available for observability).
	Stats() *Statistics

	// Close shuts down the buffer and wakes all blocked readers and writers.
	Close() error
}

// OverflowPolicy defines how the buffer behaves when it reaches capacity.
type OverflowPolicy int

const (
	// DropOldest removes the oldest item to make room for new items.
	DropOldest OverflowPolicy = iota

	// DropNewest drops new items when the buffer is full.
	DropNewest

	// Block causes Write operations to block until space is available.
	Block
)

// String returns a human-readable representation of the overflow policy.
func (p OverflowPolicy) String() string {
	switch p {
	case DropOldest:
		return "DropOldest"
	case DropNewest:
		return "DropNewest"
	case Block:
		return "Block"
	default:
		return "Unknown"
	}
}

// DropCallback is called when an item is dropped due to overflow policy.
// It receives the item that was dropped.
type DropCallback[T any] func(item T)

// NewCircularBuffer creates a new circular buffer with the specified capacity
// and options. Stats are always collected; metrics are optional via
// WithMetrics(). Returns an error if metrics registration fails.
func NewCircularBuffer[T any](capacity int, options ...Option[T]) (ContextBuffer[T], error) {
	opts := applyOptions(options...)
	return newCircularBuffer(capacity, opts)
}
