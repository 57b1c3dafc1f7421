// Package queue buffers inbound chat messages between the HTTP ingress and
// the workers that apply them to the game.
package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/tally/internal/domain/model"
	"github.com/okian/tally/pkg/metrics"
)

const defaultQueueCapacity = 10_000

// Item is a queued message with its enqueue time.
type Item struct {
	Message    model.Message
	EnqueuedAt time.Time
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
// Messages are delivered in enqueue order.
type Queue interface {
	// Enqueue adds a message. It never blocks: a full queue returns ErrFull
	// and a closed one ErrStopped.
	Enqueue(ctx context.Context, msg model.Message) error

	// Dequeue returns the channel workers receive from. It is closed once
	// the queue is closed and drained.
	Dequeue(ctx context.Context) <-chan Item

	// Len returns the current number of queued messages.
	Len(ctx context.Context) int

	// Capacity returns the maximum number of queued messages.
	Capacity() int

	// Close stops accepting messages.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	items    chan Item
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.items = make(chan Item, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0.0)

	return q
}

// Enqueue implements Queue.Enqueue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, msg model.Message) error { //nolint:gocritic // hugeParam: passed by value for channel semantics
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return ErrStopped
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return fmt.Errorf("enqueue %s: %w", msg.MessageID, err)
	}

	select {
	case q.items <- Item{Message: msg, EnqueuedAt: time.Now()}:
		metrics.RecordQueueEnqueue()
		q.observeSize()
		return nil
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return ErrFull
	}
}

// Dequeue implements Queue.Dequeue. All callers share one channel.
func (q *InMemoryQueue) Dequeue(_ context.Context) <-chan Item {
	return q.items
}

// Done records that a worker took item off the queue.
func Done(item Item) {
	metrics.RecordQueueDequeue()
	metrics.RecordQueueProcessingLatency(float64(time.Since(item.EnqueuedAt).Milliseconds()))
}

// Len implements Queue.Len.
func (q *InMemoryQueue) Len(_ context.Context) int {
	return q.observeSize()
}

// Capacity implements Queue.Capacity.
func (q *InMemoryQueue) Capacity() int { return q.capacity }

func (q *InMemoryQueue) observeSize() int {
	size := len(q.items)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
	return size
}

// Close implements Queue.Close. Messages already queued stay receivable.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.items)
	q.closed = true
	return nil
}

// IsClosed implements Queue.IsClosed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
