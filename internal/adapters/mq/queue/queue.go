// Package queue carries ranking activity from the commit path to the feed
// workers through a bounded in-memory queue.
package queue

import (
	"context"
	"sync"

	"github.com/okian/spotrank/internal/domain/model"
	"github.com/okian/spotrank/pkg/metrics"
)

const defaultQueueCapacity = 1024

// Activity is the payload type flowing through the queue.
type Activity = model.Activity

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds an activity to the queue.
	// Returns false if the queue is full or closed and the activity was dropped.
	Enqueue(ctx context.Context, a Activity) bool

	// Dequeue returns a channel that receives activities as they become available.
	// The channel is closed when the queue is closed and drained.
	Dequeue(ctx context.Context) <-chan Activity

	// Len returns the current number of queued activities.
	Len(ctx context.Context) int

	// Close stops accepting activities.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	activities chan Activity
	capacity   int
	mu         sync.RWMutex
	closed     bool
}

// NewInMemoryQueue creates a new in-memory queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.activities = make(chan Activity, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue adds an activity without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, a Activity) bool { //nolint:gocritic // hugeParam: passed by value for channel semantics
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return false
	}

	select {
	case <-ctx.Done():
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return false
	default:
	}

	select {
	case q.activities <- a:
		metrics.RecordQueueEnqueue()
		metrics.UpdateQueueSize(len(q.activities))
		return true
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return false
	}
}

// Dequeue returns a channel that receives queued activities until ctx is done
// or the queue is closed and drained.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Activity {
	out := make(chan Activity)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case a, ok := <-q.activities:
				if !ok {
					return
				}
				select {
				case out <- a:
					metrics.RecordQueueDequeue()
					metrics.UpdateQueueSize(len(q.activities))
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// Len returns the current number of queued activities.
func (q *InMemoryQueue) Len(_ context.Context) int {
	size := len(q.activities)
	metrics.UpdateQueueSize(size)
	return size
}

// Capacity returns the queue bound.
func (q *InMemoryQueue) Capacity() int {
	return q.capacity
}

// Close stops the queue. Queued activities are still delivered.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.activities)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
