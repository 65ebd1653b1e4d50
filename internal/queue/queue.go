// Package queue provides the in-process FIFO bridging the producer and consumer.
package queue

import (
	"context"
	"sync"
)

// Queue is an unbounded FIFO. Publish never blocks; Dequeue suspends until an
// item is available or the context is cancelled. There is no backpressure:
// the producer's publish rate is bounded by the upstream API rate limit, not
// by queue capacity.
type Queue[T any] struct {
	mu     sync.Mutex
	items  []T
	signal chan struct{}
}

// New creates an empty queue.
func New[T any]() *Queue[T] {
	return &Queue[T]{
		signal: make(chan struct{}, 1),
	}
}

// Publish appends an item to the queue.
func (q *Queue[T]) Publish(item T) {
	q.mu.Lock()
	q.items = append(q.items, item)
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// Dequeue returns the oldest item, blocking until one is available.
// The only failure mode is context cancellation.
func (q *Queue[T]) Dequeue(ctx context.Context) (T, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			item := q.items[0]
			q.items = q.items[1:]
			if len(q.items) > 0 {
				// Keep the signal pending for remaining items
				select {
				case q.signal <- struct{}{}:
				default:
				}
			}
			q.mu.Unlock()
			return item, nil
		}
		q.mu.Unlock()

		select {
		case <-q.signal:
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
