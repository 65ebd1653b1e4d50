package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_FIFOOrder(t *testing.T) {
	q := New[int]()
	for i := 0; i < 100; i++ {
		q.Publish(i)
	}
	assert.Equal(t, 100, q.Len())

	ctx := context.Background()
	for i := 0; i < 100; i++ {
		item, err := q.Dequeue(ctx)
		require.NoError(t, err)
		assert.Equal(t, i, item)
	}
	assert.Equal(t, 0, q.Len())
}

func TestQueue_DequeueBlocksUntilPublish(t *testing.T) {
	q := New[string]()

	done := make(chan string, 1)
	go func() {
		item, err := q.Dequeue(context.Background())
		if err == nil {
			done <- item
		}
	}()

	select {
	case <-done:
		t.Fatal("Dequeue returned before Publish")
	case <-time.After(20 * time.Millisecond):
	}

	q.Publish("hello")

	select {
	case item := <-done:
		assert.Equal(t, "hello", item)
	case <-time.After(time.Second):
		t.Fatal("Dequeue did not wake up after Publish")
	}
}

func TestQueue_DequeueCancellation(t *testing.T) {
	q := New[int]()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := q.Dequeue(ctx)
		errCh <- err
	}()

	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Dequeue did not observe cancellation")
	}
}

func TestQueue_InterleavedPublishDequeue(t *testing.T) {
	q := New[int]()
	ctx := context.Background()

	q.Publish(1)
	q.Publish(2)

	item, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, item)

	q.Publish(3)

	item, err = q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, item)

	item, err = q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, item)
}
