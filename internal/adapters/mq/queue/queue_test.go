package queue

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	job := Job{SetID: "set-1", WantUs: 10, WantThem: 7}
	if !q.Enqueue(ctx, job) {
		t.Error("expected enqueue to succeed")
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	jobChan := q.Dequeue(ctx)
	got := <-jobChan
	if got.SetID != "set-1" || got.WantUs != 10 || got.WantThem != 7 {
		t.Errorf("unexpected job: %+v", got)
	}
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if !q.Enqueue(ctx, Job{SetID: "set-1"}) {
		t.Error("expected enqueue to succeed")
	}
	if !q.Enqueue(ctx, Job{SetID: "set-2"}) {
		t.Error("expected enqueue to succeed")
	}
	if q.Enqueue(ctx, Job{SetID: "set-3"}) {
		t.Error("expected enqueue to fail when full")
	}
	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(100))
	ctx := context.Background()
	numProducers := 10
	numJobs := 100

	done := make(chan bool, numProducers)
	for i := 0; i < numProducers; i++ {
		go func(id int) {
			for j := 0; j < numJobs; j++ {
				job := Job{SetID: fmt.Sprintf("set-%d-%d", id, j)}
				for !q.Enqueue(ctx, job) {
					time.Sleep(time.Millisecond)
				}
			}
			done <- true
		}(i)
	}

	consumed := make(chan string, numProducers*numJobs)
	for i := 0; i < numProducers; i++ {
		go func() {
			for job := range q.Dequeue(ctx) {
				consumed <- job.SetID
			}
		}()
	}

	for i := 0; i < numProducers; i++ {
		<-done
	}
	time.Sleep(100 * time.Millisecond)

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected final length 0, got %d", l)
	}
}

func TestInMemoryQueue_Shutdown(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx := context.Background()

	if !q.Enqueue(ctx, Job{SetID: "set-1"}) {
		t.Error("expected enqueue to succeed")
	}
	if q.IsClosed() {
		t.Error("expected queue to be open initially")
	}

	if err := q.Close(); err != nil {
		t.Errorf("expected close to succeed, got error: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed after Close()")
	}
	if q.Enqueue(ctx, Job{SetID: "set-2"}) {
		t.Error("expected enqueue to fail after closing")
	}

	// The buffered job is still delivered, then the channel closes.
	jobChan := q.Dequeue(ctx)
	timeout := time.After(100 * time.Millisecond)
	for {
		select {
		case _, ok := <-jobChan:
			if !ok {
				goto channelClosed
			}
		case <-timeout:
			t.Error("expected dequeue channel to be closed within timeout")
			return
		}
	}
channelClosed:

	if err := q.Close(); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed on second close, got: %v", err)
	}
}
