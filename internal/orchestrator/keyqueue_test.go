package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestKeyQueueSerializesSameKey(t *testing.T) {
	q := NewKeyQueue()

	var mu sync.Mutex
	var order []int

	var wg sync.WaitGroup
	start := make(chan struct{})
	first := make(chan struct{})

	wg.Add(2)
	go func() {
		defer wg.Done()
		<-start
		q.Do(context.Background(), "k", func() error {
			close(first)
			time.Sleep(20 * time.Millisecond)
			mu.Lock()
			order = append(order, 1)
			mu.Unlock()
			return nil
		})
	}()
	go func() {
		defer wg.Done()
		<-first
		q.Do(context.Background(), "k", func() error {
			mu.Lock()
			order = append(order, 2)
			mu.Unlock()
			return nil
		})
	}()

	close(start)
	wg.Wait()

	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Errorf("order = %v, want [1 2]", order)
	}
}

func TestKeyQueueIndependentKeysRunConcurrently(t *testing.T) {
	q := NewKeyQueue()

	aInside := make(chan struct{})
	release := make(chan struct{})

	go q.Do(context.Background(), "a", func() error {
		close(aInside)
		<-release
		return nil
	})

	<-aInside

	done := make(chan struct{})
	go func() {
		q.Do(context.Background(), "b", func() error { return nil })
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("operation on key b blocked behind key a")
	}
	close(release)
}

func TestKeyQueueFailureReleasesSuccessor(t *testing.T) {
	q := NewKeyQueue()

	failErr := errors.New("boom")
	if err := q.Do(context.Background(), "k", func() error { return failErr }); !errors.Is(err, failErr) {
		t.Fatalf("err = %v", err)
	}

	ran := false
	if err := q.Do(context.Background(), "k", func() error { ran = true; return nil }); err != nil {
		t.Fatalf("successor err = %v", err)
	}
	if !ran {
		t.Error("successor did not run after predecessor failure")
	}
}

func TestKeyQueueWaitCancellation(t *testing.T) {
	q := NewKeyQueue()

	inside := make(chan struct{})
	release := make(chan struct{})
	go q.Do(context.Background(), "k", func() error {
		close(inside)
		<-release
		return nil
	})
	<-inside

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- q.Do(ctx, "k", func() error { return nil })
	}()

	cancel()
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("cancelled waiter did not return")
	}

	// The abandoned slot must not wedge the key.
	close(release)
	done := make(chan struct{})
	go func() {
		q.Do(context.Background(), "k", func() error { return nil })
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("key wedged after cancelled waiter")
	}
}
