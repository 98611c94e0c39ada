package orchestrator

import (
	"context"
	"sync"
)

// KeyQueue serializes operations per key while letting unrelated keys run
// in parallel. Each enqueued operation waits for its predecessor on the
// same key to finish, regardless of whether the predecessor succeeded.
type KeyQueue struct {
	mu    sync.Mutex
	tails map[string]chan struct{}
}

// NewKeyQueue creates an empty queue.
func NewKeyQueue() *KeyQueue {
	return &KeyQueue{tails: make(map[string]chan struct{})}
}

// Do runs fn after all previously enqueued operations for key complete.
// Waiting is interruptible through ctx; an abandoned wait still releases
// its successors.
func (q *KeyQueue) Do(ctx context.Context, key string, fn func() error) error {
	q.mu.Lock()
	predecessor := q.tails[key]
	done := make(chan struct{})
	q.tails[key] = done
	q.mu.Unlock()

	release := func() {
		close(done)
		q.mu.Lock()
		// Only the current tail removes the key; a successor may have
		// replaced it already.
		if q.tails[key] == done {
			delete(q.tails, key)
		}
		q.mu.Unlock()
	}

	if predecessor != nil {
		select {
		case <-predecessor:
		case <-ctx.Done():
			// The abandoned slot must still hand off in order, so the
			// release waits for the predecessor in the background.
			go func() {
				<-predecessor
				release()
			}()
			return ctx.Err()
		}
	}

	defer release()
	return fn()
}
