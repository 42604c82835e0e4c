package ircchat

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Workers runs fire-and-forget tasks with bounded concurrency.
// Joins, leaves and reconnects run here so that callers and the receive loops never block on them.
type Workers struct {
	sem    *semaphore.Weighted
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewWorkers returns a pool running at most n tasks at once.
func NewWorkers(n int) *Workers {
	if n < 1 {
		n = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Workers{
		sem:    semaphore.NewWeighted(int64(n)),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Go schedules f. It never blocks; tasks submitted after Close are dropped.
func (w *Workers) Go(f func()) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.wg.Add(1)
	w.mu.Unlock()
	go func() {
		defer w.wg.Done()
		if err := w.sem.Acquire(w.ctx, 1); err != nil {
			return
		}
		defer w.sem.Release(1)
		f()
	}()
}

// Wait blocks until every scheduled task has finished.
func (w *Workers) Wait() {
	w.wg.Wait()
}

// Close drops tasks still waiting for a slot and waits for running tasks to finish.
func (w *Workers) Close() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	w.cancel()
	w.wg.Wait()
}
