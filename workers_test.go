package ircchat

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestWorkersBounded(t *testing.T) {
	defer goleak.VerifyNone(t)

	w := NewWorkers(2)
	var running, peak atomic.Int32
	for i := 0; i < 10; i++ {
		w.Go(func() {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			running.Add(-1)
		})
	}
	w.Wait()
	assert.Equal(t, int32(2), peak.Load())
	w.Close()
}

func TestWorkersClose(t *testing.T) {
	defer goleak.VerifyNone(t)

	w := NewWorkers(1)
	block := make(chan struct{})
	started := make(chan struct{})
	w.Go(func() {
		close(started)
		<-block
	})
	<-started

	var ran atomic.Bool
	w.Go(func() { ran.Store(true) })

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.Close()
	}()
	time.Sleep(10 * time.Millisecond)
	close(block)
	wg.Wait()

	assert.False(t, ran.Load(), "waiting task is dropped on close")
	w.Go(func() { ran.Store(true) })
	w.Wait()
	assert.False(t, ran.Load(), "tasks after close are dropped")
}
