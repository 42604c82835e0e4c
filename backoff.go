package ircchat

import (
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// reconnectBackoff yields reconnect delays min, 2·min, 4·min, ... capped at max.
// There is no jitter and no overall deadline; Reset starts over at min.
type reconnectBackoff struct {
	mu sync.Mutex
	b  *backoff.ExponentialBackOff
}

func newReconnectBackoff(min, max time.Duration) *reconnectBackoff {
	// NewExponentialBackOff wires the clock that Reset and NextBackOff depend on.
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = min
	b.MaxInterval = max
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()
	return &reconnectBackoff{b: b}
}

// Next returns the delay before the next reconnect attempt.
func (r *reconnectBackoff) Next() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.b.NextBackOff()
}

// Reset is called after a successful connection.
func (r *reconnectBackoff) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.b.Reset()
}

// timer is the part of *time.Timer a pending reconnect needs.
type timer interface {
	Stop() bool
}

// afterFunc schedules f after d. Tests replace it to control time.
type afterFunc func(d time.Duration, f func()) timer

func realAfterFunc(d time.Duration, f func()) timer {
	return time.AfterFunc(d, f)
}
