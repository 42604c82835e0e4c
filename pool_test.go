package ircchat

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Travis-Britz/ircchat/irctest"
)

func TestPoolConcurrentResolve(t *testing.T) {
	var dials atomic.Int32
	dial := func(ctx context.Context, d Destination) (io.ReadWriteCloser, error) {
		dials.Add(1)
		// widen the window in which both resolves race
		time.Sleep(20 * time.Millisecond)
		return irctest.NewServer(), nil
	}
	p := newTestPool(t, PoolConfig{Dial: dial})

	other := Destination{Host: "irc2.test", Port: 6667}
	candidates := [][]Destination{
		{testDest, other},
		{testDest},
	}

	sessions := make([]*Session, len(candidates))
	var wg sync.WaitGroup
	for i, dests := range candidates {
		wg.Add(1)
		go func(i int, dests []Destination) {
			defer wg.Done()
			s, err := p.Resolve(context.Background(), dests)
			if assert.NoError(t, err) {
				assert.NoError(t, s.AddListener(newRecorder(nil)))
			}
			sessions[i] = s
		}(i, dests)
	}
	wg.Wait()

	require.NotNil(t, sessions[0])
	assert.Same(t, sessions[0], sessions[1])
	assert.Equal(t, 2, sessions[0].Listeners())
	assert.Equal(t, int32(1), dials.Load())
	assert.Equal(t, 1, p.Len())
	assert.Equal(t, testDest, sessions[0].Destination())
}

func TestPoolResolvePrefersPooled(t *testing.T) {
	q := &dialQueue{}
	q.push(irctest.NewServer())
	p := newTestPool(t, PoolConfig{Dial: q.dial})

	other := Destination{Host: "irc2.test", Port: 6667}
	s, err := p.Resolve(context.Background(), []Destination{other})
	require.NoError(t, err)

	got, err := p.Resolve(context.Background(), []Destination{testDest, other})
	require.NoError(t, err)
	assert.Same(t, s, got, "a pooled candidate wins over dialing an earlier one")
	assert.Equal(t, 1, q.Dials())
}

func TestPoolResolveFallsThrough(t *testing.T) {
	srv := irctest.NewServer()
	bad := Destination{Host: "down.test", Port: 6667}
	dial := func(ctx context.Context, d Destination) (io.ReadWriteCloser, error) {
		if d == bad {
			return nil, errors.New("connection refused")
		}
		return srv, nil
	}
	p := newTestPool(t, PoolConfig{Dial: dial})

	s, err := p.Resolve(context.Background(), []Destination{bad, testDest})
	require.NoError(t, err)
	assert.Equal(t, testDest, s.Destination())
	assert.Nil(t, p.Session(bad))
}

func TestPoolConnectionError(t *testing.T) {
	q := &dialQueue{}
	p := newTestPool(t, PoolConfig{Dial: q.dial})

	other := Destination{Host: "irc2.test", Port: 6697}
	_, err := p.Resolve(context.Background(), []Destination{testDest, other})

	var ce *ConnectionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, []Destination{testDest, other}, ce.Destinations)
	assert.Equal(t, 2, q.Dials())
	assert.Contains(t, err.Error(), "irc.test:6667: connection refused")
	assert.Contains(t, err.Error(), "irc2.test:6697: connection refused")

	_, err = p.Resolve(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoServers)
}

func TestPoolClose(t *testing.T) {
	srv := irctest.NewServer()
	q := &dialQueue{}
	q.push(srv)
	p := newTestPool(t, PoolConfig{Dial: q.dial})

	s, err := p.Resolve(context.Background(), []Destination{testDest})
	require.NoError(t, err)
	require.NoError(t, s.AddListener(newRecorder(nil)))

	p.Close()
	assert.Equal(t, StateClosed, s.State())
	assert.Equal(t, 0, p.Len())
	_, err = p.Resolve(context.Background(), []Destination{testDest})
	assert.ErrorIs(t, err, ErrSessionClosed)

	select {
	case <-srv.Closed():
	case <-time.After(wait):
		t.Fatal("pool close did not close the connection")
	}
}

// eofConn is a connection the server hangs up on immediately.
type eofConn struct{}

func (eofConn) Read([]byte) (int, error)    { return 0, io.EOF }
func (eofConn) Write(p []byte) (int, error) { return len(p), nil }
func (eofConn) Close() error                { return nil }

func TestPoolNeverKeepsClosedSession(t *testing.T) {
	dial := func(ctx context.Context, d Destination) (io.ReadWriteCloser, error) {
		return eofConn{}, nil
	}
	p := newTestPool(t, PoolConfig{Dial: dial, AutoReconnect: false})

	for i := 0; i < 200; i++ {
		s, err := p.Resolve(context.Background(), []Destination{testDest})
		if err != nil {
			// closed before it was pooled
			var ce *ConnectionError
			require.ErrorAs(t, err, &ce)
			assert.ErrorIs(t, err, ErrSessionClosed)
			continue
		}
		require.Eventually(t, func() bool {
			return s.State() == StateClosed && p.Session(testDest) == nil
		}, wait, time.Millisecond, "iteration %d: a closed session stayed pooled", i)
	}
}

func TestPoolLookupSkipsClosedSession(t *testing.T) {
	q := &dialQueue{}
	q.push(irctest.NewServer())
	q.push(irctest.NewServer())
	p := newTestPool(t, PoolConfig{Dial: q.dial})

	dead, err := p.Resolve(context.Background(), []Destination{testDest})
	require.NoError(t, err)
	// a session that closed without leaving the pool
	dead.mu.Lock()
	dead.state = StateClosed
	dead.mu.Unlock()

	s, err := p.Resolve(context.Background(), []Destination{testDest})
	require.NoError(t, err)
	assert.NotSame(t, dead, s)
	assert.Same(t, s, p.Session(testDest))
	assert.Equal(t, 2, q.Dials())
	dead.release()
}
