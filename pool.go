package ircchat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Travis-Britz/ircchat/internal/metrics"
)

// PoolConfig configures the sessions a Pool creates.
type PoolConfig struct {
	// Dial opens connections. Defaults to plain TCP.
	Dial DialFunc

	// Logger receives session logs. The zero value discards them.
	Logger zerolog.Logger

	// ReconnectMin and ReconnectMax bound the reconnect delay, which doubles after every failed attempt.
	ReconnectMin  time.Duration
	ReconnectMax  time.Duration
	AutoReconnect bool

	// SendRate limits chat messages per second per session; zero means unlimited.
	SendRate  float64
	SendBurst int

	// Workers runs reconnect attempts. Defaults to a pool of one.
	Workers *Workers

	afterFunc afterFunc
}

// A Pool shares sessions between listeners: at most one session exists per Destination.
type Pool struct {
	cfg PoolConfig

	mu       sync.Mutex
	sessions map[Destination]*Session
	closed   bool

	// dialMu serializes session creation so that concurrent resolves
	// for the same destination dial it only once.
	dialMu sync.Mutex
}

// NewPool returns an empty pool.
func NewPool(cfg PoolConfig) *Pool {
	metrics.Init()
	if cfg.Dial == nil {
		cfg.Dial = dialTCP
	}
	if cfg.ReconnectMin <= 0 {
		cfg.ReconnectMin = DefaultConfig().ReconnectMin
	}
	if cfg.ReconnectMax < cfg.ReconnectMin {
		cfg.ReconnectMax = cfg.ReconnectMin
	}
	if cfg.Workers == nil {
		cfg.Workers = NewWorkers(1)
	}
	if cfg.afterFunc == nil {
		cfg.afterFunc = realAfterFunc
	}
	return &Pool{
		cfg:      cfg,
		sessions: make(map[Destination]*Session),
	}
}

// Resolve returns a session connected to one of dests.
// A pooled session for any of the candidates wins, checked in order;
// otherwise each candidate is dialed in order and the first success is pooled.
// When every dial fails the error is a *ConnectionError.
func (p *Pool) Resolve(ctx context.Context, dests []Destination) (*Session, error) {
	if len(dests) == 0 {
		return nil, ErrNoServers
	}
	if s, err := p.lookup(dests); s != nil || err != nil {
		return s, err
	}

	p.dialMu.Lock()
	defer p.dialMu.Unlock()

	// another resolve may have created a session while we waited
	if s, err := p.lookup(dests); s != nil || err != nil {
		return s, err
	}

	var errs []error
	for _, d := range dests {
		s := newSession(p, d)
		if err := s.connect(ctx); err != nil {
			metrics.Inc(metrics.DialFailures)
			p.cfg.Logger.Debug().Err(err).Str("dest", d.String()).Msg("dial failed")
			errs = append(errs, fmt.Errorf("%s: %w", d, err))
			if ctx.Err() != nil {
				break
			}
			continue
		}

		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			s.release()
			return nil, ErrSessionClosed
		}
		if s.State() == StateClosed {
			// the connection dropped before it could be pooled
			p.mu.Unlock()
			s.release()
			errs = append(errs, fmt.Errorf("%s: %w", d, ErrSessionClosed))
			continue
		}
		p.sessions[d] = s
		p.mu.Unlock()

		metrics.Inc(metrics.SessionsOpened)
		return s, nil
	}
	return nil, &ConnectionError{Destinations: dests, Err: errors.Join(errs...)}
}

func (p *Pool) lookup(dests []Destination) (*Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrSessionClosed
	}
	for _, d := range dests {
		s, ok := p.sessions[d]
		if !ok {
			continue
		}
		if s.State() == StateClosed {
			p.forgetLocked(s)
			continue
		}
		return s, nil
	}
	return nil, nil
}

// Session returns the pooled session for d, or nil.
func (p *Pool) Session(d Destination) *Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sessions[d]
}

// Len returns the number of pooled sessions.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sessions)
}

// ReleaseIfIdle tears s down when it has no listeners.
// Bindings call it when they abandon a session they resolved but never registered on.
func (p *Pool) ReleaseIfIdle(s *Session) {
	p.mu.Lock()
	s.mu.Lock()
	idle := len(s.listeners) == 0 && s.state != StateClosed
	if idle {
		s.state = StateClosed
		p.forgetLocked(s)
	}
	s.mu.Unlock()
	p.mu.Unlock()

	if idle {
		s.release()
	}
}

func (p *Pool) forget(s *Session) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.forgetLocked(s)
}

// forgetLocked removes s from the pool. p.mu must be held.
func (p *Pool) forgetLocked(s *Session) {
	if p.sessions[s.dest] == s {
		delete(p.sessions, s.dest)
	}
}

// Close releases every session. Resolve fails with ErrSessionClosed afterwards.
func (p *Pool) Close() {
	p.mu.Lock()
	p.closed = true
	sessions := make([]*Session, 0, len(p.sessions))
	for d, s := range p.sessions {
		sessions = append(sessions, s)
		delete(p.sessions, d)
	}
	p.mu.Unlock()

	var wg sync.WaitGroup
	for _, s := range sessions {
		wg.Add(1)
		go func(s *Session) {
			defer wg.Done()
			s.release()
		}(s)
	}
	wg.Wait()
}
