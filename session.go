package ircchat

import (
	"bufio"
	"bytes"
	"context"
	"encoding"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/Travis-Britz/ircchat/internal/metrics"
	"github.com/Travis-Britz/ircchat/ircdebug"
)

const (
	// releaseTimeout bounds how long release waits for the connection goroutines.
	releaseTimeout = 2 * time.Second

	// drainTimeout bounds how long release waits for queued lines to be written.
	drainTimeout = 500 * time.Millisecond

	dialTimeout = 10 * time.Second

	// outboundQueueSize is the number of lines that may wait for the writer.
	// Lines written while the queue is full are dropped.
	outboundQueueSize = 128

	// maxLineSize bounds a single received line, tags included.
	maxLineSize = 64 * 1024
)

var privmsgPrefix = []byte("PRIVMSG ")

// SessionState is the lifecycle state of a Session.
type SessionState int

const (
	StateDisconnected SessionState = iota
	StateConnecting
	StateConnected
	StateAuthenticated
	StateReconnectWaiting
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateAuthenticated:
		return "authenticated"
	case StateReconnectWaiting:
		return "reconnect-waiting"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Identity holds the credentials a session authenticates with.
type Identity struct {
	Nickname string
	Token    string
}

// A Session manages one authenticated connection to a chat server that is shared by any
// number of listeners. It reads lines from the connection, answers PINGs, and calls every
// listener whose matcher accepts a line. When the connection drops it reconnects with
// exponential backoff, unless auto-reconnect is disabled.
//
// Sessions are created by a Pool and torn down when their last listener is removed.
type Session struct {
	id      string
	dest    Destination
	pool    *Pool
	opts    *PoolConfig
	log     zerolog.Logger
	backoff *reconnectBackoff
	limiter *rate.Limiter

	// authMu serializes Authenticate so that concurrent bindings send credentials once.
	authMu sync.Mutex

	mu            sync.Mutex
	state         SessionState
	conn          *connection
	authenticated bool
	identity      Identity
	listeners     []Listener
	timer         timer
	released      bool
}

// connection is one physical connection of a session.
// A session gets a new connection each time it reconnects.
type connection struct {
	rwc     io.ReadWriteCloser
	writeMu sync.Mutex
	queue   chan []byte
	ctx     context.Context
	cancel  context.CancelFunc
	once    sync.Once
	wg      sync.WaitGroup

	drainC     chan struct{} // closed to ask the writer to flush the queue and exit
	drainOnce  sync.Once
	writerDone chan struct{}

	// cause overrides the read error reported when the connection was dropped on purpose.
	// It is only touched by the receive loop.
	cause error
}

func (c *connection) close() {
	c.once.Do(func() {
		c.cancel()
		_ = c.rwc.Close()
	})
}

func (c *connection) drain() {
	c.drainOnce.Do(func() { close(c.drainC) })
}

func (c *connection) write(b []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err := c.rwc.Write(b)
	return err
}

func newSession(p *Pool, dest Destination) *Session {
	id := uuid.NewString()
	s := &Session{
		id:      id,
		dest:    dest,
		pool:    p,
		opts:    &p.cfg,
		log:     p.cfg.Logger.With().Str("session", id).Str("dest", dest.String()).Logger(),
		backoff: newReconnectBackoff(p.cfg.ReconnectMin, p.cfg.ReconnectMax),
		state:   StateDisconnected,
	}
	limit := rate.Inf
	if p.cfg.SendRate > 0 {
		limit = rate.Limit(p.cfg.SendRate)
	}
	burst := p.cfg.SendBurst
	if burst < 1 {
		burst = 1
	}
	s.limiter = rate.NewLimiter(limit, burst)
	return s
}

// ID is a unique identifier for the session, used in log lines.
func (s *Session) ID() string { return s.id }

// Destination returns the address the session connects to.
func (s *Session) Destination() Destination { return s.dest }

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Listeners returns the number of registered listeners.
func (s *Session) Listeners() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}

// connect dials the destination and starts the connection goroutines.
func (s *Session) connect(ctx context.Context) error {
	s.mu.Lock()
	s.state = StateConnecting
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	rwc, err := s.opts.Dial(ctx, s.dest)
	if err != nil {
		s.mu.Lock()
		s.state = StateDisconnected
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.startLocked(rwc)
	s.log.Debug().Msg("connected")
	return nil
}

// startLocked installs rwc as the live connection. s.mu must be held.
func (s *Session) startLocked(rwc io.ReadWriteCloser) {
	if s.log.GetLevel() <= zerolog.TraceLevel && zerolog.GlobalLevel() <= zerolog.TraceLevel {
		rwc = ircdebug.WriteTo(s.log, rwc)
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &connection{
		rwc:        rwc,
		queue:      make(chan []byte, outboundQueueSize),
		ctx:        ctx,
		cancel:     cancel,
		drainC:     make(chan struct{}),
		writerDone: make(chan struct{}),
	}
	s.conn = c
	s.state = StateConnected
	s.authenticated = false

	metrics.AddSessions(1)
	c.wg.Add(2)
	go s.readLoop(c)
	go s.writeLoop(c)
}

// readLoop reads lines from c until it fails.
// Lines are handled on this goroutine, so a PONG is always written before the next line is read.
func (s *Session) readLoop(c *connection) {
	defer c.wg.Done()
	defer metrics.AddSessions(-1)

	h := wrap(HandlerFunc(s.dispatch),
		pingMiddleware(directWriter{s, c}),
		reconnectMiddleware(func() {
			s.log.Info().Msg("server requested reconnect")
			c.cause = errServerReconnect
			c.close()
		}),
	)

	scanner := bufio.NewScanner(c.rwc)
	scanner.Buffer(make([]byte, 0, 4096), maxLineSize)
	for scanner.Scan() {
		raw := scanner.Text()
		if raw == "" {
			continue
		}
		metrics.Inc(metrics.LinesReceived)
		l, err := Parse(raw)
		if err != nil {
			// A parse error might be caused by a malformed line from the remote server
			// or a bug in our line parser. Neither is a reason to drop the connection.
			metrics.Inc(metrics.ParseErrors)
			s.log.Warn().Err(err).Msg("skipping malformed line")
			continue
		}
		h.SpeakIRC(s, l)
	}

	err := scanner.Err()
	// scanner.Err() returns nil when the reader error was EOF.
	if err == nil {
		err = io.EOF
	}
	if c.cause != nil {
		err = c.cause
	}
	s.connectionLost(c, err)
}

// dispatch calls every listener that matches l, in registration order.
func (s *Session) dispatch(mw MessageWriter, l *Line) {
	s.mu.Lock()
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, li := range listeners {
		if li.Matches(l) {
			li.SpeakIRC(mw, l)
		}
	}
}

// writeLoop drains the outbound queue of c in order.
// Chat messages wait for the send limiter; other lines go out immediately.
func (s *Session) writeLoop(c *connection) {
	defer c.wg.Done()
	defer close(c.writerDone)
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-c.drainC:
			s.flush(c)
			return
		case b := <-c.queue:
			if bytes.HasPrefix(b, privmsgPrefix) {
				if err := s.limiter.Wait(c.ctx); err != nil {
					return
				}
			}
			if err := c.write(b); err != nil {
				// the receive loop notices the closed connection and runs the reconnect policy
				s.log.Warn().Err(err).Msg("write failed")
				c.close()
				return
			}
			metrics.Inc(metrics.LinesSent)
		}
	}
}

// flush writes whatever is still queued, ignoring the send limiter.
func (s *Session) flush(c *connection) {
	for {
		select {
		case b := <-c.queue:
			if err := c.write(b); err != nil {
				return
			}
			metrics.Inc(metrics.LinesSent)
		default:
			return
		}
	}
}

// WriteMessage implements MessageWriter.
// It queues m for the current connection.
// Marshaling errors, a full queue, and a missing connection are logged and the line is dropped;
// write errors surface later through the receive loop.
func (s *Session) WriteMessage(m encoding.TextMarshaler) {
	s.mu.Lock()
	c := s.conn
	s.mu.Unlock()
	s.enqueue(c, m)
}

func (s *Session) enqueue(c *connection, m encoding.TextMarshaler) {
	b, ok := s.marshal(m)
	if !ok {
		return
	}
	if c == nil {
		metrics.Inc(metrics.LinesDropped)
		s.log.Debug().Bytes("line", bytes.TrimSpace(b)).Msg("not connected; dropping line")
		return
	}
	select {
	case <-c.ctx.Done():
		metrics.Inc(metrics.LinesDropped)
	case c.queue <- b:
	default:
		metrics.Inc(metrics.LinesDropped)
		s.log.Warn().Bytes("line", bytes.TrimSpace(b)).Msg("outbound queue full; dropping line")
	}
}

func (s *Session) marshal(m encoding.TextMarshaler) ([]byte, bool) {
	b, err := m.MarshalText()
	if err != nil {
		s.log.Error().Err(err).Msg("marshal text")
		return nil, false
	}
	if !bytes.HasSuffix(b, []byte("\r\n")) {
		b = append(b, "\r\n"...)
	}
	return b, true
}

// directWriter writes straight to the connection, bypassing the queue.
type directWriter struct {
	s *Session
	c *connection
}

func (w directWriter) WriteMessage(m encoding.TextMarshaler) {
	b, ok := w.s.marshal(m)
	if !ok {
		return
	}
	if err := w.c.write(b); err != nil {
		w.s.log.Warn().Err(err).Msg("direct write failed")
		return
	}
	metrics.Inc(metrics.LinesSent)
}

// Authenticate sends the login sequence for id: PASS, NICK, and a CAP REQ for
// tags, commands and membership. It does nothing and returns false when the
// session is already authenticated or not connected; a session is authenticated
// at most once per connection no matter how many listeners call it.
func (s *Session) Authenticate(id Identity) (sent bool) {
	s.authMu.Lock()
	defer s.authMu.Unlock()

	s.mu.Lock()
	c := s.conn
	already := s.authenticated
	s.mu.Unlock()
	if already || c == nil {
		return false
	}

	s.enqueue(c, Pass(id.Token))
	s.enqueue(c, Nick(id.Nickname))
	s.enqueue(c, CapReq(CapTags, CapCommands, CapMembership))

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != c {
		return false
	}
	s.authenticated = true
	s.identity = id
	if s.state == StateConnected {
		s.state = StateAuthenticated
	}
	s.log.Debug().Str("nick", id.Nickname).Msg("authenticated")
	return true
}

// Authenticated reports whether the current connection has been authenticated.
func (s *Session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

// Identity returns the identity the current connection authenticated with.
// ok is false until Authenticate has sent credentials.
func (s *Session) Identity() (id Identity, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity, s.authenticated
}

// AddListener registers l. Lines are delivered to listeners in registration order.
// It returns ErrSessionClosed when the session has been released.
func (s *Session) AddListener(l Listener) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return ErrSessionClosed
	}
	s.listeners = append(s.listeners, l)
	return nil
}

// RemoveListener unregisters l. Removing the last listener closes the connection
// and removes the session from its pool.
//
// RemoveListener waits for the connection goroutines to exit, so it must not be
// called from a Handler; bindings call it from the worker pool.
func (s *Session) RemoveListener(l Listener) {
	p := s.pool
	p.mu.Lock()
	s.mu.Lock()
	for i, li := range s.listeners {
		if li == l {
			s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
			break
		}
	}
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

// release stops the reconnect timer, flushes queued lines, closes the connection,
// and waits up to releaseTimeout for the connection goroutines. It is idempotent.
func (s *Session) release() {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return
	}
	s.released = true
	s.state = StateClosed
	c := s.conn
	s.conn = nil
	s.authenticated = false
	t := s.timer
	s.timer = nil
	s.mu.Unlock()

	if t != nil {
		t.Stop()
	}
	if c == nil {
		s.log.Debug().Msg("released")
		return
	}

	// give lines queued before the release, such as a PART, a chance to go out
	c.drain()
	select {
	case <-c.writerDone:
	case <-time.After(drainTimeout):
	}
	c.close()

	exited := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(exited)
	}()
	select {
	case <-exited:
		s.log.Debug().Msg("released")
	case <-time.After(releaseTimeout):
		// The connection is closed, so the goroutines exit on their next read or write.
		s.log.Warn().Dur("timeout", releaseTimeout).Msg("connection goroutines did not exit; abandoning them")
	}
}

// connectionLost runs the reconnect policy after c failed.
func (s *Session) connectionLost(c *connection, err error) {
	c.close()

	s.mu.Lock()
	if s.conn != c {
		// released, or already replaced
		s.mu.Unlock()
		return
	}
	s.conn = nil
	s.authenticated = false
	reconnect := s.opts.AutoReconnect && s.state != StateClosed
	if reconnect {
		s.state = StateReconnectWaiting
		s.scheduleLocked()
	} else {
		s.state = StateClosed
	}
	listeners := s.connectionListenersLocked()
	s.mu.Unlock()

	s.log.Info().Err(err).Bool("reconnect", reconnect).Msg("connection lost")
	if !reconnect {
		s.pool.forget(s)
		s.release()
	}
	for _, cl := range listeners {
		cl.Disconnected(err, reconnect)
	}
}

// scheduleLocked arms the reconnect timer. s.mu must be held.
func (s *Session) scheduleLocked() {
	d := s.backoff.Next()
	s.log.Debug().Dur("delay", d).Msg("reconnect scheduled")
	s.timer = s.opts.afterFunc(d, func() {
		s.opts.Workers.Go(s.reconnect)
	})
}

// reconnect makes one reconnect attempt and reschedules itself on failure.
func (s *Session) reconnect() {
	s.mu.Lock()
	if s.state != StateReconnectWaiting {
		s.mu.Unlock()
		return
	}
	s.state = StateConnecting
	s.timer = nil
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	rwc, err := s.opts.Dial(ctx, s.dest)
	cancel()

	s.mu.Lock()
	if s.state != StateConnecting {
		// released while dialing
		s.mu.Unlock()
		if err == nil {
			_ = rwc.Close()
		}
		return
	}
	if err != nil {
		metrics.Inc(metrics.DialFailures)
		s.state = StateReconnectWaiting
		s.scheduleLocked()
		s.mu.Unlock()
		s.log.Warn().Err(err).Msg("reconnect failed")
		return
	}
	s.backoff.Reset()
	s.startLocked(rwc)
	listeners := s.connectionListenersLocked()
	s.mu.Unlock()

	metrics.Inc(metrics.Reconnects)
	s.log.Info().Msg("reconnected")
	for _, cl := range listeners {
		cl.Reconnected(s)
	}
}

func (s *Session) connectionListenersLocked() []ConnectionListener {
	var out []ConnectionListener
	for _, l := range s.listeners {
		if cl, ok := l.(ConnectionListener); ok {
			out = append(out, cl)
		}
	}
	return out
}

// String implements fmt.Stringer.
func (s *Session) String() string {
	return fmt.Sprintf("session %s (%s)", s.id, s.dest)
}
