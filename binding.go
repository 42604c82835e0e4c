package ircchat

import (
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// LeaveReason says why a binding left its channel.
type LeaveReason int

const (
	LeaveChannel LeaveReason = iota // a requested leave, or the server parted us
	LeaveError                      // the connection could not be made or was lost for good
)

func (r LeaveReason) String() string {
	if r == LeaveError {
		return "error"
	}
	return "channel-leave"
}

// BindingState is the lifecycle state of a Channel or Whispers binding.
type BindingState int

const (
	BindingIdle BindingState = iota
	BindingJoining
	BindingJoined
	BindingLeaving
	BindingLeft
	BindingError
)

func (s BindingState) String() string {
	switch s {
	case BindingIdle:
		return "idle"
	case BindingJoining:
		return "joining"
	case BindingJoined:
		return "joined"
	case BindingLeaving:
		return "leaving"
	case BindingLeft:
		return "left"
	case BindingError:
		return "error"
	default:
		return "unknown"
	}
}

// terminal reports whether no further transitions are possible.
func (s BindingState) terminal() bool {
	return s == BindingLeft || s == BindingError
}

// ErrNotJoined is returned when sending through a binding that has no session.
var ErrNotJoined = errors.New("not joined")

// resolveAttempts bounds how often a join retries after the resolved session
// was released before the listener could be registered.
const resolveAttempts = 3

// binding is the state machine shared by Channel and Whispers.
// It is the Listener registered on the session.
type binding struct {
	svc     *Service
	name    string // channel name without '#'; empty for whispers
	matcher Matcher
	log     zerolog.Logger

	// handle processes a matched line on the session's receive goroutine.
	handle func(MessageWriter, *Line)
	// enter writes the join sequence after the binding is registered on a connected
	// session: once when joining and again after every reconnect.
	// It must not call back into the binding.
	enter func(*Session)
	// part sends the leave command, if the protocol has one.
	part func(*Session)
	// joinOnEnter marks bindings that count as joined once enter has run,
	// because the server does not acknowledge them.
	joinOnEnter bool

	// wireMu orders enter against part, so a JOIN is never written after the PART.
	wireMu sync.Mutex

	mu      sync.Mutex
	state   BindingState
	session *Session
	gen     int // bumped by Leave so that an in-flight join gives up

	onJoin    event[struct{}]
	onLeave   event[LeaveReason]
	onMessage event[*ChatMessage]
}

// SpeakIRC implements Handler.
func (b *binding) SpeakIRC(mw MessageWriter, l *Line) {
	b.handle(mw, l)
}

// Matches implements Matcher.
func (b *binding) Matches(l *Line) bool {
	return b.matcher.Matches(l)
}

// State returns the binding's lifecycle state.
func (b *binding) State() BindingState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Session returns the session the binding is registered on, or nil.
func (b *binding) Session() *Session {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.session
}

// OnJoin registers f to be called when the binding has joined.
// After a reconnect it is called again once the binding has rejoined.
func (b *binding) OnJoin(f func()) (unsubscribe func()) {
	return b.onJoin.subscribe(func(struct{}) { f() })
}

// OnLeave registers f to be called when the binding leaves, with the reason.
func (b *binding) OnLeave(f func(LeaveReason)) (unsubscribe func()) {
	return b.onLeave.subscribe(f)
}

// OnMessage registers f to be called for every chat message.
func (b *binding) OnMessage(f func(*ChatMessage)) (unsubscribe func()) {
	return b.onMessage.subscribe(f)
}

// Join starts joining in the background. Progress is reported through OnJoin and OnLeave.
// A binding joins at most once; Join does nothing unless the binding is idle.
func (b *binding) Join() {
	b.mu.Lock()
	if b.state != BindingIdle {
		b.mu.Unlock()
		return
	}
	b.state = BindingJoining
	gen := b.gen
	b.mu.Unlock()

	b.log.Debug().Msg("joining")
	b.svc.workers.Go(func() { b.join(gen) })
}

func (b *binding) join(gen int) {
	ctx := b.svc.ctx
	dests, err := b.svc.discover(ctx, b.name)
	if err != nil {
		b.fail(gen, err)
		return
	}

	for attempt := 0; attempt < resolveAttempts; attempt++ {
		s, err := b.svc.pool.Resolve(ctx, dests)
		if err != nil {
			b.fail(gen, err)
			return
		}
		if !b.current(gen) {
			// left while connecting
			b.svc.pool.ReleaseIfIdle(s)
			return
		}
		if err := s.AddListener(b); err != nil {
			// the session was torn down between resolve and registration
			b.log.Debug().Err(err).Msg("session went away; resolving again")
			continue
		}

		b.mu.Lock()
		if b.gen != gen || b.state != BindingJoining {
			b.mu.Unlock()
			s.RemoveListener(b)
			return
		}
		b.session = s
		b.mu.Unlock()

		b.enterIfCurrent(gen, s)
		return
	}
	b.fail(gen, ErrSessionClosed)
}

// enterIfCurrent runs enter unless the binding left, or moved to another session,
// since the join of generation gen started.
func (b *binding) enterIfCurrent(gen int, s *Session) {
	b.wireMu.Lock()
	b.mu.Lock()
	ok := b.gen == gen && b.state == BindingJoining && b.session == s
	b.mu.Unlock()
	if ok {
		b.enter(s)
	}
	b.wireMu.Unlock()

	if ok && b.joinOnEnter {
		b.joined()
	}
}

// current reports whether the join started in generation gen is still wanted.
func (b *binding) current(gen int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gen == gen && b.state == BindingJoining
}

// fail moves a joining binding to BindingError and raises OnLeave(LeaveError).
func (b *binding) fail(gen int, err error) {
	b.mu.Lock()
	if b.gen != gen || b.state.terminal() {
		b.mu.Unlock()
		return
	}
	b.state = BindingError
	b.session = nil
	b.mu.Unlock()

	b.log.Warn().Err(err).Msg("join failed")
	b.onLeave.emit(LeaveError)
}

// joined completes a join.
func (b *binding) joined() {
	b.mu.Lock()
	if b.state != BindingJoining {
		b.mu.Unlock()
		return
	}
	b.state = BindingJoined
	b.mu.Unlock()

	b.log.Info().Msg("joined")
	b.onJoin.emit(struct{}{})
}

// Leave leaves the channel. It is safe to call at any time, including while
// a join is still connecting, and calling it more than once has no further effect.
// OnLeave is raised with LeaveChannel.
func (b *binding) Leave() {
	b.wireMu.Lock()
	b.mu.Lock()
	if b.state.terminal() || b.state == BindingLeaving {
		b.mu.Unlock()
		b.wireMu.Unlock()
		return
	}
	b.state = BindingLeaving
	b.gen++
	s := b.session
	b.session = nil
	b.mu.Unlock()

	if s != nil {
		b.part(s)
	}
	b.wireMu.Unlock()
	if s != nil {
		b.detach(s)
	}

	b.mu.Lock()
	b.state = BindingLeft
	b.mu.Unlock()

	b.log.Info().Msg("left")
	b.onLeave.emit(LeaveChannel)
}

// detach unregisters the binding from s on the worker pool.
// Removing the last listener waits for the session's goroutines,
// which must not happen on the receive goroutine that may be calling us.
func (b *binding) detach(s *Session) {
	b.svc.workers.Go(func() { s.RemoveListener(b) })
}

// left handles a leave the server initiated.
func (b *binding) left() {
	b.mu.Lock()
	if b.state.terminal() || b.state == BindingLeaving {
		b.mu.Unlock()
		return
	}
	b.state = BindingLeft
	b.gen++
	s := b.session
	b.session = nil
	b.mu.Unlock()

	if s != nil {
		b.detach(s)
	}
	b.log.Info().Msg("parted by server")
	b.onLeave.emit(LeaveChannel)
}

// Disconnected implements ConnectionListener.
func (b *binding) Disconnected(err error, willReconnect bool) {
	b.mu.Lock()
	if b.state != BindingJoined && b.state != BindingJoining {
		b.mu.Unlock()
		return
	}
	if willReconnect {
		b.state = BindingJoining
		b.mu.Unlock()
		b.log.Info().Err(err).Msg("disconnected; waiting for reconnect")
		return
	}
	b.state = BindingError
	b.gen++
	b.session = nil
	b.mu.Unlock()

	b.log.Warn().Err(err).Msg("disconnected")
	b.onLeave.emit(LeaveError)
}

// Reconnected implements ConnectionListener.
func (b *binding) Reconnected(s *Session) {
	b.mu.Lock()
	gen := b.gen
	b.mu.Unlock()
	b.enterIfCurrent(gen, s)
}

// send queues l on the binding's session.
func (b *binding) send(l *Line) error {
	b.mu.Lock()
	s := b.session
	b.mu.Unlock()
	if s == nil {
		return ErrNotJoined
	}
	s.WriteMessage(l)
	return nil
}

// isSelf reports whether p is the nickname the binding's session logged in with.
func (b *binding) isSelf(p Prefix) bool {
	id := b.svc.identity()
	if s := b.Session(); s != nil {
		if sid, ok := s.Identity(); ok {
			id = sid
		}
	}
	return strings.EqualFold(p.Nick(), id.Nickname)
}
