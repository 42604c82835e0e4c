package ircchat

import (
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Travis-Britz/ircchat/irctest"
)

const selfNick = "justinfan12345"

func newBindingService(t *testing.T) (*Service, *irctest.Server) {
	t.Helper()
	srv := irctest.NewServer()
	srv.Handler = irctest.EchoJoins(selfNick)
	t.Cleanup(func() { _ = srv.Close() })

	q := &dialQueue{}
	q.push(srv)
	cfg := DefaultConfig()
	cfg.Servers = []string{testDest.String()}
	svc, err := NewService(cfg, zerolog.Nop(), WithDialer(q.dial))
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc, srv
}

func joinAndWait(t *testing.T, c *Channel) {
	t.Helper()
	joined := make(chan struct{}, 1)
	c.OnJoin(func() { joined <- struct{}{} })
	c.Join()
	select {
	case <-joined:
	case <-time.After(wait):
		t.Fatalf("#%s did not join", c.name)
	}
}

// linesFor returns the JOIN and PART lines the client wrote for channel, in order.
func linesFor(srv *irctest.Server, channel string) []string {
	var out []string
	for _, l := range srv.Received() {
		if l == "JOIN "+channel || l == "PART "+channel {
			out = append(out, l)
		}
	}
	return out
}

// flushQueue waits until every line queued on s so far has reached srv.
func flushQueue(t *testing.T, s *Session, srv *irctest.Server, token string) {
	t.Helper()
	s.WriteMessage(NewLine(CmdPing, token))
	_, ok := srv.Expect("PING "+token, wait)
	require.True(t, ok)
}

func TestBindingLeaveBeforeEnter(t *testing.T) {
	svc, srv := newBindingService(t)
	keep := svc.Channel("keep")
	joinAndWait(t, keep)
	s := keep.Session()
	require.NotNil(t, s)

	// the join of #gone reached its session, but Leave wins the race to the wire
	gone := svc.Channel("gone")
	gone.mu.Lock()
	gone.state = BindingJoining
	gen := gone.gen
	gone.session = s
	gone.mu.Unlock()
	require.NoError(t, s.AddListener(gone))

	gone.Leave()
	gone.enterIfCurrent(gen, s)
	flushQueue(t, s, srv, "gone")

	assert.Equal(t, []string{"PART #gone"}, linesFor(srv, "#gone"), "no JOIN may follow the PART")
	assert.Equal(t, BindingLeft, gone.State())
	assert.Equal(t, BindingJoined, keep.State())
}

func TestBindingLeaveDuringEnter(t *testing.T) {
	svc, srv := newBindingService(t)
	keep := svc.Channel("keep")
	joinAndWait(t, keep)

	gone := svc.Channel("gone")
	left := make(chan struct{})
	gone.OnLeave(func(LeaveReason) { close(left) })
	enter := gone.binding.enter
	gone.binding.enter = func(s *Session) {
		go gone.Leave()
		// give Leave the chance to run while the join sequence is being written
		time.Sleep(20 * time.Millisecond)
		enter(s)
	}
	gone.Join()

	select {
	case <-left:
	case <-time.After(wait):
		t.Fatal("#gone did not leave")
	}
	flushQueue(t, keep.Session(), srv, "gone")
	assert.Equal(t, []string{"JOIN #gone", "PART #gone"}, linesFor(srv, "#gone"))
	assert.Equal(t, BindingLeft, gone.State())
	assert.Equal(t, BindingJoined, keep.State())
}

func TestBindingWhispersJoinedOnEnter(t *testing.T) {
	svc, srv := newBindingService(t)
	w := svc.Whispers()
	joined := make(chan struct{}, 1)
	w.OnJoin(func() {
		// callbacks may leave from OnJoin
		w.Leave()
		joined <- struct{}{}
	})
	w.Join()
	select {
	case <-joined:
	case <-time.After(wait):
		t.Fatal("whispers did not join")
	}
	assert.Equal(t, BindingLeft, w.State())

	var passes int
	for _, l := range srv.Received() {
		if strings.HasPrefix(l, "PASS ") {
			passes++
		}
	}
	assert.LessOrEqual(t, passes, 1)
}
