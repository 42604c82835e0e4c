package ircchat

import (
	"context"
	"time"

	"github.com/Travis-Britz/ircchat/viewers"
)

// viewerListTimeout bounds a viewer list request.
const viewerListTimeout = 5 * time.Second

// A Channel is a subscription to one chat room.
//
// A Channel joins once: after it has left, or failed, ask the Service for a new one.
// Callbacks registered with the On methods run on the session's receive goroutine
// and must not block; Leave may be called from them.
type Channel struct {
	binding

	onChatterJoin     event[string]
	onChatterLeave    event[string]
	onNotice          event[*ChatMessage]
	onMessagesDeleted event[[]string]
}

func newChannel(svc *Service, name string) *Channel {
	name = ChannelName(name)
	c := &Channel{}
	c.binding = binding{
		svc:     svc,
		name:    name,
		matcher: MatchChannel(name),
		log:     svc.log.With().Str("channel", name).Logger(),
		handle:  c.handle,
		enter:   c.enter,
		part: func(s *Session) {
			s.WriteMessage(Part(c.target()))
		},
	}
	return c
}

// Name returns the channel name without the leading '#'.
func (c *Channel) Name() string { return c.name }

func (c *Channel) target() string { return string(chanPrefix) + c.name }

// OnChatterJoin registers f to be called with the nickname of every chatter that joins.
func (c *Channel) OnChatterJoin(f func(nick string)) (unsubscribe func()) {
	return c.onChatterJoin.subscribe(f)
}

// OnChatterLeave registers f to be called with the nickname of every chatter that leaves.
func (c *Channel) OnChatterLeave(f func(nick string)) (unsubscribe func()) {
	return c.onChatterLeave.subscribe(f)
}

// OnNotice registers f to be called for server notices and errors addressed to the channel.
func (c *Channel) OnNotice(f func(*ChatMessage)) (unsubscribe func()) {
	return c.onNotice.subscribe(f)
}

// OnMessagesDeleted registers f to be called when messages are removed.
// ids holds the ids of the removed messages, which are the authors' nicknames;
// it is empty when the whole chat was cleared.
func (c *Channel) OnMessagesDeleted(f func(ids []string)) (unsubscribe func()) {
	return c.onMessagesDeleted.subscribe(f)
}

// enter authenticates the session and asks to join.
// The binding is joined when the server echoes our JOIN.
func (c *Channel) enter(s *Session) {
	s.Authenticate(c.svc.identity())
	s.WriteMessage(Join(c.target()))
}

func (c *Channel) handle(_ MessageWriter, l *Line) {
	switch {
	case l.Command.is(CmdPrivmsg):
		c.onMessage.emit(c.svc.builder.Build(l))

	case l.Command.is(CmdJoin):
		if c.isSelf(l.Source) {
			c.joined()
		}
		c.onChatterJoin.emit(l.Source.Nick())

	case l.Command.is(CmdPart):
		if c.isSelf(l.Source) {
			c.left()
		}
		c.onChatterLeave.emit(l.Source.Nick())

	case l.Command.is(CmdNotice), l.Command.is(CmdUserNotice), l.Command.is(CmdError):
		c.onNotice.emit(c.svc.builder.Notice(c.name, l.Text))

	case l.Command.is(CmdClearChat):
		var ids []string
		if l.Text != "" {
			ids = []string{l.Text}
		}
		c.onMessagesDeleted.emit(ids)
	}
}

// SendMessage sends text to the channel.
func (c *Channel) SendMessage(text string) error {
	return c.send(Msg(c.target(), text))
}

// SendRuns sends the concatenated text of runs. Formatting is not transmitted.
func (c *Channel) SendRuns(runs []TextRun) error {
	return c.SendMessage(RunsText(runs))
}

// RequestViewerList fetches the channel's viewer list in the background and calls done
// with the result. On failure done is called with ok false and a nil list.
func (c *Channel) RequestViewerList(done func(ok bool, list *viewers.List)) {
	c.svc.workers.Go(func() {
		ctx, cancel := context.WithTimeout(c.svc.ctx, viewerListTimeout)
		defer cancel()
		list, err := viewers.Fetch(ctx, c.svc.http, c.svc.cfg.ViewerListURL, c.name)
		if err != nil {
			c.log.Warn().Err(err).Msg("viewer list")
			done(false, nil)
			return
		}
		done(true, list)
	})
}
