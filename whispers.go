package ircchat

// Whispers is a subscription to private messages.
//
// Whispers need no join command, so the binding is joined as soon as its session
// is authenticated. Callbacks run on the session's receive goroutine.
type Whispers struct {
	binding
}

func newWhispers(svc *Service) *Whispers {
	w := &Whispers{}
	w.binding = binding{
		svc:     svc,
		matcher: MatchWhisper(),
		log:     svc.log.With().Str("channel", "whispers").Logger(),
		handle:  w.handle,
		enter:   w.enter,
		part:    func(*Session) {},

		joinOnEnter: true,
	}
	return w
}

func (w *Whispers) enter(s *Session) {
	s.Authenticate(w.svc.identity())
}

func (w *Whispers) handle(_ MessageWriter, l *Line) {
	if l.Command.is(CmdWhisper) || l.Command.is(CmdPrivmsg) {
		w.onMessage.emit(w.svc.builder.Build(l))
	}
}

// SendMessage whispers text to user.
func (w *Whispers) SendMessage(user, text string) error {
	return w.send(Whisper(user, text))
}

// SendRuns whispers the concatenated text of runs to user.
func (w *Whispers) SendRuns(user string, runs []TextRun) error {
	return w.SendMessage(user, RunsText(runs))
}
