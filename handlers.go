package ircchat

// A Handler responds to a chat line.
//
// A line may be any type, including PRIVMSG, NOTICE, JOIN, numerics,
// etc. Sessions call a handler only for lines its listener matched.
//
// Handlers must not modify the provided Line; every listener shares it.
type Handler interface {
	SpeakIRC(MessageWriter, *Line)
}

// The HandlerFunc type is an adapter to allow the usage of ordinary functions
// as handlers, following the same pattern as http.HandlerFunc.
type HandlerFunc func(MessageWriter, *Line)

// SpeakIRC calls f(w, l).
func (f HandlerFunc) SpeakIRC(w MessageWriter, l *Line) {
	f(w, l)
}

// A Matcher decides whether a line is meant for a listener.
type Matcher interface {
	Matches(*Line) bool
}

// MatcherFunc adapts an ordinary function to a Matcher.
type MatcherFunc func(*Line) bool

// Matches calls f(l).
func (f MatcherFunc) Matches(l *Line) bool {
	return f(l)
}

// A Listener is a Handler registered on a session together with the Matcher
// that selects its lines. Listeners are compared with == when they are removed,
// so implementations should be pointers.
type Listener interface {
	Handler
	Matcher
}

// ConnectionListener is implemented by listeners that need to know when the
// session's underlying connection goes away and comes back.
type ConnectionListener interface {
	Listener

	// Disconnected is called after the connection was lost.
	// willReconnect reports whether the session is going to reconnect.
	Disconnected(err error, willReconnect bool)

	// Reconnected is called after a new connection is established.
	// The session is no longer authenticated at this point.
	Reconnected(*Session)
}

// noop performs no operation
var noop HandlerFunc = func(mw MessageWriter, l *Line) {}

type middleware func(Handler) Handler

func wrap(h Handler, mw ...middleware) Handler {
	if len(mw) < 1 {
		return h
	}

	wrapped := h
	// loop in reverse to preserve middleware order
	for i := len(mw) - 1; i >= 0; i-- {
		wrapped = mw[i](wrapped)
	}

	return wrapped
}

// pingMiddleware intercepts server PING lines and replies with the matching PONG.
// The reply is written on direct, ahead of anything queued,
// so it reaches the server before the next line is read.
func pingMiddleware(direct MessageWriter) middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(mw MessageWriter, l *Line) {
			if !l.Command.is(CmdPing) {
				next.SpeakIRC(mw, l)
				return
			}
			token := l.Text
			if !l.Trailing {
				token = l.Params
			}
			direct.WriteMessage(Pong(token))
		})
	}
}

// reconnectMiddleware intercepts the server's RECONNECT command and calls drop,
// which closes the connection so the reconnect policy takes over.
func reconnectMiddleware(drop func()) middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(mw MessageWriter, l *Line) {
			if !l.Command.is(CmdReconnect) {
				next.SpeakIRC(mw, l)
				return
			}
			drop()
		})
	}
}
