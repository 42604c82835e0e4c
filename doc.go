/*
Package ircchat provides a Twitch chat client that shares connections between channels.

This overview provides brief introductions for types and concepts.
The godoc for each type contains expanded documentation.

# API

These are the main types that you will interact with while using this package:

	// A Service hands out channel and whisper bindings.
	type Service struct {
		//...
	}

	// A Channel is one joined chat channel.
	type Channel struct {
		//...
	}

	// ChatMessage is a chat line prepared for display.
	type ChatMessage struct {
		Author    Author
		Timestamp time.Time
		Kind      MessageKind
		ID        string
		Runs      []TextRun
	}

# Service

A Service owns a Pool of sessions. Each session is one authenticated
connection to a chat server, and any number of channels may share it.
A binding asks discovery for the servers of its channel and reuses a pooled
session for any of them before dialing a new one.

	svc, err := ircchat.NewService(ircchat.DefaultConfig(), logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	c := svc.Channel("world")
	c.OnMessage(func(m *ircchat.ChatMessage) {
		fmt.Println(m.Author.Name.Text+":", m.Text())
	})
	c.Join()

Events are delivered on the session's reader goroutine.
Handlers that block delay every other listener of the session.

# Sessions and listeners

Lower level code may use a Pool directly. Lines are delivered to Listeners:
a Handler paired with a Matcher that selects its lines.

	type Handler interface {
		SpeakIRC(MessageWriter, *Line)
	}

Because the Handler interface mimics the signature of the http.Handler interface,
most patterns for http middleware can also be applied to chat handlers.
A session answers PING and RECONNECT itself before any listener sees the next line.

# MessageWriter

The MessageWriter interface accepts any type that knows how to marshal itself into a line of IRC-encoded text.

Most of the time it makes sense to send a Line,
either by using the NewLine function or any of the related constructors such as ircchat.Msg, ircchat.Describe, ircchat.Whisper, etc.
Writes are queued; PRIVMSG lines are rate limited according to Config.SendRate.

# Runs

Message text is held as a list of TextRuns.
Emotes are image runs carved out of the text with SplitRuns,
whose spans count code points rather than bytes.
*/
package ircchat
