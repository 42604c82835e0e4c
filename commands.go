package ircchat

import "strings"

// NewLine constructs a new Line to be sent on the connection
// with cmd as the verb and args as the parameters.
//
// Only the last argument may contain SPACE (ascii 32, %x20).
// The last argument is written as trailing text when it is empty,
// contains a space, or begins with ':'.
// Including SPACE in any other argument will
// result in undefined behavior.
func NewLine(cmd Command, args ...string) *Line {
	l := &Line{Command: Command(strings.ToUpper(string(cmd)))}
	if len(args) == 0 {
		return l
	}
	last := args[len(args)-1]
	if last == "" || strings.IndexByte(last, delimParam) >= 0 || last[0] == startTrailing {
		l.Params = strings.Join(args[:len(args)-1], " ")
		l.Text = last
		l.Trailing = true
		return l
	}
	l.Params = strings.Join(args, " ")
	return l
}

// withText constructs a line whose final argument is always written as trailing text.
func withText(cmd Command, target, text string) *Line {
	return &Line{
		Command:  cmd,
		Params:   target,
		Text:     text,
		Trailing: true,
	}
}

// Msg constructs a new Line of type PRIVMSG,
// with target being the intended target channel or nickname,
// and message being the text body.
func Msg(target, message string) *Line {
	return withText(CmdPrivmsg, target, message)
}

// Describe constructs a CTCP ACTION, equivalent to "/me" in most clients.
//
//	Describe("#foo", "slaps Bob around a bit with a large trout")
//
// By convention, actions are written in third-person.
func Describe(target, action string) *Line {
	return withText(CmdPrivmsg, target, "\x01ACTION "+action+"\x01")
}

// Whisper constructs a private message to user.
// Whispers are sent as a slash command through the #jtv pseudo-channel.
func Whisper(user, message string) *Line {
	return withText(CmdPrivmsg, whisperTarget, "/w "+user+" "+message)
}

// Nick constructs a nickname command.
func Nick(name string) *Line {
	return NewLine(CmdNick, name)
}

// Join constructs a channel join command.
func Join(channel string) *Line {
	return NewLine(CmdJoin, channel)
}

// Part constructs leave (depart) command for channel.
func Part(channel string) *Line {
	return NewLine(CmdPart, channel)
}

// Pong builds the reply to a PING from the connection.
// The reply token must be the same as the original PING token.
func Pong(reply string) *Line {
	return withText(CmdPong, "", reply)
}

// CapReq requests that capabilities be enabled for the
// client's connection.
func CapReq(caps ...string) *Line {
	return withText(CmdCap, "REQ", strings.Join(caps, " "))
}

// Pass specifies the connection password.
// Chat servers expect an OAuth token, which is normalised with the "oauth:" prefix.
func Pass(token string) *Line {
	return NewLine(CmdPass, NormalizeToken(token))
}

// NormalizeToken prefixes token with "oauth:" unless it already has it.
func NormalizeToken(token string) string {
	if strings.HasPrefix(token, oauthPrefix) {
		return token
	}
	return oauthPrefix + token
}
