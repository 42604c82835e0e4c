package ircchat

import "strings"

// Param returns the nth middle parameter (starting at 1),
// or "" (empty string) if it did not exist.
// The trailing text is not counted; read it from Text.
//
// Because parameters have meaning based on their position in the argument list,
// Param does not differentiate between missing and empty parameters.
func (l *Line) Param(n int) string {
	if n < 1 {
		return ""
	}
	f := strings.Fields(l.Params)
	if n > len(f) {
		return ""
	}
	return f[n-1]
}

// Target returns the first parameter of the line, which for
// PRIVMSG, NOTICE, JOIN, PART and the Twitch commands is the channel
// or nickname the line was sent to.
// The literal target "*" is used by the server for lines that apply to every channel.
func (l *Line) Target() string {
	return l.Param(1)
}

// Chan returns the channel a line applies to, including the leading '#'.
// If the target is not a channel, Chan returns an empty string.
func (l *Line) Chan() string {
	t := l.Target()
	if t == "" || t[0] != chanPrefix {
		return ""
	}
	return t
}

// IsChannel reports whether name is a channel name.
func IsChannel(name string) bool {
	return name != "" && name[0] == chanPrefix
}

// ChannelName normalises a user supplied channel name: surrounding space and
// any leading '#' are removed and the result is lower-cased.
func ChannelName(name string) string {
	return strings.ToLower(strings.TrimLeft(strings.TrimSpace(name), string(chanPrefix)))
}
