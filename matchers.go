package ircchat

import (
	"regexp"
	"strings"
)

// Listen builds a Listener that calls h for lines satisfying every one of matchers.
// With no matchers it matches every line.
func Listen(h Handler, matchers ...Matcher) Listener {
	return &route{h: h, matchers: matchers}
}

// ListenFunc is Listen for an ordinary function.
func ListenFunc(f HandlerFunc, matchers ...Matcher) Listener {
	return Listen(f, matchers...)
}

type route struct {
	h        Handler
	matchers []Matcher
}

// SpeakIRC implements Handler
func (r *route) SpeakIRC(mw MessageWriter, l *Line) {
	r.h.SpeakIRC(mw, l)
}

// Matches implements Matcher
func (r *route) Matches(l *Line) bool {
	for _, m := range r.matchers {
		if !m.Matches(l) {
			return false
		}
	}
	return true
}

// MatchCommand matches lines with command cmd.
func MatchCommand(cmd Command) Matcher {
	return commandMatch{cmd}
}

// MatchChannel matches lines whose first parameter is "#"+name, or the wildcard target "*".
// name is normalised with ChannelName.
func MatchChannel(name string) Matcher {
	return channelMatch{string(chanPrefix) + ChannelName(name)}
}

// MatchWhisper matches whispers: WHISPER lines, and PRIVMSG lines whose target is not a channel.
func MatchWhisper() Matcher {
	return whisperMatch{}
}

// MatchAny matches lines satisfying at least one of matchers.
func MatchAny(matchers ...Matcher) Matcher {
	return &matchAny{matchers}
}

// MatchText matches PRIVMSG lines whose text matches wildtext:
//
//	*      matches any text
//	&      matches any word
//	?      matches a single character
//	text   matches if exact match
//	text*  matches if text starts with word
//	*text  matches if text ends with word
//	*text* matches if text is anywhere
func MatchText(wildtext string) Matcher {
	return textMatch{wildcardRE(wildtext)}
}

// MatchTextRE matches PRIVMSG lines whose text matches the regular expression expr.
func MatchTextRE(expr string) (Matcher, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	return textMatch{re}, nil
}

// TextFilter returns a function reporting whether text matches wildtext,
// following the rules of MatchText. It is meant for filtering ChatMessage text.
func TextFilter(wildtext string) func(text string) bool {
	return wildcardRE(wildtext).MatchString
}

var wildcardTokens = regexp.MustCompile(`\*|\?|[^*?]+`)

// wildcardRE converts a wildcard match string to a regular expression.
func wildcardRE(s string) *regexp.Regexp {
	expr := wildcardTokens.ReplaceAllStringFunc(s, func(s string) string {
		switch s {
		case "*":
			return ".*"
		case "?":
			return "."
		}
		return regexp.QuoteMeta(s)
	})

	fields := strings.Split(expr, " ")
	for i, f := range fields {
		if f == "&" {
			fields[i] = `\S+`
		}
	}
	return regexp.MustCompile("^" + strings.Join(fields, " ") + "$")
}

type textMatch struct {
	re *regexp.Regexp
}

func (tm textMatch) Matches(l *Line) bool {
	return l.Command.is(CmdPrivmsg) && tm.re.MatchString(l.Text)
}

type commandMatch struct {
	cmd Command
}

func (cm commandMatch) Matches(l *Line) bool {
	return l.Command.is(cm.cmd)
}

type channelMatch struct {
	channel string
}

func (cm channelMatch) Matches(l *Line) bool {
	t := l.Target()
	return t == targetWildcard || strings.EqualFold(cm.channel, t)
}

type whisperMatch struct{}

func (whisperMatch) Matches(l *Line) bool {
	switch {
	case l.Command.is(CmdWhisper):
		return true
	case l.Command.is(CmdPrivmsg):
		t := l.Target()
		return t != "" && t != targetWildcard && !IsChannel(t)
	default:
		return false
	}
}

type matchAny struct {
	matchers []Matcher
}

func (ma *matchAny) Matches(l *Line) bool {
	for _, m := range ma.matchers {
		if m.Matches(l) {
			return true
		}
	}
	return false
}
