package ircchat

import (
	"bytes"
	"encoding"
	"fmt"
	"sort"
	"strings"
)

// Line represents any incoming or outgoing chat line.
//
// A line consists of up to five parts: tags, source, command, middle parameters, and trailing text.
// Only the command is required.
//
//	@badges=moderator/1;color=#FF0000 :nick!nick@nick.tmi.twitch.tv PRIVMSG #channel :hello there
//
// Lines produced by Parse are treated as immutable;
// every listener on a session receives the same *Line.
type Line struct {

	// Tags contains the raw IRCv3 tag blob without the leading '@'.
	// Tags are included by the server if the twitch.tv/tags capability has been negotiated.
	Tags Tags

	// Source is where the line originated from, without the leading ':'.
	//
	// Source should be left empty for lines that will be written to a connection.
	Source Prefix

	// Command is the verb or numeric such as PRIVMSG, NOTICE, 001, etc.
	Command Command

	// Params holds the middle parameters exactly as received, space separated.
	// Use Param to read a single parameter.
	Params string

	// Text is the trailing text: everything after the first ':' of the parameter string.
	// It may contain spaces and colons.
	Text string

	// Trailing reports whether the line had a trailing text clause,
	// which distinguishes "PRIVMSG #foo :" from "PRIVMSG #foo".
	Trailing bool
}

// ParseError is returned by Parse for lines that cannot be decoded.
type ParseError struct {
	Line   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q: %s", e.Line, e.Reason)
}

// Parse decodes a single line. raw should not include the trailing CR-LF pair.
func Parse(raw string) (*Line, error) {
	l := &Line{}
	if err := l.decode(raw); err != nil {
		return nil, err
	}
	return l, nil
}

// UnmarshalText implements encoding.TextUnmarshaler,
// accepting a line read from a chat stream.
// text should not include the trailing CR-LF pair.
//
// This will unmarshal an arbitrarily long sequence of bytes.
// Length limitations should be implemented at the scanner.
func (l *Line) UnmarshalText(text []byte) error {
	return l.decode(string(text))
}

func (l *Line) decode(raw string) error {

	// re-using a line to unmarshal new text should clear old fields
	*l = Line{}

	for _, i := range lex(raw).items {
		switch i.typ {
		case itemEOF:
			return nil
		case itemError:
			return &ParseError{Line: raw, Reason: i.val}
		case itemTags:
			l.Tags = Tags(i.val)
		case itemSource:
			l.Source = Prefix(i.val)
		case itemCommand:
			l.Command = Command(i.val)
		case itemParams:
			l.Params = i.val
		case itemText:
			l.Text = i.val
			l.Trailing = true
		}
	}
	return &ParseError{Line: raw, Reason: "unexpected end of input"}
}

// MarshalText implements encoding.TextMarshaler, mainly for use with MessageWriter.
// The CR-LF terminator is not included; the session appends it when writing.
func (l *Line) MarshalText() ([]byte, error) {
	if l.Command == "" {
		return nil, fmt.Errorf("marshal line: command is empty")
	}
	buf := bytes.NewBuffer(make([]byte, 0, 64+len(l.Tags)+len(l.Params)+len(l.Text)))

	if l.Tags != "" {
		buf.WriteByte(startTags)
		buf.WriteString(string(l.Tags))
		buf.WriteByte(delimParam)
	}
	if l.Source != "" {
		buf.WriteByte(startPrefix)
		buf.WriteString(string(l.Source))
		buf.WriteByte(delimParam)
	}
	buf.WriteString(string(l.Command))
	if l.Params != "" {
		buf.WriteByte(delimParam)
		buf.WriteString(l.Params)
	}
	if l.Trailing {
		buf.WriteByte(delimParam)
		buf.WriteByte(startTrailing)
		buf.WriteString(l.Text)
	}
	return buf.Bytes(), nil
}

// String implements fmt.Stringer. It is the formatted line without CR-LF.
func (l *Line) String() string {
	b, err := l.MarshalText()
	if err != nil {
		return ""
	}
	return string(b)
}

// unescaper is a string replacer that unescapes message tag values.
var unescaper = strings.NewReplacer(
	"\\:", ";",
	"\\r", "\r",
	"\\n", "\n",
	"\\s", " ",
	"\\\\", "\\",
	"\\", "",
)

// escaper is a string replacer that escapes message tag values for transmission.
var escaper = strings.NewReplacer(
	";", "\\:",
	"\r", "\\r",
	"\n", "\\n",
	" ", "\\s",
	"\\", "\\\\",
)

// Tags is the raw IRCv3 tag blob of a line, e.g. "color=#FF0000;display-name=Foo".
// Values are unescaped on read.
type Tags string

// Each calls f for every tag in the order the tags appear.
// Tags with an empty key are skipped. Iteration stops when f returns false.
func (t Tags) Each(f func(key, value string) bool) {
	s := string(t)
	for s != "" {
		var pair string
		if i := strings.IndexByte(s, delimTag); i >= 0 {
			pair, s = s[:i], s[i+1:]
		} else {
			pair, s = s, ""
		}
		k, v, _ := strings.Cut(pair, string(delimTagValue))
		if k == "" {
			continue
		}
		if !f(k, unescaper.Replace(v)) {
			return
		}
	}
}

// Get will get the tag value for key. All variations of missing or empty values return
// an empty string. To check whether a line included a specific tag key, use Has.
func (t Tags) Get(key string) string {
	var val string
	t.Each(func(k, v string) bool {
		if k == key {
			val = v
			return false
		}
		return true
	})
	return val
}

// Has returns true when the given key was listed in the tags.
func (t Tags) Has(key string) bool {
	var found bool
	t.Each(func(k, _ string) bool {
		found = k == key
		return !found
	})
	return found
}

// Map returns the tags as a map. Later duplicates overwrite earlier ones.
func (t Tags) Map() map[string]string {
	m := make(map[string]string)
	t.Each(func(k, v string) bool {
		m[k] = v
		return true
	})
	return m
}

// BuildTags encodes a map of tags, escaping values for transmission.
// Keys are written in sorted order so the result is deterministic.
func BuildTags(m map[string]string) Tags {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(delimTag)
		}
		b.WriteString(k)
		if v := m[k]; v != "" {
			b.WriteByte(delimTagValue)
			b.WriteString(escaper.Replace(v))
		}
	}
	return Tags(b.String())
}

// Command is a command such as PRIVMSG, NOTICE, 001, etc.
//
// A command may also be known as the "verb", "event type", or "numeric".
type Command string

// String implements fmt.Stringer
func (c Command) String() string {
	return string(c)
}

// is does a case-insensitive compare between two commands, which is
// useful if a command was given as a string constant.
func (c Command) is(oc Command) bool {
	return strings.EqualFold(string(c), string(oc))
}

// Prefix is the optional line prefix,
// which indicates the source (user or server) of the line.
//
// Example server prefix:
//
//	:tmi.twitch.tv 001 justinfan123 :Welcome, GLHF!
//
// Example "fulladdress" prefix:
//
//	:ronni!ronni@ronni.tmi.twitch.tv PRIVMSG #dallas :Kappa Keepo Kappa
type Prefix string

// Nick returns the nickname portion of the prefix: everything before the first '!',
// or the whole prefix when there is no '!'.
func (p Prefix) Nick() string {
	s := string(p)
	if i := strings.IndexByte(s, '!'); i >= 0 {
		return s[:i]
	}
	return s
}

// IsServer returns true when the line originated from a server (as opposed to a user).
func (p Prefix) IsServer() bool {
	return p != "" && !strings.ContainsAny(string(p), "!@")
}

// String implements fmt.Stringer
func (p Prefix) String() string {
	return string(p)
}

// MessageWriter contains methods for sending lines to a server.
type MessageWriter interface {

	// WriteMessage writes the line to the session's outgoing queue.
	// The given encoding.TextMarshaler MUST return a byte slice which conforms to the protocol.
	// If the slice does not end in "\r\n", then the sequence will be appended.
	//
	// WriteMessage never returns an error. Write faults are logged,
	// and a broken connection surfaces through the receive loop.
	WriteMessage(encoding.TextMarshaler)
}
