// This lexer follows the method described in the video:
// Lexical Scanning in Go - Rob Pike
// https://www.youtube.com/watch?v=HxaD_trXwRE
//
// Unlike the talk, items are collected synchronously into a slice.
// A line is short and bounded, so a goroutine per line only adds scheduling cost.

package ircchat

import (
	"fmt"
	"strings"
)

const (
	delimParam    = ' ' // the delimiter token between segments
	delimTag      = ';' // the delimiter token for message tags
	delimTagValue = '=' // the delimiter token for message tag values
	startTags     = '@' // the delimiter for beginning tags
	startPrefix   = ':' // the delimiter for the prefix
	startTrailing = ':' // the delimiter for the trailing text
)

// item represents a token returned from the scanner.
type item struct {
	typ itemType // Type, such as itemCommand
	val string   // the value of the lexed token
}

func (it itemType) String() string {
	switch it {
	case itemTags:
		return "Tags"
	case itemSource:
		return "Source"
	case itemCommand:
		return "Command"
	case itemParams:
		return "Params"
	case itemText:
		return "Text"
	case itemError:
		return "Error"
	default:
		return ""
	}
}

func (i item) String() string {
	switch {
	case i.typ == itemEOF:
		return "EOF"
	case i.typ == itemError:
		return i.val
	}

	return fmt.Sprintf("%s: %q", i.typ, i.val)
}

// itemType identifies the type of lex items.
type itemType int

const (
	itemError   itemType = iota // error occurred; value is text of error
	itemTags                    // the raw tag blob without the leading '@'
	itemSource                  // the prefix without the leading ':', e.g. "nick!user@host"
	itemCommand                 // the command or numeric, e.g. "PRIVMSG" or "001"
	itemParams                  // the middle parameters, e.g. "#channel"
	itemText                    // the trailing text, everything after the first ':' of the parameters
	itemEOF                     // end of line
)

// stateFn represents the state of the scanner as a function that returns the next state.
type stateFn func(*lexer) stateFn

// lexer holds the state of the scanner.
type lexer struct {
	input string // the string being scanned.
	start int    // start position of this item.
	pos   int    // current position in the input.
	items []item // scanned items, in order
}

func lex(input string) *lexer {
	l := &lexer{
		input: input,
		items: make([]item, 0, 6),
	}
	for state := lexStart; state != nil; {
		state = state(l)
	}
	return l
}

func (l *lexer) emit(t itemType) {
	l.items = append(l.items, item{t, l.input[l.start:l.pos]})
	l.start = l.pos
}

func (l *lexer) ignore() {
	l.start = l.pos
}

// peek returns but does not consume the next byte in the input, or 0 at the end of input.
// Every delimiter in the grammar is a single ASCII byte.
func (l *lexer) peek() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

// skipDelim consumes exactly one segment delimiter, which is known to be present.
func (l *lexer) skipDelim() {
	l.pos++
	l.ignore()
}

// scanSegment advances to the next segment delimiter or the end of input.
// It reports whether a delimiter was found.
func (l *lexer) scanSegment() bool {
	i := strings.IndexByte(l.input[l.pos:], delimParam)
	if i < 0 {
		l.pos = len(l.input)
		return false
	}
	l.pos += i
	return true
}

// errorf records an error token and terminates the scan by returning nil as the next state.
func (l *lexer) errorf(format string, args ...interface{}) stateFn {
	l.items = append(l.items, item{itemError, fmt.Sprintf(format, args...)})
	return nil
}

func lexStart(l *lexer) stateFn {
	switch l.peek() {
	case 0:
		return l.errorf("empty line")
	case startTags:
		return lexTags
	case startPrefix:
		return lexSource
	}
	return lexCommand
}

// lexTags scans the tag segment. The '@' is known to be present.
// Tag keys and values are split later by Tags, which keeps the raw blob intact for formatting.
func lexTags(l *lexer) stateFn {
	l.pos++
	l.ignore()
	if !l.scanSegment() {
		return l.errorf("unexpected end of input after message tags")
	}
	l.emit(itemTags)
	l.skipDelim()
	if l.peek() == startPrefix {
		return lexSource
	}
	return lexCommand
}

// lexSource scans the prefix segment. The ':' is known to be present.
func lexSource(l *lexer) stateFn {
	l.pos++
	l.ignore()
	if !l.scanSegment() {
		return l.errorf("unexpected end of input; expected command")
	}
	l.emit(itemSource)
	l.skipDelim()
	return lexCommand
}

func lexCommand(l *lexer) stateFn {
	more := l.scanSegment()
	if l.pos == l.start {
		return l.errorf("command is empty")
	}
	l.emit(itemCommand)
	if !more {
		l.emit(itemEOF)
		return nil
	}
	l.skipDelim()
	return lexParams
}

// lexParams scans everything after the command.
// The first ':' starts the trailing text, which may contain spaces and further colons.
// The space(s) separating the middle parameters from the trailing text are not part of either.
func lexParams(l *lexer) stateFn {
	rest := l.input[l.pos:]
	i := strings.IndexByte(rest, startTrailing)
	if i < 0 {
		l.pos = len(l.input)
		if l.pos > l.start {
			l.emit(itemParams)
		}
		l.emit(itemEOF)
		return nil
	}

	params := strings.TrimRight(rest[:i], " ")
	l.pos += len(params)
	if len(params) > 0 {
		l.emit(itemParams)
	}
	l.pos = l.start + len(rest[len(params):i]) + 1
	l.ignore()
	l.pos = len(l.input)
	l.emit(itemText)
	l.emit(itemEOF)
	return nil
}
