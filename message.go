package ircchat

import (
	"strings"
	"time"
)

// MessageKind distinguishes ordinary chat lines from actions and announcements.
type MessageKind int

const (
	KindNormal       MessageKind = iota // a regular chat message
	KindAction                          // a "/me" message
	KindAnnouncement                    // a server notice shown in the channel
)

func (k MessageKind) String() string {
	switch k {
	case KindAction:
		return "action"
	case KindAnnouncement:
		return "announcement"
	default:
		return "normal"
	}
}

// Style is a set of text formatting flags.
type Style uint8

const (
	Bold          Style = 0x01
	Italic        Style = 0x02
	Underline     Style = 0x04
	Strikethrough Style = 0x10
)

// Has reports whether every flag in f is set.
func (s Style) Has(f Style) bool { return s&f == f }

// RunKind is the kind of content a TextRun carries.
type RunKind int

const (
	RunText  RunKind = iota // plain text
	RunImage                // an inline image; Payload holds its URL
)

// TextRun is a contiguous piece of message text with uniform formatting.
//
// For image runs Text holds the original characters the image replaces,
// so concatenating the Text of all runs always reproduces the message.
type TextRun struct {
	Text    string
	Payload string
	Style   Style
	Color   string // "#RRGGBB" or empty
	Kind    RunKind
}

// Author is the sender of a ChatMessage.
type Author struct {
	// Name holds the display name in Text and the login name or display name in Payload.
	// Name.Color is the user's chosen color.
	Name TextRun

	// Status has one slot per StatusCatalog group, nil when the author has no status in that group.
	Status []*StatusItem
}

// ChatMessage is a structured, formatted chat message.
type ChatMessage struct {
	Author    Author
	Timestamp time.Time
	Kind      MessageKind

	// ID identifies the message for deletion.
	// Deletions are announced by user name, so ID is the author's login name.
	ID   string
	Runs []TextRun
}

// Text returns the concatenated text of all runs.
func (m *ChatMessage) Text() string {
	if len(m.Runs) == 1 {
		return m.Runs[0].Text
	}
	var b strings.Builder
	for _, r := range m.Runs {
		b.WriteString(r.Text)
	}
	return b.String()
}

// RunsText concatenates the text of runs.
func RunsText(runs []TextRun) string {
	m := ChatMessage{Runs: runs}
	return m.Text()
}
