package ircchat

import (
	"strconv"
	"strings"
	"time"

	"github.com/Travis-Britz/ircchat/internal/metrics"
)

const (
	ctcpDelim  = '\x01'
	ctcpAction = "\x01ACTION"

	emoteIDToken = ":emote_id"
)

// Builder turns received lines into ChatMessages.
// The zero value is usable; it resolves statuses against DefaultStatusCatalog
// and links emotes to DefaultEmoteURL.
type Builder struct {
	Catalog *StatusCatalog

	// EmoteURL is the image URL of an emote, with ":emote_id" standing in for the id.
	EmoteURL string

	// Now stamps messages that do not carry a server timestamp. Defaults to time.Now.
	Now func() time.Time
}

var defaultCatalog = DefaultStatusCatalog()

func (b *Builder) catalog() *StatusCatalog {
	if b.Catalog == nil {
		return defaultCatalog
	}
	return b.Catalog
}

func (b *Builder) now() time.Time {
	if b.Now == nil {
		return time.Now()
	}
	return b.Now()
}

// Build converts a PRIVMSG or WHISPER line into a ChatMessage.
//
// The whole text becomes a single run; a CTCP ACTION wrapper is stripped and
// marks the message as an action. Tags then style the author, resolve
// statuses, and split emotes out into image runs.
func (b *Builder) Build(l *Line) *ChatMessage {
	nick := l.Source.Nick()
	m := &ChatMessage{
		Author: Author{
			Name:   TextRun{Text: nick, Payload: nick},
			Status: make([]*StatusItem, len(b.catalog().Groups)),
		},
		Timestamp: b.now(),
		Kind:      KindNormal,
		ID:        nick,
	}

	text := l.Text
	if action, ok := stripAction(text); ok {
		m.Kind = KindAction
		text = action
	}
	m.Runs = []TextRun{{Text: text}}

	b.applyTags(m, l.Tags)
	metrics.Inc(metrics.MessagesBuilt)
	return m
}

// Notice builds the announcement shown for a server notice in channel.
func (b *Builder) Notice(channel, text string) *ChatMessage {
	name := string(chanPrefix) + ChannelName(channel)
	metrics.Inc(metrics.MessagesBuilt)
	return &ChatMessage{
		Author:    Author{Name: TextRun{Text: name, Payload: name}},
		Timestamp: b.now(),
		Kind:      KindAnnouncement,
		Runs:      []TextRun{{Text: text}},
	}
}

// stripAction returns the text inside a CTCP ACTION wrapper.
// One space after the ACTION keyword is dropped; a missing closing delimiter is tolerated.
func stripAction(text string) (string, bool) {
	i := strings.Index(text, ctcpAction)
	if i < 0 {
		return text, false
	}
	rest := text[i+len(ctcpAction):]
	rest = strings.TrimPrefix(rest, " ")
	if j := strings.IndexByte(rest, ctcpDelim); j >= 0 {
		rest = rest[:j]
	}
	return rest, true
}

func (b *Builder) applyTags(m *ChatMessage, tags Tags) {
	cat := b.catalog()
	setStatus := func(group, item int) {
		if group < len(m.Author.Status) {
			m.Author.Status[group] = cat.Item(group, item)
		}
	}

	tags.Each(func(key, value string) bool {
		switch key {
		case "color":
			m.Author.Name.Color = value
		case "display-name":
			if value != "" {
				m.Author.Name.Text = value
				m.Author.Name.Payload = value
			}
		case "emotes":
			m.Runs = SplitRuns(m.Runs, b.emoteSpans(value))
		case "user-type":
			if item, ok := roleItem(value); ok {
				setStatus(GroupRole, item)
			}
		case "mod":
			if value == "1" {
				setStatus(GroupRole, RoleModerator)
			}
		case "turbo":
			if value == "1" {
				setStatus(GroupTurbo, 0)
			}
		case "subscriber":
			if value == "1" {
				setStatus(GroupSubscriber, 0)
			}
		case "badges":
			for _, badge := range strings.Split(value, ",") {
				name, _, _ := strings.Cut(badge, "/")
				switch name {
				case "turbo":
					setStatus(GroupTurbo, 0)
				case "subscriber":
					setStatus(GroupSubscriber, 0)
				case "moderator":
					setStatus(GroupRole, RoleModerator)
				default:
					if item, ok := roleItem(name); ok {
						setStatus(GroupRole, item)
					}
				}
			}
		case "tmi-sent-ts":
			if ms, err := strconv.ParseInt(value, 10, 64); err == nil && ms > 0 {
				m.Timestamp = time.UnixMilli(ms)
			}
		}
		return true
	})
}

func roleItem(userType string) (int, bool) {
	switch userType {
	case "mod":
		return RoleModerator, true
	case "global_mod":
		return RoleGlobalModerator, true
	case "admin":
		return RoleAdministrator, true
	case "staff":
		return RoleStaff, true
	default:
		return 0, false
	}
}

// emoteSpans parses an emotes tag value of the form "id:a-b,c-d/id:e-f".
// Malformed entries are skipped.
func (b *Builder) emoteSpans(value string) []Span {
	if value == "" {
		return nil
	}
	url := b.EmoteURL
	if url == "" {
		url = DefaultEmoteURL
	}

	var spans []Span
	for _, emote := range strings.Split(value, "/") {
		id, ranges, ok := strings.Cut(emote, ":")
		if !ok || id == "" {
			continue
		}
		payload := strings.ReplaceAll(url, emoteIDToken, id)
		for _, r := range strings.Split(ranges, ",") {
			a, z, ok := strings.Cut(r, "-")
			if !ok {
				continue
			}
			start, err1 := strconv.Atoi(a)
			end, err2 := strconv.Atoi(z)
			if err1 != nil || err2 != nil {
				continue
			}
			spans = append(spans, Span{Start: start, End: end, Payload: payload})
		}
	}
	return spans
}
