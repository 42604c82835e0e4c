package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Travis-Britz/ircchat"
)

var (
	timeStyle   = lipgloss.NewStyle().Faint(true)
	chanStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6441a5"))
	emoteStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFF00")).Bold(true)
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#808080")).Italic(true)
	badgeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Padding(0, 1)

	// fallback name colors for chatters that never picked one
	nameColors = []string{"#008000", "#008080", "#800000", "#800080", "#808000", "#00FF00", "#00FFFF", "#FF0000", "#FF00FF", "#FFFF00"}
)

// nameColor returns c, or a color picked from the nickname when c is empty.
func nameColor(nick, c string) lipgloss.Color {
	if c != "" {
		return lipgloss.Color(c)
	}
	var h uint32
	for i := 0; i < len(nick); i++ {
		h = h*31 + uint32(nick[i])
	}
	return lipgloss.Color(nameColors[h%uint32(len(nameColors))])
}

func renderStyle(st lipgloss.Style, s ircchat.Style) lipgloss.Style {
	return st.
		Bold(s.Has(ircchat.Bold)).
		Italic(s.Has(ircchat.Italic)).
		Underline(s.Has(ircchat.Underline)).
		Strikethrough(s.Has(ircchat.Strikethrough))
}

// render formats m, received in channel, as one terminal line.
func render(channel string, m *ircchat.ChatMessage) string {
	var b strings.Builder
	b.WriteString(timeStyle.Render(m.Timestamp.Format("15:04:05")))
	b.WriteByte(' ')
	b.WriteString(chanStyle.Render("#" + channel))
	b.WriteByte(' ')

	for _, st := range m.Author.Status {
		if st == nil {
			continue
		}
		b.WriteString(badgeStyle.Background(lipgloss.Color(st.Color)).Render(st.ShortName))
		b.WriteByte(' ')
	}

	if m.Kind == ircchat.KindAnnouncement {
		b.WriteString(noticeStyle.Render(m.Text()))
		return b.String()
	}

	name := lipgloss.NewStyle().Bold(true).Foreground(nameColor(m.Author.Name.Text, m.Author.Name.Color))
	if m.Kind == ircchat.KindAction {
		b.WriteString(name.Render("* " + m.Author.Name.Text))
		b.WriteByte(' ')
	} else {
		b.WriteString(name.Render(m.Author.Name.Text))
		b.WriteString(": ")
	}

	for _, r := range m.Runs {
		st := lipgloss.NewStyle()
		if r.Color != "" {
			st = st.Foreground(lipgloss.Color(r.Color))
		}
		if r.Kind == ircchat.RunImage {
			st = emoteStyle
		}
		b.WriteString(renderStyle(st, r.Style).Render(r.Text))
	}
	return b.String()
}
