package main

import (
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"

	"github.com/Travis-Britz/ircchat"
)

func TestRender(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)

	cat := ircchat.DefaultStatusCatalog()
	ts := time.Date(2024, 5, 1, 12, 30, 5, 0, time.UTC)
	m := &ircchat.ChatMessage{
		Author: ircchat.Author{
			Name:   ircchat.TextRun{Text: "Ronni", Color: "#FF0000"},
			Status: []*ircchat.StatusItem{cat.Item(ircchat.GroupRole, ircchat.RoleModerator), nil, nil},
		},
		Timestamp: ts,
		Runs:      []ircchat.TextRun{{Text: "hello "}, {Text: "Kappa", Kind: ircchat.RunImage}},
	}
	assert.Equal(t, "12:30:05 #dallas  Mod  Ronni: hello Kappa", render("dallas", m))

	m.Kind = ircchat.KindAction
	assert.Equal(t, "12:30:05 #dallas  Mod  * Ronni hello Kappa", render("dallas", m))

	n := &ircchat.ChatMessage{Timestamp: ts, Kind: ircchat.KindAnnouncement, Runs: []ircchat.TextRun{{Text: "slow mode"}}}
	assert.Equal(t, "12:30:05 #dallas slow mode", render("dallas", n))
}

func TestNameColor(t *testing.T) {
	assert.Equal(t, lipgloss.Color("#123456"), nameColor("x", "#123456"))
	assert.Equal(t, nameColor("ronni", ""), nameColor("ronni", ""), "fallback color is stable")
}
