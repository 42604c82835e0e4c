// Package viewers fetches the list of chatters present in a channel.
package viewers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Group names, in the order Groups returns them.
const (
	GroupViewers    = "viewers"
	GroupModerators = "moderators"
	GroupGlobalMods = "global_mods"
	GroupAdmins     = "admins"
	GroupStaff      = "staff"
)

var groups = []string{GroupViewers, GroupModerators, GroupGlobalMods, GroupAdmins, GroupStaff}

// List is a snapshot of the chatters in a channel, by group.
type List struct {
	Count    int      `json:"chatter_count"`
	Chatters chatters `json:"chatters"`
}

type chatters struct {
	Moderators []string `json:"moderators"`
	Staff      []string `json:"staff"`
	Admins     []string `json:"admins"`
	GlobalMods []string `json:"global_mods"`
	Viewers    []string `json:"viewers"`
}

// Total returns the chatter count reported by the server.
func (l *List) Total() int { return l.Count }

// Groups returns the names of the chatter groups.
func (l *List) Groups() []string {
	out := make([]string, len(groups))
	copy(out, groups)
	return out
}

// Viewers returns the names in group, or nil for an unknown group.
func (l *List) Viewers(group string) []string {
	switch group {
	case GroupViewers:
		return l.Chatters.Viewers
	case GroupModerators:
		return l.Chatters.Moderators
	case GroupGlobalMods:
		return l.Chatters.GlobalMods
	case GroupAdmins:
		return l.Chatters.Admins
	case GroupStaff:
		return l.Chatters.Staff
	default:
		return nil
	}
}

// All returns the names of every group, in group order.
func (l *List) All() []string {
	all := make([]string, 0, l.Count)
	for _, g := range groups {
		all = append(all, l.Viewers(g)...)
	}
	return all
}

// Fetch requests the viewer list of channel. url holds ":channel" where the
// channel name goes. A nil client uses http.DefaultClient.
func Fetch(ctx context.Context, client *http.Client, url, channel string) (*List, error) {
	if channel == "" {
		return nil, fmt.Errorf("viewers: channel empty")
	}
	if client == nil {
		client = http.DefaultClient
	}
	url = strings.ReplaceAll(url, ":channel", channel)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("viewers: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("viewers: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("viewers: %s: unexpected status %s", url, resp.Status)
	}

	var l List
	if err := json.NewDecoder(resp.Body).Decode(&l); err != nil {
		return nil, fmt.Errorf("viewers: decode: %w", err)
	}
	return &l, nil
}
