package ircchat

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

const channelToken = ":channel"

// discovery finds the chat servers for a channel.
type discovery struct {
	servers []string
	url     string
	client  *http.Client
	log     zerolog.Logger

	// resolve expands hostnames into their addresses. nil keeps hostnames as they are.
	resolve func(ctx context.Context, host string) ([]string, error)
}

// serverList is the body of the discovery endpoint.
// Group chat (whispers) uses Servers, channels use ChatServers.
type serverList struct {
	Servers     []string `json:"servers"`
	ChatServers []string `json:"chat_servers"`
}

// destinations returns the candidate destinations for channel, in preference order.
// An empty channel asks for the servers that carry whispers.
func (d *discovery) destinations(ctx context.Context, channel string) ([]Destination, error) {
	entries := d.servers
	if len(entries) == 0 {
		var err error
		if entries, err = d.fetch(ctx, channel); err != nil {
			return nil, err
		}
	}
	dests := ParseDestinations(ctx, entries, d.resolve)
	if len(dests) == 0 {
		return nil, ErrNoServers
	}
	return dests, nil
}

func (d *discovery) fetch(ctx context.Context, channel string) ([]string, error) {
	url := strings.ReplaceAll(d.url, channelToken, channel)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("discovery: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("discovery: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			d.log.Warn().Err(err).Msg("failed to close response body")
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("discovery: %s: unexpected status %s", url, resp.Status)
	}

	var body serverList
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("discovery: decode: %w", err)
	}
	if channel == "" {
		return body.Servers, nil
	}
	return body.ChatServers, nil
}

// ParseDestinations turns "host:port" entries into destinations.
// The port follows the last ':' of an entry. Entries with a bad port or an
// unresolvable host are skipped. When resolve is not nil, IP literals are used
// as they are and hostnames are expanded into one destination per address.
func ParseDestinations(ctx context.Context, entries []string, resolve func(ctx context.Context, host string) ([]string, error)) []Destination {
	var dests []Destination
	for _, e := range entries {
		i := strings.LastIndexByte(e, ':')
		if i <= 0 {
			continue
		}
		host := strings.Trim(e[:i], "[]")
		port, err := strconv.Atoi(e[i+1:])
		if err != nil || port < 1 || port > 65535 || host == "" {
			continue
		}
		if resolve == nil || net.ParseIP(host) != nil {
			dests = append(dests, Destination{Host: host, Port: port})
			continue
		}
		addrs, err := resolve(ctx, host)
		if err != nil {
			continue
		}
		for _, a := range addrs {
			dests = append(dests, Destination{Host: a, Port: port})
		}
	}
	return dests
}
