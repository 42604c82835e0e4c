package ircchat

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDestinations(t *testing.T) {
	entries := []string{
		"irc.chat.twitch.tv:6667",
		"199.9.253.199:443",
		"[2001:db8::1]:6697",
		"no-port",
		":6667",
		"irc.test:http",
		"irc.test:0",
		"irc.test:70000",
	}
	got := ParseDestinations(context.Background(), entries, nil)
	assert.Equal(t, []Destination{
		{Host: "irc.chat.twitch.tv", Port: 6667},
		{Host: "199.9.253.199", Port: 443},
		{Host: "2001:db8::1", Port: 6697},
	}, got)
}

func TestParseDestinationsResolve(t *testing.T) {
	resolve := func(ctx context.Context, host string) ([]string, error) {
		switch host {
		case "irc.test":
			return []string{"10.0.0.1", "10.0.0.2"}, nil
		default:
			return nil, errors.New("no such host")
		}
	}
	got := ParseDestinations(context.Background(), []string{"irc.test:6667", "gone.test:6667", "10.0.0.9:80"}, resolve)
	assert.Equal(t, []Destination{
		{Host: "10.0.0.1", Port: 6667},
		{Host: "10.0.0.2", Port: 6667},
		{Host: "10.0.0.9", Port: 80},
	}, got)
}

func TestDiscoveryFetch(t *testing.T) {
	var mu sync.Mutex
	var channels []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		channels = append(channels, r.URL.Query().Get("channel"))
		mu.Unlock()
		_, _ = w.Write([]byte(`{"cluster":"main","servers":["10.0.0.1:80"],"chat_servers":["10.0.0.2:6667","10.0.0.3:6667"]}`))
	}))
	defer ts.Close()

	d := &discovery{url: ts.URL + "/servers?channel=:channel", client: ts.Client(), log: zerolog.Nop()}

	dests, err := d.destinations(context.Background(), "alpha")
	require.NoError(t, err)
	assert.Equal(t, []Destination{{"10.0.0.2", 6667}, {"10.0.0.3", 6667}}, dests)

	dests, err = d.destinations(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []Destination{{"10.0.0.1", 80}}, dests)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"alpha", ""}, channels)
}

func TestDiscoveryStaticServers(t *testing.T) {
	d := &discovery{servers: []string{"irc.test:6667"}, url: "http://127.0.0.1:1/unused", log: zerolog.Nop()}
	dests, err := d.destinations(context.Background(), "alpha")
	require.NoError(t, err)
	assert.Equal(t, []Destination{{"irc.test", 6667}}, dests)
}

func TestDiscoveryErrors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("channel") {
		case "down":
			w.WriteHeader(http.StatusInternalServerError)
		case "garbled":
			_, _ = w.Write([]byte("not json"))
		default:
			_, _ = w.Write([]byte(`{"chat_servers":["bad"]}`))
		}
	}))
	defer ts.Close()
	d := &discovery{url: ts.URL + "/servers?channel=:channel", client: ts.Client(), log: zerolog.Nop()}

	_, err := d.destinations(context.Background(), "down")
	assert.ErrorContains(t, err, "unexpected status")

	_, err = d.destinations(context.Background(), "garbled")
	assert.ErrorContains(t, err, "decode")

	_, err = d.destinations(context.Background(), "alpha")
	assert.ErrorIs(t, err, ErrNoServers)
}
