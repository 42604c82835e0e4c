package ircchat

import (
	"fmt"
	"time"
)

// Transport selects how connections to chat servers are dialed.
type Transport string

const (
	TransportTCP       Transport = "tcp"
	TransportTLS       Transport = "tls"
	TransportWebSocket Transport = "websocket"
)

// Default endpoints.
const (
	DefaultDiscoveryURL  = "https://tmi.twitch.tv/servers?channel=:channel"
	DefaultEmoteURL      = "http://static-cdn.jtvnw.net/emoticons/v1/:emote_id/1.0"
	DefaultViewerListURL = "https://tmi.twitch.tv/group/user/:channel/chatters"
	DefaultServer        = "irc.chat.twitch.tv:6667"
)

// Config holds service configuration values.
type Config struct {
	// Servers is a static list of "host:port" candidates. When empty, DiscoveryURL is queried.
	Servers      []string  `mapstructure:"servers" yaml:"servers"`
	DiscoveryURL string    `mapstructure:"discovery_url" yaml:"discovery_url"`
	Transport    Transport `mapstructure:"transport" yaml:"transport"`

	Nickname string `mapstructure:"nickname" yaml:"nickname"`
	Token    string `mapstructure:"token" yaml:"token"`

	ReconnectMin  time.Duration `mapstructure:"reconnect_min" yaml:"reconnect_min"`
	ReconnectMax  time.Duration `mapstructure:"reconnect_max" yaml:"reconnect_max"`
	AutoReconnect bool          `mapstructure:"auto_reconnect" yaml:"auto_reconnect"`

	// Workers bounds the number of join, leave and reconnect tasks running at once.
	Workers int `mapstructure:"workers" yaml:"workers"`

	// SendRate is the number of chat messages per second a session may send, SendBurst the bucket size.
	SendRate  float64 `mapstructure:"send_rate" yaml:"send_rate"`
	SendBurst int     `mapstructure:"send_burst" yaml:"send_burst"`

	EmoteURL      string `mapstructure:"emote_url" yaml:"emote_url"`
	ViewerListURL string `mapstructure:"viewer_list_url" yaml:"viewer_list_url"`

	LogLevel    string `mapstructure:"log_level" yaml:"log_level"`
	ArchivePath string `mapstructure:"archive_path" yaml:"archive_path"`
}

// DefaultConfig returns configuration with reasonable starter defaults.
// Anonymous read-only access uses a "justinfan" nickname, which the server accepts with any token.
func DefaultConfig() Config {
	return Config{
		Servers:       []string{DefaultServer},
		DiscoveryURL:  DefaultDiscoveryURL,
		Transport:     TransportTCP,
		Nickname:      "justinfan12345",
		Token:         "anonymous",
		ReconnectMin:  500 * time.Millisecond,
		ReconnectMax:  5 * time.Second,
		AutoReconnect: true,
		Workers:       8,
		SendRate:      20.0 / 30.0,
		SendBurst:     20,
		EmoteURL:      DefaultEmoteURL,
		ViewerListURL: DefaultViewerListURL,
		LogLevel:      "info",
		ArchivePath:   "ircchat.db",
	}
}

// Validate reports the first invalid value.
func (c Config) Validate() error {
	switch c.Transport {
	case TransportTCP, TransportTLS, TransportWebSocket, "":
	default:
		return fmt.Errorf("config: unknown transport %q", c.Transport)
	}
	if c.ReconnectMin <= 0 {
		return fmt.Errorf("config: reconnect_min must be positive, got %s", c.ReconnectMin)
	}
	if c.ReconnectMax < c.ReconnectMin {
		return fmt.Errorf("config: reconnect_max (%s) is less than reconnect_min (%s)", c.ReconnectMax, c.ReconnectMin)
	}
	if c.Workers < 1 {
		return fmt.Errorf("config: workers must be at least 1, got %d", c.Workers)
	}
	if len(c.Servers) == 0 && c.DiscoveryURL == "" {
		return fmt.Errorf("config: either servers or discovery_url is required")
	}
	return nil
}

// Identity returns the credentials sessions authenticate with.
func (c Config) Identity() Identity {
	return Identity{Nickname: c.Nickname, Token: c.Token}
}
