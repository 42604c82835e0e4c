package ircchat

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// A Service creates channel and whisper bindings that share a pool of sessions.
//
// Create one with NewService, or with Create after RegisterBuiltins.
type Service struct {
	cfg     Config
	log     zerolog.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	pool    *Pool
	workers *Workers
	builder *Builder
	http    *http.Client
	disc    *discovery

	dial       DialFunc
	afterFunc  afterFunc
	resolveSet bool

	mu       sync.Mutex
	id       Identity
	bindings map[*binding]struct{}
	closed   bool
}

// An Option configures a Service.
type Option func(*Service)

// WithDialer replaces the dialer selected by Config.Transport.
// Hostnames are then passed to d unresolved, unless WithResolver is given too.
func WithDialer(d DialFunc) Option {
	return func(s *Service) { s.dial = d }
}

// WithHTTPClient sets the client used for discovery and viewer lists.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Service) { s.http = c }
}

// WithResolver sets how discovered hostnames are expanded into addresses.
// A nil resolve keeps hostnames as they are.
func WithResolver(resolve func(ctx context.Context, host string) ([]string, error)) Option {
	return func(s *Service) {
		s.disc.resolve = resolve
		s.resolveSet = true
	}
}

// withAfterFunc replaces the timer used to schedule reconnects.
func withAfterFunc(f afterFunc) Option {
	return func(s *Service) { s.afterFunc = f }
}

// NewService validates cfg and returns a service ready to hand out bindings.
// No connection is made until a binding joins.
func NewService(cfg Config, logger zerolog.Logger, opts ...Option) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	dial, err := Dialer(cfg.Transport)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Service{
		cfg:      cfg,
		log:      logger,
		ctx:      ctx,
		cancel:   cancel,
		http:     &http.Client{Timeout: 10 * time.Second},
		id:       cfg.Identity(),
		bindings: make(map[*binding]struct{}),
		disc: &discovery{
			servers: cfg.Servers,
			url:     cfg.DiscoveryURL,
			log:     logger,
		},
	}
	for _, o := range opts {
		o(s)
	}

	custom := s.dial != nil
	if !custom {
		s.dial = dial
	}
	s.disc.client = s.http
	// Addresses are only pooled by IP for plain TCP; TLS and websocket
	// connections need the hostname to verify the server.
	if !s.resolveSet && !custom && (cfg.Transport == TransportTCP || cfg.Transport == "") {
		s.disc.resolve = net.DefaultResolver.LookupHost
	}

	s.workers = NewWorkers(cfg.Workers)
	s.pool = NewPool(PoolConfig{
		Dial:          s.dial,
		Logger:        logger,
		ReconnectMin:  cfg.ReconnectMin,
		ReconnectMax:  cfg.ReconnectMax,
		AutoReconnect: cfg.AutoReconnect,
		SendRate:      cfg.SendRate,
		SendBurst:     cfg.SendBurst,
		Workers:       s.workers,
		afterFunc:     s.afterFunc,
	})
	s.builder = &Builder{Catalog: DefaultStatusCatalog(), EmoteURL: cfg.EmoteURL}
	return s, nil
}

// Channel returns a new, idle binding for the named channel.
// The name may be given with or without the leading '#'.
func (s *Service) Channel(name string) *Channel {
	c := newChannel(s, name)
	s.track(&c.binding)
	return c
}

// ConnectChannel is Channel for callers holding a ChatService.
func (s *Service) ConnectChannel(name string) ChatChannel {
	return s.Channel(name)
}

// Whispers returns a new, idle binding for private messages.
func (s *Service) Whispers() *Whispers {
	w := newWhispers(s)
	s.track(&w.binding)
	return w
}

func (s *Service) track(b *binding) {
	s.mu.Lock()
	closed := s.closed
	if !closed {
		s.bindings[b] = struct{}{}
	}
	s.mu.Unlock()
	if closed {
		// a binding of a closed service fails its join
		b.fail(b.gen, ErrSessionClosed)
		return
	}
	b.OnLeave(func(LeaveReason) {
		s.mu.Lock()
		delete(s.bindings, b)
		s.mu.Unlock()
	})
}

// SetDefaultAuthentication sets the identity used by sessions that authenticate from now on.
// A token without the "oauth:" prefix gets it added.
func (s *Service) SetDefaultAuthentication(name, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = Identity{Nickname: name, Token: NormalizeToken(token)}
}

// SetDefaultServer makes host:port the only server candidate, skipping discovery.
func (s *Service) SetDefaultServer(host string, port int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disc.servers = []string{net.JoinHostPort(host, strconv.Itoa(port))}
}

// StatusCatalog lists the statuses messages from this service can carry.
func (s *Service) StatusCatalog() *StatusCatalog {
	return s.builder.Catalog
}

// Announcement builds a message for local display in channel, styled like a server notice.
func (s *Service) Announcement(channel, text string) *ChatMessage {
	return s.builder.Notice(channel, text)
}

// Pool returns the service's session pool.
func (s *Service) Pool() *Pool {
	return s.pool
}

func (s *Service) identity() Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

func (s *Service) discover(ctx context.Context, channel string) ([]Destination, error) {
	s.mu.Lock()
	d := *s.disc
	s.mu.Unlock()
	return d.destinations(ctx, channel)
}

// Close leaves every binding, waits for the queued leaves, and releases all sessions.
func (s *Service) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	bindings := make([]*binding, 0, len(s.bindings))
	for b := range s.bindings {
		bindings = append(bindings, b)
	}
	s.mu.Unlock()

	s.cancel()
	for _, b := range bindings {
		b.Leave()
	}
	s.workers.Wait()
	s.pool.Close()
	s.workers.Close()
	s.log.Debug().Msg("service closed")
	return nil
}
