package ircchat

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/Travis-Britz/ircchat/viewers"
	"github.com/rs/zerolog"
)

// TwitchServiceID is the registry id of the built-in service.
const TwitchServiceID = "irc_twitch"

// ChatChannel is the channel binding a ChatService hands out.
type ChatChannel interface {
	Name() string
	State() BindingState
	Join()
	Leave()
	SendMessage(text string) error
	SendRuns(runs []TextRun) error
	RequestViewerList(done func(ok bool, list *viewers.List))

	OnJoin(func()) func()
	OnLeave(func(LeaveReason)) func()
	OnMessage(func(*ChatMessage)) func()
	OnChatterJoin(func(nick string)) func()
	OnChatterLeave(func(nick string)) func()
	OnNotice(func(*ChatMessage)) func()
	OnMessagesDeleted(func(ids []string)) func()
}

// ChatService is a chat network that hands out channel bindings.
type ChatService interface {
	io.Closer
	SetDefaultServer(host string, port int)
	SetDefaultAuthentication(name, token string)
	ConnectChannel(name string) ChatChannel
	StatusCatalog() *StatusCatalog
}

// Constructor creates a ChatService.
type Constructor func(cfg Config, logger zerolog.Logger) (ChatService, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Constructor)
)

// Register makes a service available under id, replacing any earlier registration.
func Register(id string, c Constructor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[id] = c
}

// RegisterBuiltins registers the services this package implements.
func RegisterBuiltins() {
	Register(TwitchServiceID, func(cfg Config, logger zerolog.Logger) (ChatService, error) {
		return NewService(cfg, logger)
	})
}

// Registered returns the registered ids, sorted.
func Registered() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	ids := make([]string, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Create returns a new instance of the service registered under id.
func Create(id string, cfg Config, logger zerolog.Logger) (ChatService, error) {
	registryMu.RLock()
	c, ok := registry[id]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("chat service %q is not registered", id)
	}
	return c(cfg, logger)
}
