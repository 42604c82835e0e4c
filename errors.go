package ircchat

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSessionClosed is returned when registering a listener on a session that has been released.
	ErrSessionClosed = errors.New("session closed")

	// ErrNoServers is returned by discovery when no usable server address was found.
	ErrNoServers = errors.New("no chat servers available")

	// errServerReconnect is the disconnect cause when the server asked us to reconnect.
	errServerReconnect = errors.New("server requested reconnect")
)

// ConnectionError is returned when none of the candidate destinations could be dialed.
// Err joins the per-candidate errors.
type ConnectionError struct {
	Destinations []Destination
	Err          error
}

func (e *ConnectionError) Error() string {
	names := make([]string, len(e.Destinations))
	for i, d := range e.Destinations {
		names[i] = d.String()
	}
	return fmt.Sprintf("connect to [%s]: %v", strings.Join(names, " "), e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}
