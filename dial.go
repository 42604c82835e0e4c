package ircchat

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"strconv"

	"github.com/coder/websocket"
)

// Destination is the address of a chat server. It is the key sessions are pooled by.
type Destination struct {
	Host string
	Port int
}

// String returns "host:port".
func (d Destination) String() string {
	return net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
}

// DialFunc opens a connection to dest.
//
// The returned connection can be any io.ReadWriteCloser: tcp, tls, websocket, a server mock, etc.
// The only requirement is that the stream consists of CRLF-delimited lines.
type DialFunc func(ctx context.Context, dest Destination) (io.ReadWriteCloser, error)

// Dialer returns the DialFunc for transport t.
func Dialer(t Transport) (DialFunc, error) {
	switch t {
	case TransportTCP, "":
		return dialTCP, nil
	case TransportTLS:
		return dialTLS, nil
	case TransportWebSocket:
		return dialWebSocket, nil
	default:
		return nil, fmt.Errorf("dial: unknown transport %q", t)
	}
}

func dialTCP(ctx context.Context, dest Destination) (io.ReadWriteCloser, error) {
	var d net.Dialer
	return d.DialContext(ctx, "tcp", dest.String())
}

func dialTLS(ctx context.Context, dest Destination) (io.ReadWriteCloser, error) {
	d := tls.Dialer{Config: &tls.Config{ServerName: dest.Host, MinVersion: tls.VersionTLS12}}
	return d.DialContext(ctx, "tcp", dest.String())
}

// dialWebSocket connects to the chat server's websocket endpoint.
// Each line is sent as one text message; received messages may hold several lines,
// which the session's line scanner splits.
func dialWebSocket(ctx context.Context, dest Destination) (io.ReadWriteCloser, error) {
	scheme := "wss"
	if dest.Port == 80 {
		scheme = "ws"
	}
	conn, _, err := websocket.Dial(ctx, scheme+"://"+dest.String(), nil)
	if err != nil {
		return nil, err
	}
	conn.SetReadLimit(1 << 16)

	// The dial context may carry a short deadline; the connection must outlive it.
	return websocket.NetConn(context.Background(), conn, websocket.MessageText), nil
}
