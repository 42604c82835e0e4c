// Package irctest provides an in-memory chat server for tests.
package irctest

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// NewServer creates a new mock chat server that implements io.ReadWriteCloser.
// The client side of a connection reads what the server sends with WriteString,
// and every line the client writes is recorded and passed to Handler.
// Don't forget to close.
func NewServer() *Server {
	s := &Server{
		lines:  make(chan string, 1024),
		inbox:  make(chan string, 1024),
		closed: make(chan struct{}),
	}
	s.sendReader, s.sendWriter = io.Pipe()

	// exits when Close() is called
	go s.serve()
	return s
}

// Server is one mock connection.
type Server struct {
	// Handler, if set, is called for every line written by the client, in order,
	// on a goroutine owned by the server. It may call WriteString.
	Handler func(s *Server, line string)

	mu       sync.Mutex
	partial  []byte
	received []string
	isClosed bool

	lines  chan string // lines for Next
	inbox  chan string // lines for Handler
	closed chan struct{}

	sendReader *io.PipeReader
	sendWriter *io.PipeWriter
}

// Read is how the client reads lines from the server
func (s *Server) Read(p []byte) (int, error) {
	return s.sendReader.Read(p)
}

// Write is how a client sends lines to the server.
// Lines are split on CRLF; a trailing partial line is kept until it is completed.
func (s *Server) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isClosed {
		return 0, io.ErrClosedPipe
	}

	s.partial = append(s.partial, p...)
	for {
		i := bytes.Index(s.partial, []byte("\r\n"))
		if i < 0 {
			break
		}
		line := string(s.partial[:i])
		s.partial = s.partial[i+2:]
		s.received = append(s.received, line)
		select {
		case s.lines <- line:
		default:
			log.Warn().Str("line", line).Msg("mock server: Next buffer full")
		}
		select {
		case s.inbox <- line:
		default:
			log.Warn().Str("line", line).Msg("mock server: handler buffer full")
		}
	}
	return len(p), nil
}

// Close disconnects the client. It is safe to call more than once.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isClosed {
		return nil
	}
	s.isClosed = true
	close(s.closed)
	_ = s.sendWriter.Close()
	_ = s.sendReader.Close()
	return nil
}

// Closed is closed once the connection has been closed by either side.
func (s *Server) Closed() <-chan struct{} {
	return s.closed
}

// WriteString sends a line to the client. The CRLF terminator is added when missing.
func (s *Server) WriteString(str string) {
	if !strings.HasSuffix(str, "\r\n") {
		str = str + "\r\n"
	}
	if _, err := s.sendWriter.Write([]byte(str)); err != nil && !errors.Is(err, io.ErrClosedPipe) {
		log.Warn().Err(err).Msg("mock server write error")
	}
}

// Next returns the next line written by the client, waiting up to timeout.
func (s *Server) Next(timeout time.Duration) (string, bool) {
	select {
	case l := <-s.lines:
		return l, true
	case <-time.After(timeout):
		return "", false
	}
}

// Expect discards client lines until one starts with prefix, waiting up to timeout in total.
func (s *Server) Expect(prefix string, timeout time.Duration) (string, bool) {
	deadline := time.After(timeout)
	for {
		select {
		case l := <-s.lines:
			if strings.HasPrefix(l, prefix) {
				return l, true
			}
		case <-deadline:
			return "", false
		}
	}
}

// Received returns every line the client has written so far.
func (s *Server) Received() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.received))
	copy(out, s.received)
	return out
}

func (s *Server) serve() {
	for {
		select {
		case <-s.closed:
			return
		case line := <-s.inbox:
			if s.Handler != nil {
				s.Handler(s, line)
			}
		}
	}
}

// EchoJoins is a Handler that acknowledges JOIN and PART the way chat servers do,
// by echoing them back with nick as the source.
func EchoJoins(nick string) func(*Server, string) {
	return func(s *Server, line string) {
		switch {
		case strings.HasPrefix(line, "JOIN "), strings.HasPrefix(line, "PART "):
			s.WriteString(":" + nick + "!" + nick + "@" + nick + ".tmi.twitch.tv " + line)
		}
	}
}
