/*
Package ircdebug contains helper functions that are useful while writing a chat client.
*/
package ircdebug

import (
	"bytes"
	"io"
	"sync"

	"github.com/rs/zerolog"
)

// WriteTo returns a new io.ReadWriteCloser that logs every line read from or written to rwc
// at trace level, with dir set to "in" or "out".
// Lines are logged whole even when a read or write splits them.
// It is safe for concurrent use by one reader and any number of writers.
func WriteTo(logger zerolog.Logger, rwc io.ReadWriteCloser) io.ReadWriteCloser {
	return &debugConn{
		ReadWriteCloser: rwc,
		in:              &lineLogger{logger: logger, dir: "in"},
		out:             &lineLogger{logger: logger, dir: "out"},
	}
}

type debugConn struct {
	io.ReadWriteCloser
	in  *lineLogger
	out *lineLogger
}

func (dc *debugConn) Read(p []byte) (int, error) {
	n, err := dc.ReadWriteCloser.Read(p)
	if n > 0 {
		dc.in.write(p[:n])
	}
	return n, err
}

func (dc *debugConn) Write(p []byte) (int, error) {
	n, err := dc.ReadWriteCloser.Write(p)
	if n > 0 {
		dc.out.write(p[:n])
	}
	return n, err
}

// lineLogger buffers partial lines and logs each complete one.
type lineLogger struct {
	mu     sync.Mutex
	logger zerolog.Logger
	dir    string
	buf    []byte
}

func (ll *lineLogger) write(p []byte) {
	ll.mu.Lock()
	defer ll.mu.Unlock()
	ll.buf = append(ll.buf, p...)
	for {
		i := bytes.IndexByte(ll.buf, '\n')
		if i < 0 {
			return
		}
		line := bytes.TrimRight(ll.buf[:i], "\r")
		ll.logger.Trace().Str("dir", ll.dir).Bytes("line", line).Msg("wire")
		ll.buf = ll.buf[i+1:]
	}
}
