package ircdebug

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	io.Reader
	bytes.Buffer
}

func (f *fakeConn) Read(p []byte) (int, error)  { return f.Reader.Read(p) }
func (f *fakeConn) Write(p []byte) (int, error) { return f.Buffer.Write(p) }
func (f *fakeConn) Close() error                { return nil }

func TestWriteTo(t *testing.T) {
	var logs bytes.Buffer
	logger := zerolog.New(&logs).Level(zerolog.TraceLevel)

	fc := &fakeConn{Reader: strings.NewReader("PING :tmi.twitch.tv\r\n")}
	conn := WriteTo(logger, fc)

	_, err := conn.Write([]byte("PONG :tmi"))
	require.NoError(t, err)
	_, err = conn.Write([]byte(".twitch.tv\r\n"))
	require.NoError(t, err)
	_, err = io.ReadAll(conn)
	require.NoError(t, err)

	assert.Equal(t, "PONG :tmi.twitch.tv\r\n", fc.Buffer.String())

	out := logs.String()
	assert.Contains(t, out, `"dir":"out","line":"PONG :tmi.twitch.tv"`)
	assert.Contains(t, out, `"dir":"in","line":"PING :tmi.twitch.tv"`)
	assert.Equal(t, 2, strings.Count(out, "\n"), "one log entry per complete line")
}
