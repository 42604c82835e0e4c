package irctest

import (
	"bufio"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerLines(t *testing.T) {
	s := NewServer()
	defer s.Close()

	_, err := s.Write([]byte("NICK bot\r\nJOIN #al"))
	require.NoError(t, err)
	_, err = s.Write([]byte("pha\r\n"))
	require.NoError(t, err)

	l, ok := s.Next(time.Second)
	require.True(t, ok)
	assert.Equal(t, "NICK bot", l)
	l, ok = s.Expect("JOIN", time.Second)
	require.True(t, ok)
	assert.Equal(t, "JOIN #alpha", l)
	_, ok = s.Next(10 * time.Millisecond)
	assert.False(t, ok)
	assert.Equal(t, []string{"NICK bot", "JOIN #alpha"}, s.Received())
}

func TestServerEchoJoins(t *testing.T) {
	s := NewServer()
	defer s.Close()
	s.Handler = EchoJoins("bot")

	r := bufio.NewReader(s)
	_, err := s.Write([]byte("PASS oauth:x\r\nJOIN #alpha\r\nPART #alpha\r\n"))
	require.NoError(t, err)

	line, err := r.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, ":bot!bot@bot.tmi.twitch.tv JOIN #alpha\r\n", line)
	line, err = r.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, ":bot!bot@bot.tmi.twitch.tv PART #alpha\r\n", line)
}

func TestServerClose(t *testing.T) {
	s := NewServer()
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	select {
	case <-s.Closed():
	default:
		t.Fatal("Closed not signalled")
	}
	_, err := s.Write([]byte("NICK bot\r\n"))
	assert.ErrorIs(t, err, io.ErrClosedPipe)
	_, err = s.Read(make([]byte, 8))
	assert.Error(t, err)
}
