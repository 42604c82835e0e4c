package ircchat

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		raw  string
		want Line
	}{
		{"PING :tmi.twitch.tv", Line{Command: CmdPing, Text: "tmi.twitch.tv", Trailing: true}},
		{"PING", Line{Command: CmdPing}},
		{":tmi.twitch.tv 001 justinfan1 :Welcome, GLHF!", Line{Source: "tmi.twitch.tv", Command: RplWelcome, Params: "justinfan1", Text: "Welcome, GLHF!", Trailing: true}},
		{":bob!bob@bob.tmi.twitch.tv JOIN #dallas", Line{Source: "bob!bob@bob.tmi.twitch.tv", Command: CmdJoin, Params: "#dallas"}},
		{":bob!bob@bob.tmi.twitch.tv JOIN #dallas ", Line{Source: "bob!bob@bob.tmi.twitch.tv", Command: CmdJoin, Params: "#dallas "}},
		{"@color=#0D4200;display-name=Ronni :ronni!ronni@ronni.tmi.twitch.tv PRIVMSG #dallas :Kappa Keepo Kappa", Line{
			Tags:     "color=#0D4200;display-name=Ronni",
			Source:   "ronni!ronni@ronni.tmi.twitch.tv",
			Command:  CmdPrivmsg,
			Params:   "#dallas",
			Text:     "Kappa Keepo Kappa",
			Trailing: true,
		}},
		{"@a=b PRIVMSG #c :x", Line{Tags: "a=b", Command: CmdPrivmsg, Params: "#c", Text: "x", Trailing: true}},
		{"PRIVMSG #c :", Line{Command: CmdPrivmsg, Params: "#c", Trailing: true}},
		{"PRIVMSG #c ::", Line{Command: CmdPrivmsg, Params: "#c", Text: ":", Trailing: true}},
		{"PRIVMSG #c   :spaced", Line{Command: CmdPrivmsg, Params: "#c", Text: "spaced", Trailing: true}},
		{"PRIVMSG #c :a : b :c ", Line{Command: CmdPrivmsg, Params: "#c", Text: "a : b :c ", Trailing: true}},
		{"CAP * ACK :twitch.tv/tags twitch.tv/commands", Line{Command: CmdCap, Params: "* ACK", Text: "twitch.tv/tags twitch.tv/commands", Trailing: true}},
		{"RECONNECT", Line{Command: CmdReconnect}},
		{"PONG :", Line{Command: CmdPong, Trailing: true}},
		{"X :" + strings.Repeat("a", 600), Line{Command: "X", Text: strings.Repeat("a", 600), Trailing: true}},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := Parse(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestLineRoundTrip(t *testing.T) {
	lines := []string{
		"PING :tmi.twitch.tv",
		"PING",
		":tmi.twitch.tv 001 justinfan1 :Welcome, GLHF!",
		":bob!bob@bob.tmi.twitch.tv PART #dallas",
		"@badges=moderator/1;color=;display-name=Bob;emotes=25:0-4;mod=1 :bob!bob@bob.tmi.twitch.tv PRIVMSG #dallas :Kappa hello",
		"@ban-duration=600 :tmi.twitch.tv CLEARCHAT #dallas :ronni",
		"PRIVMSG #c :",
		"PRIVMSG #c ::-)",
		":tmi.twitch.tv CAP * ACK :twitch.tv/tags",
		"@msg-id=subs_on :tmi.twitch.tv NOTICE #dallas :This room is now in subscribers-only mode.",
	}
	for _, raw := range lines {
		l, err := Parse(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, raw, l.String())

		b, err := l.MarshalText()
		require.NoError(t, err)
		var again Line
		require.NoError(t, again.UnmarshalText(b))
		assert.Equal(t, *l, again)
	}
}

func TestParseErrors(t *testing.T) {
	var parseErrors = []string{
		"",
		" ",
		"@",
		"@;",
		"@=",
		"@ ",
		"@; ",
		"@badge-info=;badges=;color=#FF0000;display-name=bot;emote-sets=0,19650;user-type=",
		"@badge-info=;badges=;color=#FF0000;display-name=bot;emote-sets=0,19650;user-type= ",
		"@badge-info=;badges=;color=#FF0000;user-type= :tmi.twitch.tv",
		":tmi.twitch.tv",
		":tmi.twitch.tv ",
		":",
		":.",
		":. ",
		": ",
		":bob  PRIVMSG #c :double space",
	}
	for _, raw := range parseErrors {
		l, err := Parse(raw)
		var perr *ParseError
		if assert.Error(t, err, "raw line: %q, parsed: %#v", raw, l) {
			assert.True(t, errors.As(err, &perr))
			assert.Equal(t, raw, perr.Line)
		}
		assert.Nil(t, l)
	}
}

func TestTags(t *testing.T) {
	var tags = []struct {
		raw      string
		expected map[string]string
	}{
		{"", map[string]string{}},
		{";", map[string]string{}},
		{";;", map[string]string{}},
		{"k", map[string]string{"k": ""}},
		{"k=", map[string]string{"k": ""}},
		{"k=\\", map[string]string{"k": ""}},
		{"k;l", map[string]string{"k": "", "l": ""}},
		{"k;l=;", map[string]string{"k": "", "l": ""}},
		{"k=v", map[string]string{"k": "v"}},
		{"k=\\v;", map[string]string{"k": "v"}},
		{"k=\\s", map[string]string{"k": " "}},
		{"k=\\:", map[string]string{"k": ";"}},
		{"k=\\\\", map[string]string{"k": "\\"}},
		{"k=\\r\\n", map[string]string{"k": "\r\n"}},
		{"k=1;k=2", map[string]string{"k": "2"}},
		{"k=\\s\\:\\r\\n\\\\\\a\\b\\", map[string]string{"k": " ;\r\n\\ab"}},
		{"u==", map[string]string{"u": "="}},
		{"draft/bot=someFutureValueHere=2343", map[string]string{"draft/bot": "someFutureValueHere=2343"}},
		{"+twitch.tv/foo", map[string]string{"+twitch.tv/foo": ""}},
		{"emoji=🧔;empty;zero=0", map[string]string{"emoji": "🧔", "empty": "", "zero": "0"}},
	}
	for _, tt := range tags {
		l, err := Parse("@" + tt.raw + " PRIVMSG #c :hi")
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.expected, l.Tags.Map(), tt.raw)
		for k, v := range tt.expected {
			assert.True(t, l.Tags.Has(k))
			if k != "k" || tt.raw != "k=1;k=2" {
				assert.Equal(t, v, l.Tags.Get(k))
			}
		}
	}

	assert.False(t, Tags("a=1").Has("b"))
	assert.Equal(t, "1", Tags("k=1;k=2").Get("k"), "Get returns the first occurrence")
}

func TestBuildTags(t *testing.T) {
	tags := BuildTags(map[string]string{"b": "x y", "a": "1", "c": ""})
	assert.Equal(t, Tags("a=1;b=x\\sy;c"), tags)
	assert.Equal(t, "x y", tags.Get("b"))
}

func TestPrefixNick(t *testing.T) {
	assert.Equal(t, "ronni", Prefix("ronni!ronni@ronni.tmi.twitch.tv").Nick())
	assert.Equal(t, "tmi.twitch.tv", Prefix("tmi.twitch.tv").Nick())
	assert.True(t, Prefix("tmi.twitch.tv").IsServer())
	assert.False(t, Prefix("ronni!ronni@ronni.tmi.twitch.tv").IsServer())
	assert.Equal(t, "", Prefix("").Nick())
}

func TestLineParams(t *testing.T) {
	l, err := Parse(":tmi.twitch.tv 353 justinfan1 = #dallas :a b c")
	require.NoError(t, err)
	assert.Equal(t, "justinfan1", l.Param(1))
	assert.Equal(t, "#dallas", l.Param(3))
	assert.Equal(t, "", l.Param(4))
	assert.Equal(t, "", l.Param(0))
	assert.Equal(t, "justinfan1", l.Target())
	assert.Equal(t, "", l.Chan())

	l, err = Parse("PRIVMSG #dallas :hi")
	require.NoError(t, err)
	assert.Equal(t, "#dallas", l.Chan())
}

func TestCommandLines(t *testing.T) {
	tests := []struct {
		line *Line
		want string
	}{
		{Pass("abc"), "PASS oauth:abc"},
		{Pass("oauth:abc"), "PASS oauth:abc"},
		{Nick("justinfan1"), "NICK justinfan1"},
		{CapReq(CapTags, CapCommands, CapMembership), "CAP REQ :twitch.tv/tags twitch.tv/commands twitch.tv/membership"},
		{Join("#dallas"), "JOIN #dallas"},
		{Part("#dallas"), "PART #dallas"},
		{Msg("#dallas", "hello world"), "PRIVMSG #dallas :hello world"},
		{Msg("#dallas", "hi"), "PRIVMSG #dallas :hi"},
		{Describe("#dallas", "waves"), "PRIVMSG #dallas :\x01ACTION waves\x01"},
		{Whisper("ronni", "psst"), "PRIVMSG #jtv :/w ronni psst"},
		{Pong("tmi.twitch.tv"), "PONG :tmi.twitch.tv"},
		{NewLine("privmsg", "#c", ":)"), "PRIVMSG #c ::)"},
		{NewLine(CmdPart, "#c", ""), "PART #c :"},
		{NewLine(CmdPing), "PING"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.line.String())
	}
}

func TestChannelName(t *testing.T) {
	assert.Equal(t, "dallas", ChannelName(" #Dallas "))
	assert.Equal(t, "dallas", ChannelName("dallas"))
	assert.True(t, IsChannel("#x"))
	assert.False(t, IsChannel("x"))
	assert.False(t, IsChannel(""))
}
