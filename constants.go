package ircchat

// commands which may be sent or received by a client.
const (
	CmdCap     Command = "CAP"     // IRCv3 Capability negotiation.
	CmdError   Command = "ERROR"   // Report a serious or fatal error to a peer.
	CmdJoin    Command = "JOIN"    // Join a channel.
	CmdNick    Command = "NICK"    // ":<newnick>" Define a nickname.
	CmdNotice  Command = "NOTICE"  // Send a notice message to specific users or channels.
	CmdPart    Command = "PART"    // Leave a channel.
	CmdPass    Command = "PASS"    // Set a connection password.
	CmdPing    Command = "PING"    // Test for the presence of an active client or server.
	CmdPong    Command = "PONG"    // Reply to a PING message.
	CmdPrivmsg Command = "PRIVMSG" // Send private messages between users, as well as to send messages to channels.
	CmdQuit    Command = "QUIT"    // Terminate the client session.
	CmdMode    Command = "MODE"    // Channel or user mode.
)

// Twitch extensions to the command set.
// https://dev.twitch.tv/docs/irc/commands
const (
	CmdClearChat       Command = "CLEARCHAT"       // A user's messages were purged, or the whole chat was cleared.
	CmdClearMsg        Command = "CLEARMSG"        // A single message was deleted.
	CmdGlobalUserState Command = "GLOBALUSERSTATE" // Sent after a successful login.
	CmdHostTarget      Command = "HOSTTARGET"      // The channel started or stopped hosting another channel.
	CmdReconnect       Command = "RECONNECT"       // The server is about to restart; the client should reconnect.
	CmdRoomState       Command = "ROOMSTATE"       // Chat room settings changed.
	CmdUserNotice      Command = "USERNOTICE"      // Subscriptions, raids, and other announcements.
	CmdUserState       Command = "USERSTATE"       // Our own state in a channel after JOIN or PRIVMSG.
	CmdWhisper         Command = "WHISPER"         // A private message from another user.
)

// connection reply codes.
const (
	RplWelcome    Command = "001" // "Welcome, GLHF!"
	RplYourHost   Command = "002" // "Your host is tmi.twitch.tv"
	RplCreated    Command = "003" // "This server is rather new"
	RplMyInfo     Command = "004" // "-"
	RplMOTD       Command = "372" // "You are in a maze of twisty passages, all alike."
	RplMOTDStart  Command = "375" // "-"
	RplEndOfMOTD  Command = "376" // ">"
	RplNamReply   Command = "353" // "<client> = <channel> :<nick> *( " " <nick> )"
	RplEndOfNames Command = "366" // "<client> <channel> :End of /NAMES list"

	RplErrUnknownCommand Command = "421" // "<command> :Unknown command"
)

// Capabilities requested during authentication.
const (
	CapTags       = "twitch.tv/tags"
	CapCommands   = "twitch.tv/commands"
	CapMembership = "twitch.tv/membership"
)

// Channel names are prefixed with '#'. The wildcard target '*' matches every channel binding.
const (
	chanPrefix     = '#'
	targetWildcard = "*"
)

// whisperTarget is the pseudo-channel through which whispers are sent.
const whisperTarget = "#jtv"

// oauthPrefix is prepended to tokens that do not already carry it.
const oauthPrefix = "oauth:"
