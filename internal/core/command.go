package core

import "github.com/vovakirdan/wirechat-presence/internal/presence"

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandSendRoomMessage delivers a chat message to room participants.
	CommandSendRoomMessage CommandKind = iota
	// CommandJoinRoom subscribes the connection to a room.
	CommandJoinRoom
	// CommandLeaveRoom unsubscribes the connection from a room.
	CommandLeaveRoom
	// CommandDeleteMessage removes a message. Authors may delete their own.
	CommandDeleteMessage
	// CommandBanMember bans an identity from a room. Moderators only.
	CommandBanMember
	// CommandToggleSlowMode flips slow mode. Moderators only.
	CommandToggleSlowMode
	// CommandPurgeHistory clears recent room history. Moderators only.
	CommandPurgeHistory
	// CommandReportMessage files a moderation report.
	CommandReportMessage
)

// Command represents an action requested by a client.
type Command struct {
	Kind      CommandKind
	Room      presence.RoomKey
	Text      string
	MessageID int64
	Target    presence.Identity
}
