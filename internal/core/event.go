package core

import "github.com/vovakirdan/wirechat-presence/internal/presence"

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventRoomMessage delivers a chat message, live or replayed.
	EventRoomMessage EventKind = iota
	// EventSystemNotice carries a human readable notice, or an error when Error is set.
	EventSystemNotice
	// EventOnlineCount reports how many identities are present in a room.
	EventOnlineCount
	// EventRosterChanged lists the identities present in a room.
	EventRosterChanged
	// EventMessageDeleted tells clients to drop a message.
	EventMessageDeleted
	// EventMessageDeletedForSender tells the author their message was removed.
	EventMessageDeletedForSender
	// EventSlowModeChanged reports the new slow-mode state of a room.
	EventSlowModeChanged
	// EventHistoryCleared tells clients the room history was purged.
	EventHistoryCleared
	// EventJoinAcknowledged confirms a join after replay finished.
	EventJoinAcknowledged
)

var eventNames = [...]string{
	EventRoomMessage:             "message",
	EventSystemNotice:            "system_notice",
	EventOnlineCount:             "online_count",
	EventRosterChanged:           "roster",
	EventMessageDeleted:          "message_deleted",
	EventMessageDeletedForSender: "message_deleted_for_sender",
	EventSlowModeChanged:         "slow_mode",
	EventHistoryCleared:          "history_cleared",
	EventJoinAcknowledged:        "join_ack",
}

// String returns the wire name of the event kind.
func (k EventKind) String() string {
	if k < 0 || int(k) >= len(eventNames) {
		return "unknown"
	}
	return eventNames[k]
}

// Event is sent to clients to describe what happened in the system.
// It is JSON encoded when relayed between instances.
type Event struct {
	Kind      EventKind           `json:"kind"`
	Room      presence.RoomKey    `json:"room,omitempty"`
	Identity  presence.Identity   `json:"identity,omitempty"`
	Message   *Message            `json:"message,omitempty"`
	MessageID int64               `json:"message_id,omitempty"`
	Text      string              `json:"text,omitempty"`
	Count     int                 `json:"count,omitempty"`
	Members   []presence.Identity `json:"members,omitempty"`
	Enabled   bool                `json:"enabled,omitempty"`
	Replayed  bool                `json:"replayed,omitempty"`
	Error     *CoreError          `json:"error,omitempty"`
}

func noticeEvent(room presence.RoomKey, text string) *Event {
	return &Event{Kind: EventSystemNotice, Room: room, Text: text}
}

func errorEvent(room presence.RoomKey, err *CoreError) *Event {
	return &Event{Kind: EventSystemNotice, Room: room, Text: err.Message, Error: err}
}

func onlineCountEvent(room presence.RoomKey, count int) *Event {
	return &Event{Kind: EventOnlineCount, Room: room, Count: count}
}

func rosterEvent(room presence.RoomKey, members []presence.Identity) *Event {
	return &Event{Kind: EventRosterChanged, Room: room, Members: members, Count: len(members)}
}
