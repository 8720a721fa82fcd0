package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	ProtocolVersion = 1

	InboundTypeHello    = "hello"
	InboundTypeJoin     = "join"
	InboundTypeLeave    = "leave"
	InboundTypeMsg      = "msg"
	InboundTypeDelete   = "delete"
	InboundTypeBan      = "ban"
	InboundTypeSlowMode = "slow_mode"
	InboundTypePurge    = "purge"
	InboundTypeReport   = "report"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"
)

// Protocol error codes, in addition to the core error codes.
const (
	ErrCodeUnsupportedVersion = "unsupported_version"
	ErrCodeBadRequest         = "bad_request"
	ErrCodeUnauthorized       = "unauthorized"
	ErrCodeRateLimited        = "rate_limited"
)

// HelloData is sent by the client to introduce itself.
type HelloData struct {
	Token    string `json:"token,omitempty"`
	Protocol int    `json:"protocol,omitempty"`
}

// JoinData requests to join a room. Room may be a full room key; otherwise
// Kind, City and Name build one.
type JoinData struct {
	Room string `json:"room,omitempty"`
	Kind string `json:"kind,omitempty"`
	City string `json:"city,omitempty"`
	Name string `json:"name,omitempty"`
}

// RoomData addresses a room without further payload (leave, slow_mode, purge).
type RoomData struct {
	Room string `json:"room"`
}

// MsgData is a chat message from the client.
type MsgData struct {
	Room string `json:"room"`
	Text string `json:"text"`
}

// MessageRefData addresses one message (delete, report).
type MessageRefData struct {
	Room      string `json:"room"`
	MessageID int64  `json:"message_id"`
}

// BanData names the identity to ban.
type BanData struct {
	Room   string `json:"room"`
	Target string `json:"target"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// EventMessage carries a chat message.
type EventMessage struct {
	ID       int64  `json:"id"`
	Room     string `json:"room"`
	Kind     string `json:"kind"`
	From     string `json:"from"`
	Label    string `json:"label,omitempty"`
	Text     string `json:"text"`
	TS       int64  `json:"ts"`
	Replayed bool   `json:"replayed,omitempty"`
}

// EventNotice is a system notice; Code is set when it reports an error.
type EventNotice struct {
	Room string `json:"room,omitempty"`
	Text string `json:"text"`
	Code string `json:"code,omitempty"`
}

// EventOnlineCount reports how many identities are in a room.
type EventOnlineCount struct {
	Room  string `json:"room"`
	Count int    `json:"count"`
}

// EventRoster lists the identities present in a room.
type EventRoster struct {
	Room    string   `json:"room"`
	Members []string `json:"members"`
}

// EventMessageDeleted retracts a message.
type EventMessageDeleted struct {
	Room      string `json:"room"`
	MessageID int64  `json:"message_id"`
	Notice    string `json:"notice,omitempty"`
}

// EventSlowMode reports the slow-mode state of a room.
type EventSlowMode struct {
	Room    string `json:"room"`
	Enabled bool   `json:"enabled"`
}

// EventRoom is an event that only names its room (history_cleared).
type EventRoom struct {
	Room string `json:"room"`
}

// EventJoinAck confirms a join.
type EventJoinAck struct {
	Room     string `json:"room"`
	Identity string `json:"identity"`
}

// EventWelcome answers a successful hello.
type EventWelcome struct {
	Identity string `json:"identity"`
	Label    string `json:"label"`
	Protocol int    `json:"protocol"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
