package core

import (
	"time"

	"github.com/vovakirdan/wirechat-presence/internal/presence"
	"github.com/vovakirdan/wirechat-presence/internal/store"
)

// Message is the client-facing view of a chat message.
type Message struct {
	ID        int64             `json:"id"`
	Room      presence.RoomKey  `json:"room"`
	Kind      presence.RoomKind `json:"kind"`
	From      presence.Identity `json:"from"`
	Label     string            `json:"label,omitempty"`
	Text      string            `json:"text"`
	CreatedAt time.Time         `json:"created_at"`
}

func messageFromRecord(m *store.Message) *Message {
	return &Message{
		ID:        m.ID,
		Room:      m.Room,
		Kind:      m.Kind,
		From:      m.Sender,
		Label:     m.SenderLabel,
		Text:      m.Body,
		CreatedAt: m.SentAt,
	}
}

func messageEvent(m *store.Message, replayed bool) *Event {
	return &Event{
		Kind:     EventRoomMessage,
		Room:     m.Room,
		Message:  messageFromRecord(m),
		Replayed: replayed,
	}
}
