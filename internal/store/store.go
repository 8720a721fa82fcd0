package store

import (
	"context"
	"errors"
	"time"

	"github.com/vovakirdan/wirechat-presence/internal/presence"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Message is a persisted chat message together with its recipient snapshot.
// An identity appears in at most one of DeliveredTo and PendingFor.
type Message struct {
	ID          int64
	Room        presence.RoomKey
	Kind        presence.RoomKind
	Sender      presence.Identity
	SenderLabel string
	Body        string
	SentAt      time.Time
	ExpiresAt   time.Time
	DeliveredTo []presence.Identity
	PendingFor  []presence.Identity
}

// Room is the directory metadata of a chat room.
type Room struct {
	Key         presence.RoomKey
	Kind        presence.RoomKind
	City        string
	Name        string
	DisplayName string
	Active      bool
	SlowMode    bool
	CreatedAt   time.Time
}

// Report is a member's complaint about a message.
type Report struct {
	ID         int64
	Room       presence.RoomKey
	MessageID  int64
	ReportedBy presence.Identity
	CreatedAt  time.Time
}

// Role defines a privilege level. Roles are ordered.
type Role string

const (
	RoleUser      Role = "user"
	RoleHelper    Role = "helper"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

var roleRanks = map[Role]int{
	RoleUser:      0,
	RoleHelper:    1,
	RoleModerator: 2,
	RoleAdmin:     3,
}

// Rank returns the position of r in the role order. Unknown roles rank lowest.
func (r Role) Rank() int {
	return roleRanks[r]
}

// AtLeast reports whether r grants at least the privileges of min.
func (r Role) AtLeast(min Role) bool {
	return r.Rank() >= min.Rank()
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := roleRanks[r]
	return ok
}

// MessageStore handles message persistence.
type MessageStore interface {
	// SaveMessage persists msg and its recipient snapshot atomically and sets msg.ID.
	SaveMessage(ctx context.Context, msg *Message) error

	// GetMessage returns a message with its recipients, or ErrNotFound.
	GetMessage(ctx context.Context, id int64) (*Message, error)

	// MarkDelivered moves identity into the delivered set of a message.
	MarkDelivered(ctx context.Context, id int64, identity presence.Identity) error

	// MarkPending moves identity into the pending set of a message.
	MarkPending(ctx context.Context, id int64, identity presence.Identity) error

	// PendingMessages lists unexpired room messages pending for identity, oldest first.
	PendingMessages(ctx context.Context, room presence.RoomKey, identity presence.Identity, now time.Time) ([]*Message, error)

	// RoomHistory returns the most recent limit unexpired messages sent at or
	// after since, oldest first.
	RoomHistory(ctx context.Context, room presence.RoomKey, since time.Time, limit int, now time.Time) ([]*Message, error)

	// DeleteMessage removes a message and its recipients, or returns ErrNotFound.
	DeleteMessage(ctx context.Context, id int64) error

	// PurgeRoom removes room messages sent at or after since.
	PurgeRoom(ctx context.Context, room presence.RoomKey, since time.Time) (int64, error)

	// DeleteExpired evicts every message whose expiry is not after now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// RoomStore handles room metadata, durable membership and bans.
type RoomStore interface {
	// GetRoom returns the room or ErrNotFound.
	GetRoom(ctx context.Context, key presence.RoomKey) (*Room, error)

	// GetOrCreateRoom returns the room, creating it when missing.
	GetOrCreateRoom(ctx context.Context, key presence.RoomKey) (room *Room, created bool, err error)

	// ListRoomKeys lists every known room.
	ListRoomKeys(ctx context.Context) ([]presence.RoomKey, error)

	// SetRoomActive enables or disables a room.
	SetRoomActive(ctx context.Context, key presence.RoomKey, active bool) error

	// ToggleSlowMode flips slow mode and returns the new state.
	ToggleSlowMode(ctx context.Context, key presence.RoomKey) (bool, error)

	// AddMember records durable membership. Idempotent.
	AddMember(ctx context.Context, key presence.RoomKey, identity presence.Identity) error

	// RemoveMember drops durable membership. Idempotent.
	RemoveMember(ctx context.Context, key presence.RoomKey, identity presence.Identity) error

	// ListMembers lists durable members, sorted.
	ListMembers(ctx context.Context, key presence.RoomKey) ([]presence.Identity, error)

	// IsMember checks durable membership.
	IsMember(ctx context.Context, key presence.RoomKey, identity presence.Identity) (bool, error)

	// BanIdentity bans identity from a room.
	BanIdentity(ctx context.Context, key presence.RoomKey, identity, bannedBy presence.Identity) error

	// IsBanned checks whether identity is banned from a room.
	IsBanned(ctx context.Context, key presence.RoomKey, identity presence.Identity) (bool, error)
}

// RoleStore handles staff role assignments.
type RoleStore interface {
	// ActiveRole returns the highest non-revoked role of a user, RoleUser if none.
	ActiveRole(ctx context.Context, userID string) (Role, error)

	// AssignRole grants a role.
	AssignRole(ctx context.Context, userID string, role Role, assignedBy string) error

	// RevokeRole revokes every active assignment of role for the user.
	RevokeRole(ctx context.Context, userID string, role Role) error
}

// ReportStore handles moderation reports.
type ReportStore interface {
	// CreateReport persists a report and sets its ID.
	CreateReport(ctx context.Context, r *Report) error

	// ListReports lists reports filed in a room, oldest first.
	ListReports(ctx context.Context, room presence.RoomKey) ([]*Report, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	MessageStore
	RoomStore
	RoleStore
	ReportStore

	// Close closes the underlying database connection.
	Close() error
}
