//go:generate go run go.uber.org/mock/mockgen -source=collaborators.go -destination=mocks/mock_collaborators.go -package=mocks

package core

import (
	"context"
	"time"

	"github.com/vovakirdan/wirechat-presence/internal/presence"
	"github.com/vovakirdan/wirechat-presence/internal/store"
)

// Authorizer resolves the role an identity holds.
type Authorizer interface {
	RoleOf(ctx context.Context, id presence.Identity) (store.Role, error)
}

// Verdict is the outcome of screening message text.
type Verdict struct {
	Allowed bool
	Reason  string
	Matches []string
}

// ContentScreen decides whether message text may be sent.
type ContentScreen interface {
	Screen(ctx context.Context, text string) Verdict
}

// SlowModeLimiter enforces a per-key cooldown.
type SlowModeLimiter interface {
	Allow(ctx context.Context, key string, interval time.Duration) (bool, error)
}

// RoomDirectory owns room metadata, durable membership and bans.
type RoomDirectory interface {
	GetRoom(ctx context.Context, key presence.RoomKey) (*store.Room, error)
	GetOrCreateRoom(ctx context.Context, key presence.RoomKey) (*store.Room, bool, error)
	ListRoomKeys(ctx context.Context) ([]presence.RoomKey, error)
	ToggleSlowMode(ctx context.Context, key presence.RoomKey) (bool, error)
	AddMember(ctx context.Context, key presence.RoomKey, identity presence.Identity) error
	RemoveMember(ctx context.Context, key presence.RoomKey, identity presence.Identity) error
	ListMembers(ctx context.Context, key presence.RoomKey) ([]presence.Identity, error)
	BanIdentity(ctx context.Context, key presence.RoomKey, identity, bannedBy presence.Identity) error
	IsBanned(ctx context.Context, key presence.RoomKey, identity presence.Identity) (bool, error)
}
