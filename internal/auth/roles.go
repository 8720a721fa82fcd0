package auth

import (
	"context"

	"github.com/vovakirdan/wirechat-presence/internal/core"
	"github.com/vovakirdan/wirechat-presence/internal/presence"
	"github.com/vovakirdan/wirechat-presence/internal/store"
)

var _ core.Authorizer = (*Roles)(nil)

// Roles resolves moderation roles from the role store. Only authenticated
// identities can hold a role above user.
type Roles struct {
	store store.RoleStore
}

// NewRoles creates a role resolver.
func NewRoles(st store.RoleStore) *Roles {
	return &Roles{store: st}
}

// RoleOf returns the active role of id.
func (r *Roles) RoleOf(ctx context.Context, id presence.Identity) (store.Role, error) {
	userID, ok := id.UserID()
	if !ok {
		return store.RoleUser, nil
	}
	return r.store.ActiveRole(ctx, userID)
}
