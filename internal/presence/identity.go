// Package presence tracks which identities are connected and which rooms they
// occupy, on top of a setstore.Store.
package presence

import "strings"

// ConnID is an opaque handle for one live transport connection.
type ConnID string

// IdentityKind tells how an identity was derived.
type IdentityKind string

const (
	// KindAuthenticated is a verified user account.
	KindAuthenticated IdentityKind = "u"
	// KindAnonymous is an anonymous session id.
	KindAnonymous IdentityKind = "a"
	// KindEphemeral falls back to the connection itself.
	KindEphemeral IdentityKind = "s"
)

// Identity is a logical actor key, independent of any single connection.
type Identity string

// Authenticated builds the identity of a user account.
func Authenticated(userID string) Identity {
	return Identity(string(KindAuthenticated) + ":" + userID)
}

// Anonymous builds the identity of an anonymous session.
func Anonymous(anonID string) Identity {
	return Identity(string(KindAnonymous) + ":" + anonID)
}

// Ephemeral builds an identity scoped to a single connection.
func Ephemeral(conn ConnID) Identity {
	return Identity(string(KindEphemeral) + ":" + string(conn))
}

// IdentityFor picks the most stable identity available: user, then anonymous
// session, then the connection.
func IdentityFor(userID, anonID string, conn ConnID) Identity {
	if userID = strings.TrimSpace(userID); userID != "" {
		return Authenticated(userID)
	}
	if anonID = strings.TrimSpace(anonID); anonID != "" {
		return Anonymous(anonID)
	}
	return Ephemeral(conn)
}

// Kind returns the identity prefix, or "" when malformed.
func (i Identity) Kind() IdentityKind {
	prefix, _, ok := strings.Cut(string(i), ":")
	if !ok {
		return ""
	}
	switch k := IdentityKind(prefix); k {
	case KindAuthenticated, KindAnonymous, KindEphemeral:
		return k
	default:
		return ""
	}
}

// UserID returns the account id for authenticated identities.
func (i Identity) UserID() (string, bool) {
	if i.Kind() != KindAuthenticated {
		return "", false
	}
	_, id, _ := strings.Cut(string(i), ":")
	return id, true
}

func (i Identity) String() string {
	return string(i)
}
