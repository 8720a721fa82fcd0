package utils

import (
	"strings"

	"github.com/google/uuid"

	"github.com/vovakirdan/wirechat-presence/internal/presence"
)

// NewInstanceID returns a short random id naming one server process.
func NewInstanceID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// NewConnID returns a connection id owned by instance.
func NewConnID(instance string) presence.ConnID {
	return presence.ConnID(instance + "." + uuid.NewString())
}

// InstanceOf returns the instance prefix of a connection id, or "" if it has none.
func InstanceOf(conn presence.ConnID) string {
	instance, _, ok := strings.Cut(string(conn), ".")
	if !ok {
		return ""
	}
	return instance
}
