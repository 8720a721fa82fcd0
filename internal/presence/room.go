package presence

import (
	"errors"
	"strings"
)

// RoomKind separates the per-city general room from community rooms.
type RoomKind string

const (
	RoomGeneral   RoomKind = "general"
	RoomCommunity RoomKind = "community"
)

const defaultCity = "global"

// ErrInvalidRoomKey is returned by ParseRoomKey for malformed keys.
var ErrInvalidRoomKey = errors.New("invalid room key")

// RoomKey is the normalized, kind-namespaced room identifier:
// "general:<city>" or "community:<city>:<name>".
type RoomKey string

// GeneralRoom returns the key of the general room for a city.
func GeneralRoom(city string) RoomKey {
	return RoomKey(string(RoomGeneral) + ":" + normalizeCity(city))
}

// CommunityRoom returns the key of a named community room inside a city.
func CommunityRoom(city, name string) RoomKey {
	return RoomKey(string(RoomCommunity) + ":" + normalizeCity(city) + ":" + normalizeSegment(name))
}

// ParseRoomKey validates and normalizes a key received from a client.
func ParseRoomKey(raw string) (RoomKey, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(raw)), ":")
	switch {
	case len(parts) == 2 && RoomKind(parts[0]) == RoomGeneral:
		return GeneralRoom(parts[1]), nil
	case len(parts) == 3 && RoomKind(parts[0]) == RoomCommunity:
		if normalizeSegment(parts[2]) == "" {
			return "", ErrInvalidRoomKey
		}
		return CommunityRoom(parts[1], parts[2]), nil
	default:
		return "", ErrInvalidRoomKey
	}
}

// Kind returns the room kind.
func (k RoomKey) Kind() RoomKind {
	kind, _, _ := strings.Cut(string(k), ":")
	return RoomKind(kind)
}

// City returns the city segment.
func (k RoomKey) City() string {
	parts := strings.Split(string(k), ":")
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

// Name returns the community room name, empty for general rooms.
func (k RoomKey) Name() string {
	parts := strings.Split(string(k), ":")
	if len(parts) < 3 {
		return ""
	}
	return parts[2]
}

// DisplayName is the human readable title a newly created room gets.
func (k RoomKey) DisplayName() string {
	if k.Kind() == RoomCommunity {
		return strings.ToUpper(strings.ReplaceAll(k.Name(), "_", " "))
	}
	return "General " + strings.ToUpper(k.City())
}

func (k RoomKey) String() string {
	return string(k)
}

func normalizeCity(city string) string {
	if c := normalizeSegment(city); c != "" {
		return c
	}
	return defaultCity
}

func normalizeSegment(s string) string {
	s = strings.ReplaceAll(strings.ToLower(s), ":", " ")
	return strings.Join(strings.Fields(s), "_")
}
