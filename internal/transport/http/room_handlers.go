package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-presence/internal/core"
	"github.com/vovakirdan/wirechat-presence/internal/presence"
)

// RoomHandlers provides HTTP handlers for room endpoints.
type RoomHandlers struct {
	hub *core.Hub
	log *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(hub *core.Hub, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{
		hub: hub,
		log: logger,
	}
}

// PresenceResponse is the online state of a room.
type PresenceResponse struct {
	Room    string   `json:"room"`
	Online  int      `json:"online"`
	Members []string `json:"members"`
}

// Presence reports who is in a room.
// GET /api/rooms/:room/presence
func (h *RoomHandlers) Presence(c *gin.Context) {
	room, err := presence.ParseRoomKey(c.Param("room"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid room key"})
		return
	}

	online, members, err := h.hub.Presence(c.Request.Context(), room)
	if err != nil {
		h.log.Warn().Err(err).Str("room", room.String()).Msg("presence lookup failed")
		h.abort(c, err)
		return
	}

	names := make([]string, 0, len(members))
	for _, m := range members {
		names = append(names, m.String())
	}
	c.JSON(http.StatusOK, PresenceResponse{Room: room.String(), Online: online, Members: names})
}

// DeleteMessage removes a message on behalf of the caller.
// DELETE /api/rooms/:room/messages/:id
func (h *RoomHandlers) DeleteMessage(c *gin.Context) {
	principal, ok := principalFrom(c)
	if !ok {
		h.log.Error().Msg("principal not found in context")
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	room, err := presence.ParseRoomKey(c.Param("room"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid room key"})
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid message id"})
		return
	}

	// The requester has no socket here; events for it go to its live connections.
	requester := core.NewClient("", principal.Identity, principal.Label)
	if err := h.hub.DeleteMessage(c.Request.Context(), requester, room, id); err != nil {
		h.abort(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RoomHandlers) abort(c *gin.Context, err error) {
	ce := core.ToCoreError(err)
	c.JSON(statusFor(ce.Code), ErrorResponse{Error: ce.Message, Code: ce.Code})
}

func statusFor(code string) int {
	switch code {
	case core.ErrCodeRoomNotFound, core.ErrCodeMessageNotFound:
		return http.StatusNotFound
	case core.ErrCodeUnauthorized, core.ErrCodeNotAMember, core.ErrCodeBanned:
		return http.StatusForbidden
	case core.ErrCodeBadRequest:
		return http.StatusBadRequest
	case core.ErrCodeSlowMode:
		return http.StatusTooManyRequests
	case core.ErrCodeRejected:
		return http.StatusUnprocessableEntity
	case core.ErrCodeStorageUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
