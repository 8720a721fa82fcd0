package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/wirechat-presence/internal/auth"
	"github.com/vovakirdan/wirechat-presence/internal/core"
	"github.com/vovakirdan/wirechat-presence/internal/presence"
	"github.com/vovakirdan/wirechat-presence/internal/proto"
	"github.com/vovakirdan/wirechat-presence/internal/store"
)

func (s *testServer) do(t *testing.T, method, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	s.ts.Config.Handler.ServeHTTP(resp, req)
	return resp
}

func TestPresenceEndpoint(t *testing.T) {
	s := startTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	token := s.token(t, auth.Subject{UserID: "42"})
	conn := s.dial(ctx, t, token)
	send(ctx, t, conn, proto.InboundTypeJoin, proto.JoinData{Room: "general:pune"})
	readUntil(ctx, t, conn, "join_ack")

	resp := s.do(t, http.MethodGet, "/api/rooms/general:pune/presence", "")
	require.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = s.do(t, http.MethodGet, "/api/rooms/general:pune/presence", token)
	require.Equal(t, http.StatusOK, resp.Code)

	var body PresenceResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Equal(t, "general:pune", body.Room)
	require.Equal(t, 1, body.Online)
	require.Equal(t, []string{"u:42"}, body.Members)

	resp = s.do(t, http.MethodGet, "/api/rooms/lobby/presence", token)
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestDeleteMessageEndpoint(t *testing.T) {
	s := startTestServer(t)
	ctx := context.Background()
	room := presence.GeneralRoom("pune")

	author := core.NewClient("local.1", "u:7", "")
	s.hub.Connect(ctx, author)
	require.NoError(t, s.hub.Join(ctx, author, room))
	msg, err := s.hub.Pipeline().Send(ctx, room, author.Identity, author.Label, author.ID, "remove me")
	require.NoError(t, err)

	require.NoError(t, s.db.AssignRole(ctx, "1", store.RoleModerator, "0"))
	path := "/api/rooms/general:pune/messages/" + strconv.FormatInt(msg.ID, 10)

	resp := s.do(t, http.MethodDelete, path, s.token(t, auth.Subject{UserID: "2"}))
	require.Equal(t, http.StatusForbidden, resp.Code)

	resp = s.do(t, http.MethodDelete, path, s.token(t, auth.Subject{UserID: "1"}))
	require.Equal(t, http.StatusNoContent, resp.Code)

	_, err = s.db.GetMessage(ctx, msg.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	resp = s.do(t, http.MethodDelete, path, s.token(t, auth.Subject{UserID: "1"}))
	require.Equal(t, http.StatusNotFound, resp.Code)

	resp = s.do(t, http.MethodDelete, "/api/rooms/general:pune/messages/abc", s.token(t, auth.Subject{UserID: "1"}))
	require.Equal(t, http.StatusBadRequest, resp.Code)
}
