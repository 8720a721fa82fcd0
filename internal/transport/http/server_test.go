package http

import (
	"context"
	stdhttp "net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/wirechat-presence/internal/auth"
	"github.com/vovakirdan/wirechat-presence/internal/proto"
)

// The socket and the gin routes share one listener.
func TestServerRoutesSocketAndAPI(t *testing.T) {
	s := startTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := s.dial(ctx, t, s.token(t, auth.Subject{UserID: "42"}))
	send(ctx, t, conn, proto.InboundTypeJoin, proto.JoinData{Room: "general:pune"})
	ack := readUntil(ctx, t, conn, "join_ack")
	require.Equal(t, proto.OutboundTypeEvent, ack.Type)

	health, err := s.ts.Client().Get(s.ts.URL + "/health")
	require.NoError(t, err)
	health.Body.Close()
	require.Equal(t, stdhttp.StatusOK, health.StatusCode)

	api, err := s.ts.Client().Get(s.ts.URL + "/api/rooms/general:pune/presence")
	require.NoError(t, err)
	api.Body.Close()
	require.Equal(t, stdhttp.StatusUnauthorized, api.StatusCode)
}
