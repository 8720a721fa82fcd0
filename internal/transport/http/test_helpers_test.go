package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-presence/internal/auth"
	"github.com/vovakirdan/wirechat-presence/internal/config"
	"github.com/vovakirdan/wirechat-presence/internal/core"
	"github.com/vovakirdan/wirechat-presence/internal/presence"
	"github.com/vovakirdan/wirechat-presence/internal/proto"
	"github.com/vovakirdan/wirechat-presence/internal/ratelimit"
	"github.com/vovakirdan/wirechat-presence/internal/setstore/memory"
	"github.com/vovakirdan/wirechat-presence/internal/store/sqlite"
)

type testServer struct {
	ts   *httptest.Server
	hub  *core.Hub
	db   *sqlite.SQLiteStore
	jwt  *auth.JWTConfig
	auth *auth.Service
}

func startTestServer(t *testing.T, tweak ...func(*config.Config)) *testServer {
	t.Helper()

	cfg := config.Default()
	cfg.JWT.Secret = "test-secret"
	for _, fn := range tweak {
		fn(&cfg)
	}

	db, err := sqlite.NewWithSetup(":memory:", sqlite.ApplySchema)
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte(cfg.JWT.Secret),
		Issuer:   cfg.JWT.Issuer,
		Audience: cfg.JWT.Audience,
		TTL:      time.Hour,
	}
	authService := auth.NewService(jwtConfig, cfg.Chat.AllowAnonymous)

	disabledLogger := zerolog.New(nil)
	hub := core.NewHub(core.Deps{
		Sets:     memory.New(),
		Messages: db,
		Rooms:    db,
		Reports:  db,
		Auth:     auth.NewRoles(db),
		Limiter:  ratelimit.NewMemory(),
		Log:      &disabledLogger,
	}, core.DefaultOptions())

	var seq atomic.Int64
	newConnID := func() presence.ConnID {
		return presence.ConnID("test." + strconv.FormatInt(seq.Add(1), 10))
	}

	server := NewServer(hub, authService, &cfg, &disabledLogger, newConnID)
	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return &testServer{ts: ts, hub: hub, db: db, jwt: jwtConfig, auth: authService}
}

func (s *testServer) token(t *testing.T, sub auth.Subject) string {
	t.Helper()
	token, err := auth.GenerateToken(s.jwt, sub)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return token
}

// dial opens a socket and completes the hello exchange.
func (s *testServer) dial(ctx context.Context, t *testing.T, token string) *websocket.Conn {
	t.Helper()

	wsURL := strings.Replace(s.ts.URL, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })

	send(ctx, t, conn, proto.InboundTypeHello, proto.HelloData{Token: token, Protocol: proto.ProtocolVersion})
	if welcome := readUntil(ctx, t, conn, "welcome"); welcome.Type != proto.OutboundTypeEvent {
		t.Fatalf("unexpected welcome: %+v", welcome)
	}
	return conn
}

func send(ctx context.Context, t *testing.T, conn *websocket.Conn, typ string, data any) {
	t.Helper()
	payload, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal %s: %v", typ, err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: payload}); err != nil {
		t.Fatalf("send %s: %v", typ, err)
	}
}

type rawOutbound struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

// readUntil skips frames until an event named event (or an error frame when event is "error") arrives.
func readUntil(ctx context.Context, t *testing.T, conn *websocket.Conn, event string) rawOutbound {
	t.Helper()
	for {
		var out rawOutbound
		if err := wsjson.Read(ctx, conn, &out); err != nil {
			t.Fatalf("waiting for %s: %v", event, err)
		}
		if out.Event == event || (event == proto.OutboundTypeError && out.Type == proto.OutboundTypeError) {
			return out
		}
	}
}
