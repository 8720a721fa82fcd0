package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	stdhttp "net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-presence/internal/auth"
	"github.com/vovakirdan/wirechat-presence/internal/config"
	"github.com/vovakirdan/wirechat-presence/internal/core"
	"github.com/vovakirdan/wirechat-presence/internal/presence"
	"github.com/vovakirdan/wirechat-presence/internal/proto"
)

const helloTimeout = 10 * time.Second

// errHandshake ends a connection whose hello was refused.
var errHandshake = errors.New("handshake refused")

// WSHandler upgrades HTTP connections and bridges them to the hub.
type WSHandler struct {
	hub       *core.Hub
	auth      *auth.Service
	cfg       *config.Config
	log       *zerolog.Logger
	newConnID func() presence.ConnID
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub *core.Hub, authService *auth.Service, cfg *config.Config, logger *zerolog.Logger, newConnID func() presence.ConnID) stdhttp.Handler {
	return &WSHandler{hub: hub, auth: authService, cfg: cfg, log: logger, newConnID: newConnID}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")
	if h.cfg.MaxMessageBytes > 0 {
		conn.SetReadLimit(h.cfg.MaxMessageBytes)
	}

	connID := h.newConnID()
	principal, err := h.handshake(ctx, conn, connID)
	if err != nil {
		if errors.Is(err, errHandshake) {
			conn.Close(websocket.StatusPolicyViolation, "handshake refused")
		} else {
			h.log.Debug().Err(err).Str("conn_id", string(connID)).Msg("hello not received")
		}
		return
	}

	client := core.NewClient(connID, principal.Identity, principal.Label)
	h.hub.Connect(ctx, client)
	// Disconnect must run to completion even though the request context is done.
	defer h.hub.Disconnect(context.WithoutCancel(ctx), client)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, client)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Str("conn_id", string(connID)).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

// handshake waits for the hello frame and authenticates it.
func (h *WSHandler) handshake(ctx context.Context, conn *websocket.Conn, connID presence.ConnID) (auth.Principal, error) {
	helloCtx, cancel := context.WithTimeout(ctx, helloTimeout)
	defer cancel()

	var inbound proto.Inbound
	if err := wsjson.Read(helloCtx, conn, &inbound); err != nil {
		return auth.Principal{}, err
	}

	var hello proto.HelloData
	if inbound.Type != proto.InboundTypeHello || json.Unmarshal(inbound.Data, &hello) != nil {
		h.writeError(ctx, conn, badRequest("hello expected"))
		return auth.Principal{}, errHandshake
	}
	if hello.Protocol != 0 && hello.Protocol != proto.ProtocolVersion {
		h.writeError(ctx, conn, &proto.Error{Code: proto.ErrCodeUnsupportedVersion, Msg: "unsupported protocol version"})
		return auth.Principal{}, errHandshake
	}

	principal, err := h.auth.Authenticate(hello.Token, connID)
	if err != nil {
		h.log.Debug().Err(err).Str("conn_id", string(connID)).Msg("hello rejected")
		h.writeError(ctx, conn, &proto.Error{Code: proto.ErrCodeUnauthorized, Msg: "authentication failed"})
		return auth.Principal{}, errHandshake
	}

	welcome := proto.Outbound{
		Type:  proto.OutboundTypeEvent,
		Event: "welcome",
		Data: proto.EventWelcome{
			Identity: principal.Identity.String(),
			Label:    principal.Label,
			Protocol: proto.ProtocolVersion,
		},
	}
	if err := wsjson.Write(ctx, conn, welcome); err != nil {
		return auth.Principal{}, err
	}
	return principal, nil
}

func (h *WSHandler) writeError(ctx context.Context, conn *websocket.Conn, perr *proto.Error) {
	if err := wsjson.Write(ctx, conn, proto.Outbound{Type: proto.OutboundTypeError, Error: perr}); err != nil {
		h.log.Debug().Err(err).Msg("write protocol error")
	}
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	limiter := newRateLimiter(h.cfg.RateLimitPerMinute)
	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			return err
		}

		if !limiter.allow() {
			h.writeError(ctx, conn, &proto.Error{Code: proto.ErrCodeRateLimited, Msg: "too many messages"})
			continue
		}

		cmd, protoErr := inboundToCommand(inbound)
		if protoErr != nil {
			h.writeError(ctx, conn, protoErr)
			continue
		}
		h.hub.Handle(ctx, client, cmd)
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		select {
		case event := <-client.Events:
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				h.log.Error().Err(err).Str("conn_id", string(client.ID)).Msg("write ws event")
				return err
			}
		case <-client.Done():
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
