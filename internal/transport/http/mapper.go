package http

import (
	"encoding/json"
	"strings"

	"github.com/samber/lo"

	"github.com/vovakirdan/wirechat-presence/internal/core"
	"github.com/vovakirdan/wirechat-presence/internal/presence"
	"github.com/vovakirdan/wirechat-presence/internal/proto"
)

func badRequest(msg string) *proto.Error {
	return &proto.Error{Code: proto.ErrCodeBadRequest, Msg: msg}
}

// inboundToCommand maps a client frame to a core command. Malformed frames
// yield a protocol error for the client and no command.
func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.Error) {
	switch inbound.Type {
	case proto.InboundTypeJoin:
		var join proto.JoinData
		if err := json.Unmarshal(inbound.Data, &join); err != nil {
			return nil, badRequest("malformed join")
		}
		room, perr := joinRoom(join)
		if perr != nil {
			return nil, perr
		}
		return &core.Command{Kind: core.CommandJoinRoom, Room: room}, nil

	case proto.InboundTypeLeave, proto.InboundTypeSlowMode, proto.InboundTypePurge:
		var data proto.RoomData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, badRequest("malformed " + inbound.Type)
		}
		room, perr := parseRoom(data.Room)
		if perr != nil {
			return nil, perr
		}
		kind := map[string]core.CommandKind{
			proto.InboundTypeLeave:    core.CommandLeaveRoom,
			proto.InboundTypeSlowMode: core.CommandToggleSlowMode,
			proto.InboundTypePurge:    core.CommandPurgeHistory,
		}[inbound.Type]
		return &core.Command{Kind: kind, Room: room}, nil

	case proto.InboundTypeMsg:
		var msg proto.MsgData
		if err := json.Unmarshal(inbound.Data, &msg); err != nil {
			return nil, badRequest("malformed msg")
		}
		room, perr := parseRoom(msg.Room)
		if perr != nil {
			return nil, perr
		}
		return &core.Command{Kind: core.CommandSendRoomMessage, Room: room, Text: msg.Text}, nil

	case proto.InboundTypeDelete, proto.InboundTypeReport:
		var ref proto.MessageRefData
		if err := json.Unmarshal(inbound.Data, &ref); err != nil {
			return nil, badRequest("malformed " + inbound.Type)
		}
		room, perr := parseRoom(ref.Room)
		if perr != nil {
			return nil, perr
		}
		if ref.MessageID <= 0 {
			return nil, badRequest("message_id is required")
		}
		kind := core.CommandDeleteMessage
		if inbound.Type == proto.InboundTypeReport {
			kind = core.CommandReportMessage
		}
		return &core.Command{Kind: kind, Room: room, MessageID: ref.MessageID}, nil

	case proto.InboundTypeBan:
		var ban proto.BanData
		if err := json.Unmarshal(inbound.Data, &ban); err != nil {
			return nil, badRequest("malformed ban")
		}
		room, perr := parseRoom(ban.Room)
		if perr != nil {
			return nil, perr
		}
		target := presence.Identity(strings.TrimSpace(ban.Target))
		if target.Kind() == "" {
			return nil, badRequest("target must be an identity")
		}
		return &core.Command{Kind: core.CommandBanMember, Room: room, Target: target}, nil

	case proto.InboundTypeHello:
		return nil, badRequest("already introduced")

	default:
		return nil, badRequest("unknown message type")
	}
}

func parseRoom(raw string) (presence.RoomKey, *proto.Error) {
	if strings.TrimSpace(raw) == "" {
		return "", badRequest("room is required")
	}
	room, err := presence.ParseRoomKey(raw)
	if err != nil {
		return "", badRequest(err.Error())
	}
	return room, nil
}

func joinRoom(join proto.JoinData) (presence.RoomKey, *proto.Error) {
	if join.Room != "" {
		return parseRoom(join.Room)
	}
	switch presence.RoomKind(strings.ToLower(join.Kind)) {
	case presence.RoomGeneral:
		return presence.GeneralRoom(join.City), nil
	case presence.RoomCommunity:
		if strings.TrimSpace(join.Name) == "" {
			return "", badRequest("community rooms need a name")
		}
		return presence.CommunityRoom(join.City, join.Name), nil
	default:
		return "", badRequest("room or kind is required")
	}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	out := proto.Outbound{Type: proto.OutboundTypeEvent, Event: event.Kind.String()}
	room := event.Room.String()

	switch event.Kind {
	case core.EventRoomMessage:
		m := event.Message
		out.Data = proto.EventMessage{
			ID:       m.ID,
			Room:     m.Room.String(),
			Kind:     string(m.Kind),
			From:     m.From.String(),
			Label:    m.Label,
			Text:     m.Text,
			TS:       m.CreatedAt.Unix(),
			Replayed: event.Replayed,
		}
	case core.EventSystemNotice:
		notice := proto.EventNotice{Room: room, Text: event.Text}
		if event.Error != nil {
			notice.Code = event.Error.Code
		}
		out.Data = notice
	case core.EventOnlineCount:
		out.Data = proto.EventOnlineCount{Room: room, Count: event.Count}
	case core.EventRosterChanged:
		out.Data = proto.EventRoster{
			Room:    room,
			Members: lo.Map(event.Members, func(id presence.Identity, _ int) string { return id.String() }),
		}
	case core.EventMessageDeleted, core.EventMessageDeletedForSender:
		out.Data = proto.EventMessageDeleted{Room: room, MessageID: event.MessageID, Notice: event.Text}
	case core.EventSlowModeChanged:
		out.Data = proto.EventSlowMode{Room: room, Enabled: event.Enabled}
	case core.EventHistoryCleared:
		out.Data = proto.EventRoom{Room: room}
	case core.EventJoinAcknowledged:
		out.Data = proto.EventJoinAck{Room: room, Identity: event.Identity.String()}
	}
	return out
}
