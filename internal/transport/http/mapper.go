package http

import (
	"strings"

	"github.com/samber/lo"

	"channelcast/internal/core"
	"channelcast/internal/proto"
)

// inboundToCommand validates an inbound frame and maps it to a core
// command. Malformed frames return (nil, false) and are dropped without
// a client-visible error.
func inboundToCommand(inbound proto.Inbound) (*core.Command, bool) {
	switch inbound.Type {
	case proto.InboundLogin:
		if strings.TrimSpace(inbound.Payload) == "" {
			return nil, false
		}
		return &core.Command{Kind: core.CommandLogin, Username: strings.TrimSpace(inbound.Payload)}, true
	case proto.InboundJoinChannel:
		if inbound.ChannelID == 0 {
			return nil, false
		}
		return &core.Command{Kind: core.CommandJoinChannel, ChannelID: inbound.ChannelID}, true
	case proto.InboundSendMessage:
		if inbound.Message == "" {
			return nil, false
		}
		return &core.Command{Kind: core.CommandSendMessage, Text: inbound.Message}, true
	case proto.InboundCreateChannel:
		if strings.TrimSpace(inbound.Name) == "" {
			return nil, false
		}
		return &core.Command{Kind: core.CommandCreateChannel, Name: inbound.Name}, true
	case proto.InboundRemoveUser:
		if inbound.ChannelID == 0 || inbound.UserID == 0 {
			return nil, false
		}
		return &core.Command{Kind: core.CommandRemoveUser, ChannelID: inbound.ChannelID, UserID: inbound.UserID}, true
	case proto.InboundSearchUsers:
		return &core.Command{Kind: core.CommandSearchUsers, Query: inbound.Query}, true
	case proto.InboundSubscribeChannel:
		if inbound.ChannelID == 0 {
			return nil, false
		}
		return &core.Command{Kind: core.CommandSubscribeChannel, ChannelID: inbound.ChannelID}, true
	case proto.InboundUnsubscribeChannel:
		if inbound.ChannelID == 0 {
			return nil, false
		}
		return &core.Command{Kind: core.CommandUnsubscribeChannel, ChannelID: inbound.ChannelID}, true
	default:
		// Unknown event types are a forward-compatible no-op.
		return nil, false
	}
}

func protoUser(u core.User) proto.User {
	return proto.User{ID: u.ID, Username: u.Username, Avatar: u.Avatar}
}

func protoUsers(users []core.User) []proto.User {
	return lo.Map(users, func(u core.User, _ int) proto.User {
		return protoUser(u)
	})
}

func protoMessage(m core.Message) proto.Message {
	return proto.Message{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		User:      protoUser(m.Author),
		Message:   m.Text,
		CreatedAt: m.CreatedAt,
	}
}

// outboundFromEvent maps a core event to its wire envelope.
func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventLoginSuccess:
		user := protoUser(*event.User)
		return proto.Outbound{
			Type:      proto.OutboundLoginSuccess,
			User:      &user,
			ChannelID: event.ChannelID,
		}
	case core.EventLoginFailed:
		return proto.Outbound{Type: proto.OutboundLoginFailed, Reason: event.Reason}
	case core.EventChannelHistory:
		return proto.Outbound{
			Type: proto.OutboundChannelHistory,
			Payload: lo.Map(event.Messages, func(m core.Message, _ int) proto.Message {
				return protoMessage(m)
			}),
		}
	case core.EventChannelUsers:
		return proto.Outbound{Type: proto.OutboundChannelUsers, Payload: protoUsers(event.Users)}
	case core.EventUserJoined:
		return proto.Outbound{
			Type:    proto.OutboundUserJoined,
			Payload: proto.Presence{UserID: event.User.ID, Username: event.User.Username},
		}
	case core.EventUserLeft:
		return proto.Outbound{
			Type:    proto.OutboundUserLeft,
			Payload: proto.Presence{UserID: event.User.ID},
		}
	case core.EventNewMessage:
		return proto.Outbound{Type: proto.OutboundNewMessage, Payload: protoMessage(*event.Message)}
	case core.EventChannelCreated:
		return proto.Outbound{
			Type: proto.OutboundChannelCreated,
			Payload: proto.Channel{
				ID:      event.Channel.ID,
				Name:    event.Channel.Name,
				OwnerID: event.Channel.OwnerID,
			},
		}
	case core.EventSearchResults:
		return proto.Outbound{Type: proto.OutboundSearchResults, Payload: protoUsers(event.Users)}
	default:
		return proto.Outbound{Type: "UNKNOWN"}
	}
}
