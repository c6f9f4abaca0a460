// Package proto defines the JSON envelopes exchanged over the WebSocket.
// One event per frame, shape {type: string, ...fields}. Frames with a
// missing or unknown type are silently dropped.
package proto

import "time"

// Inbound event types.
const (
	InboundLogin              = "LOGIN"
	InboundJoinChannel        = "JOIN_CHANNEL"
	InboundSendMessage        = "SEND_MESSAGE"
	InboundCreateChannel      = "CREATE_CHANNEL"
	InboundRemoveUser         = "REMOVE_USER"
	InboundSearchUsers        = "SEARCH_USERS"
	InboundSubscribeChannel   = "SUBSCRIBE_CHANNEL"
	InboundUnsubscribeChannel = "UNSUBSCRIBE_CHANNEL"
)

// Outbound event types.
const (
	OutboundLoginSuccess   = "LOGIN_SUCCESS"
	OutboundLoginFailed    = "LOGIN_FAILED"
	OutboundChannelHistory = "CHANNEL_HISTORY"
	OutboundChannelUsers   = "CHANNEL_USERS"
	OutboundUserJoined     = "USER_JOINED"
	OutboundUserLeft       = "USER_LEFT"
	OutboundNewMessage     = "NEW_MESSAGE"
	OutboundChannelCreated = "CHANNEL_CREATED"
	OutboundSearchResults  = "SEARCH_RESULTS"
)

// Inbound is one client frame. Fields beyond Type are populated
// depending on the event type.
type Inbound struct {
	Type      string `json:"type"`
	Payload   string `json:"payload,omitempty"` // LOGIN: username
	ChannelID int64  `json:"channelId,omitempty"`
	Message   string `json:"message,omitempty"` // SEND_MESSAGE: text
	Name      string `json:"name,omitempty"`    // CREATE_CHANNEL
	UserID    int64  `json:"userId,omitempty"`  // REMOVE_USER: target
	Query     string `json:"query,omitempty"`   // SEARCH_USERS
}

// Outbound is one server frame.
type Outbound struct {
	Type      string `json:"type"`
	User      *User  `json:"user,omitempty"`      // LOGIN_SUCCESS
	ChannelID int64  `json:"channelId,omitempty"` // LOGIN_SUCCESS
	Reason    string `json:"reason,omitempty"`    // LOGIN_FAILED
	Payload   any    `json:"payload,omitempty"`
}

// User is the wire shape of a user.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

// Channel is the wire shape of a channel (CHANNEL_CREATED payload).
type Channel struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	OwnerID int64  `json:"owner"`
}

// Message is the wire shape of a chat message (NEW_MESSAGE payload and
// CHANNEL_HISTORY elements).
type Message struct {
	ID        int64     `json:"id"`
	ChannelID int64     `json:"channelId"`
	User      User      `json:"user"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// Presence is the payload of USER_JOINED and USER_LEFT.
type Presence struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username,omitempty"`
}
