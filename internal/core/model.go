package core

import (
	"time"

	"github.com/samber/lo"

	"channelcast/internal/store"
)

// User is the client-facing view of a user.
type User struct {
	ID       int64
	Username string
	Avatar   string
}

// Channel is the client-facing view of a channel.
type Channel struct {
	ID      int64
	Name    string
	OwnerID int64
}

// Message is the client-facing view of a chat message.
type Message struct {
	ID        int64
	ChannelID int64
	Author    User
	Text      string
	CreatedAt time.Time
}

func userView(u *store.User) User {
	return User{ID: u.ID, Username: u.Username, Avatar: u.Avatar}
}

func userViews(users []*store.User) []User {
	return lo.Map(users, func(u *store.User, _ int) User {
		return userView(u)
	})
}

func channelView(c *store.Channel) Channel {
	return Channel{ID: c.ID, Name: c.Name, OwnerID: c.OwnerID}
}

func messageView(m *store.Message) Message {
	return Message{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		Author:    User{ID: m.AuthorID, Username: m.AuthorName, Avatar: m.AuthorAvatar},
		Text:      m.Body,
		CreatedAt: m.CreatedAt,
	}
}

func messageViews(messages []*store.Message) []Message {
	return lo.Map(messages, func(m *store.Message, _ int) Message {
		return messageView(m)
	})
}
