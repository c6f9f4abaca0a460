package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
// Callers that treat missing records as a no-op check for it with errors.Is.
var ErrNotFound = errors.New("not found")

// User represents a user in the system.
type User struct {
	ID        int64
	Username  string
	Avatar    string
	CreatedAt time.Time
}

// Channel represents a named chat channel.
// Participants live in a separate join table and are fetched on demand.
type Channel struct {
	ID        int64
	Name      string
	OwnerID   int64
	CreatedAt time.Time
}

// Message represents a persisted chat message. Messages are append-only
// and immutable once written. Author fields are denormalized from the
// users table so history payloads need no second lookup.
type Message struct {
	ID           int64
	ChannelID    int64
	AuthorID     int64
	AuthorName   string
	AuthorAvatar string
	Body         string
	CreatedAt    time.Time
}

// UserDirectory handles username lookup and search.
type UserDirectory interface {
	// GetUserByUsername retrieves a user by exact username.
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// GetUsersByID retrieves users for the given ids, ordered by id.
	// Missing ids are skipped, not an error.
	GetUsersByID(ctx context.Context, ids []int64) ([]*User, error)

	// SearchUsers matches usernames by case-insensitive substring.
	SearchUsers(ctx context.Context, query string) ([]*User, error)
}

// ChannelStore handles channel and participant persistence.
type ChannelStore interface {
	// CreateChannel creates a channel owned by ownerID with the given
	// initial participants.
	CreateChannel(ctx context.Context, name string, ownerID int64, participants []int64) (*Channel, error)

	// GetChannelByID retrieves a channel by id.
	GetChannelByID(ctx context.Context, id int64) (*Channel, error)

	// GetChannelByName retrieves a channel by its unique name.
	GetChannelByName(ctx context.Context, name string) (*Channel, error)

	// ListChannels lists all channels, newest first.
	ListChannels(ctx context.Context) ([]*Channel, error)

	// AddParticipant records userID as a participant of the channel.
	// Adding an existing participant is a no-op.
	AddParticipant(ctx context.Context, channelID, userID int64) error

	// RemoveParticipant removes userID from the channel's participant set.
	RemoveParticipant(ctx context.Context, channelID, userID int64) error

	// ListParticipants lists participant user ids in join order.
	ListParticipants(ctx context.Context, channelID int64) ([]int64, error)
}

// MessageStore handles the append-only message log.
type MessageStore interface {
	// AppendMessage persists a message with a server-assigned timestamp
	// and returns it with author fields populated.
	AppendMessage(ctx context.Context, channelID, authorID int64, body string) (*Message, error)

	// ListMessages retrieves messages from a channel, newest first.
	// If beforeID is provided, returns messages older than that id.
	ListMessages(ctx context.Context, channelID int64, limit int, beforeID *int64) ([]*Message, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserDirectory
	ChannelStore
	MessageStore

	// Close closes the underlying database connection.
	Close() error
}
