package core

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventLoginSuccess confirms a login and names the default channel.
	EventLoginSuccess EventKind = iota
	// EventLoginFailed rejects a login attempt.
	EventLoginFailed
	// EventChannelHistory delivers message history, oldest first.
	EventChannelHistory
	// EventChannelUsers delivers the full participant list of a channel.
	EventChannelUsers
	// EventUserJoined notifies viewers about a user joining the channel.
	EventUserJoined
	// EventUserLeft notifies viewers about a user leaving the channel.
	EventUserLeft
	// EventNewMessage notifies about a chat message in a channel.
	EventNewMessage
	// EventChannelCreated confirms channel creation to the creator.
	EventChannelCreated
	// EventSearchResults delivers user search results to the caller.
	EventSearchResults
)

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind      EventKind
	ChannelID int64
	User      *User     // login subject, joined/left user
	Users     []User    // channel users, search results
	Channel   *Channel  // created channel
	Message   *Message  // new message
	Messages  []Message // history
	Reason    string    // login failure reason
}
