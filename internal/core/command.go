package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandLogin identifies the connection by username.
	CommandLogin CommandKind = iota
	// CommandJoinChannel switches the connection's viewed channel.
	CommandJoinChannel
	// CommandSendMessage posts a message to the viewed channel.
	CommandSendMessage
	// CommandCreateChannel creates a channel owned by the caller.
	CommandCreateChannel
	// CommandRemoveUser removes a participant (channel owner only).
	CommandRemoveUser
	// CommandSearchUsers looks up users by username substring.
	CommandSearchUsers
	// CommandSubscribeChannel opts in to new-message events for a channel
	// the connection is not viewing.
	CommandSubscribeChannel
	// CommandUnsubscribeChannel drops such a subscription.
	CommandUnsubscribeChannel
)

// Command represents an action requested by a client. Fields beyond Kind
// are set depending on the kind.
type Command struct {
	Kind      CommandKind
	Username  string // CommandLogin
	ChannelID int64  // join, remove, subscribe, unsubscribe
	Text      string // CommandSendMessage
	Name      string // CommandCreateChannel
	UserID    int64  // CommandRemoveUser
	Query     string // CommandSearchUsers
}
