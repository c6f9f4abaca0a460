package core

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"channelcast/internal/store"
)

const (
	// DefaultChannelName is the channel every user lands in after login.
	// It is created lazily on the first successful login.
	DefaultChannelName = "General"

	// historyLimit caps the number of messages delivered as channel history.
	historyLimit = 100

	defaultStoreTimeout = 3 * time.Second
)

// Hub is the dispatcher: it validates inbound commands against the
// connection's session state, talks to the stores, and decides which
// outbound events go to which connections. All dispatch work runs on a
// single goroutine (Run), so registry and participant-list mutations are
// serialized without per-channel locks.
type Hub struct {
	registry     *Registry
	router       *Router
	store        store.Store
	log          zerolog.Logger
	storeTimeout time.Duration

	commands   chan clientCommand
	unregister chan *Client
}

type clientCommand struct {
	client *Client
	cmd    *Command
}

// NewHub creates a hub over the given store. A nil logger disables logging.
func NewHub(st store.Store, logger *zerolog.Logger, storeTimeout time.Duration) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if storeTimeout <= 0 {
		storeTimeout = defaultStoreTimeout
	}

	registry := NewRegistry()
	return &Hub{
		registry:     registry,
		router:       NewRouter(registry),
		store:        st,
		log:          logger.With().Str("component", "hub").Logger(),
		storeTimeout: storeTimeout,
		commands:     make(chan clientCommand, 256),
		unregister:   make(chan *Client, 64),
	}
}

// Registry exposes the connection registry, mainly for inspection in tests.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// RegisterClient adds a connection and starts pumping its commands into
// the dispatch loop. Called on transport accept.
func (h *Hub) RegisterClient(c *Client) {
	h.registry.Register(c)

	go func() {
		for cmd := range c.Commands {
			h.commands <- clientCommand{client: c, cmd: cmd}
		}
	}()
}

// UnregisterClient schedules the disconnect flow for a connection.
// Called on transport close; calling it twice is harmless.
func (h *Hub) UnregisterClient(c *Client) {
	h.unregister <- c
}

// Run processes commands until the context is cancelled. One dispatcher
// invocation per inbound event; store calls are the only suspension
// points and are bounded by the configured store timeout.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.unregister:
			h.handleDisconnect(ctx, c)
		case cc := <-h.commands:
			h.dispatch(ctx, cc.client, cc.cmd)
		}
	}
}

func (h *Hub) dispatch(ctx context.Context, c *Client, cmd *Command) {
	if cmd == nil || !h.registry.Registered(c) {
		return
	}

	switch cmd.Kind {
	case CommandLogin:
		h.handleLogin(ctx, c, cmd.Username)
	case CommandJoinChannel:
		h.handleJoin(ctx, c, cmd.ChannelID)
	case CommandSendMessage:
		h.handleSend(ctx, c, cmd.Text)
	case CommandCreateChannel:
		h.handleCreate(ctx, c, cmd.Name)
	case CommandRemoveUser:
		h.handleRemoveUser(ctx, c, cmd.ChannelID, cmd.UserID)
	case CommandSearchUsers:
		h.handleSearch(ctx, c, cmd.Query)
	case CommandSubscribeChannel:
		h.handleSubscribe(ctx, c, cmd.ChannelID)
	case CommandUnsubscribeChannel:
		h.registry.RemoveSubscription(c, cmd.ChannelID)
	default:
		h.log.Debug().Str("client_id", c.ID).Int("kind", int(cmd.Kind)).Msg("unknown command kind")
	}
}

func (h *Hub) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, h.storeTimeout)
}

// handleLogin resolves the username, lands the connection in the default
// channel and replies with login result, history and the refreshed roster.
func (h *Hub) handleLogin(ctx context.Context, c *Client, username string) {
	if _, _, ok := h.registry.Identity(c); ok {
		h.router.Send(c, &Event{Kind: EventLoginFailed, Reason: ReasonAlreadyLoggedIn})
		return
	}

	sctx, cancel := h.storeCtx(ctx)
	defer cancel()

	user, err := h.store.GetUserByUsername(sctx, username)
	if errors.Is(err, store.ErrNotFound) {
		h.router.Send(c, &Event{Kind: EventLoginFailed, Reason: ReasonUnknownUser})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("username", username).Msg("login abandoned: user lookup")
		return
	}

	general, err := h.defaultChannel(sctx, user.ID)
	if err != nil {
		h.log.Error().Err(err).Msg("login abandoned: default channel")
		return
	}

	if err := h.store.AddParticipant(sctx, general.ID, user.ID); err != nil {
		h.log.Error().Err(err).Int64("channel_id", general.ID).Msg("login abandoned: add participant")
		return
	}

	// Gather everything before emitting so a store failure leaves no
	// partial broadcast behind.
	history, err := h.channelHistory(sctx, general.ID)
	if err != nil {
		h.log.Error().Err(err).Msg("login abandoned: history")
		return
	}
	roster, err := h.participantUsers(sctx, general.ID)
	if err != nil {
		h.log.Error().Err(err).Msg("login abandoned: roster")
		return
	}

	if err := h.registry.SetIdentity(c, user.ID, user.Username); err != nil {
		h.router.Send(c, &Event{Kind: EventLoginFailed, Reason: ReasonAlreadyLoggedIn})
		return
	}
	h.registry.SetViewedChannel(c, general.ID)

	view := userView(user)
	h.router.Send(c, &Event{Kind: EventLoginSuccess, User: &view, ChannelID: general.ID})
	h.router.Send(c, &Event{Kind: EventChannelHistory, ChannelID: general.ID, Messages: history})
	h.router.BroadcastViewing(general.ID, &Event{Kind: EventChannelUsers, ChannelID: general.ID, Users: roster})

	h.log.Info().Str("client_id", c.ID).Str("username", user.Username).Msg("logged in")
}

// defaultChannel resolves the default channel, creating it with ownerID
// as owner if it does not exist yet. Creation cannot race because the
// run loop serializes all logins.
func (h *Hub) defaultChannel(ctx context.Context, ownerID int64) (*store.Channel, error) {
	general, err := h.store.GetChannelByName(ctx, DefaultChannelName)
	if err == nil {
		return general, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	return h.store.CreateChannel(ctx, DefaultChannelName, ownerID, nil)
}

// handleJoin switches the viewed channel. Unknown channel ids fail
// silently and leave the current viewed channel untouched.
func (h *Hub) handleJoin(ctx context.Context, c *Client, channelID int64) {
	userID, username, ok := h.registry.Identity(c)
	if !ok {
		return
	}

	sctx, cancel := h.storeCtx(ctx)
	defer cancel()

	if _, err := h.store.GetChannelByID(sctx, channelID); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			h.log.Error().Err(err).Int64("channel_id", channelID).Msg("join abandoned: channel lookup")
		}
		return
	}

	if err := h.store.AddParticipant(sctx, channelID, userID); err != nil {
		h.log.Error().Err(err).Int64("channel_id", channelID).Msg("join abandoned: add participant")
		return
	}

	history, err := h.channelHistory(sctx, channelID)
	if err != nil {
		h.log.Error().Err(err).Msg("join abandoned: history")
		return
	}
	roster, err := h.participantUsers(sctx, channelID)
	if err != nil {
		h.log.Error().Err(err).Msg("join abandoned: roster")
		return
	}

	h.registry.SetViewedChannel(c, channelID)

	h.router.BroadcastViewing(channelID, &Event{Kind: EventChannelUsers, ChannelID: channelID, Users: roster})
	h.router.Send(c, &Event{Kind: EventChannelHistory, ChannelID: channelID, Messages: history})
	h.router.BroadcastViewingExcept(channelID, &Event{
		Kind:      EventUserJoined,
		ChannelID: channelID,
		User:      &User{ID: userID, Username: username},
	}, c)
}

// handleSend persists the message, then fans it out to every connection
// viewing or subscribed to the channel, including the sender. Messages
// are never broadcast before being durably persisted.
func (h *Hub) handleSend(ctx context.Context, c *Client, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	userID, _, ok := h.registry.Identity(c)
	if !ok {
		return
	}
	channelID, ok := h.registry.ViewedChannel(c)
	if !ok {
		return
	}

	sctx, cancel := h.storeCtx(ctx)
	defer cancel()

	msg, err := h.store.AppendMessage(sctx, channelID, userID, text)
	if err != nil {
		h.log.Error().Err(err).Int64("channel_id", channelID).Msg("send abandoned: append message")
		return
	}

	view := messageView(msg)
	h.router.Broadcast(channelID, &Event{Kind: EventNewMessage, ChannelID: channelID, Message: &view})
}

// handleCreate persists a channel with the caller as owner and sole
// initial participant, replying only to the caller.
func (h *Hub) handleCreate(ctx context.Context, c *Client, name string) {
	userID, _, ok := h.registry.Identity(c)
	if !ok {
		return
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}

	sctx, cancel := h.storeCtx(ctx)
	defer cancel()

	channel, err := h.store.CreateChannel(sctx, name, userID, []int64{userID})
	if err != nil {
		h.log.Error().Err(err).Str("name", name).Msg("create abandoned: create channel")
		return
	}

	view := channelView(channel)
	h.router.Send(c, &Event{Kind: EventChannelCreated, ChannelID: channel.ID, Channel: &view})
}

// handleRemoveUser removes a participant on behalf of the channel owner.
// Any other caller's request is a silent no-op that never reveals whether
// the channel or user exists. The removed user's own connection state is
// left untouched: it keeps viewing the channel and receiving its events
// until it navigates elsewhere.
func (h *Hub) handleRemoveUser(ctx context.Context, c *Client, channelID, targetID int64) {
	userID, _, ok := h.registry.Identity(c)
	if !ok {
		return
	}

	sctx, cancel := h.storeCtx(ctx)
	defer cancel()

	channel, err := h.store.GetChannelByID(sctx, channelID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			h.log.Error().Err(err).Int64("channel_id", channelID).Msg("remove abandoned: channel lookup")
		}
		return
	}
	if channel.OwnerID != userID {
		return
	}

	if err := h.store.RemoveParticipant(sctx, channelID, targetID); err != nil {
		h.log.Error().Err(err).Int64("channel_id", channelID).Msg("remove abandoned: remove participant")
		return
	}

	roster, err := h.participantUsers(sctx, channelID)
	if err != nil {
		h.log.Error().Err(err).Msg("remove abandoned: roster")
		return
	}

	h.router.BroadcastViewing(channelID, &Event{Kind: EventChannelUsers, ChannelID: channelID, Users: roster})
	h.router.BroadcastViewing(channelID, &Event{
		Kind:      EventUserLeft,
		ChannelID: channelID,
		User:      &User{ID: targetID},
	})
}

// handleSearch matches usernames case-insensitively and replies only to
// the caller. No identity required; the login form uses this too.
func (h *Hub) handleSearch(ctx context.Context, c *Client, query string) {
	sctx, cancel := h.storeCtx(ctx)
	defer cancel()

	users, err := h.store.SearchUsers(sctx, query)
	if err != nil {
		h.log.Error().Err(err).Str("query", query).Msg("search abandoned")
		return
	}

	h.router.Send(c, &Event{Kind: EventSearchResults, Users: userViews(users)})
}

// handleSubscribe opts the connection in to new-message events for a
// channel it is not viewing. The channel must resolve; only the registry
// is mutated, the participant set is not.
func (h *Hub) handleSubscribe(ctx context.Context, c *Client, channelID int64) {
	if _, _, ok := h.registry.Identity(c); !ok {
		return
	}

	sctx, cancel := h.storeCtx(ctx)
	defer cancel()

	if _, err := h.store.GetChannelByID(sctx, channelID); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			h.log.Error().Err(err).Int64("channel_id", channelID).Msg("subscribe abandoned: channel lookup")
		}
		return
	}

	h.registry.AddSubscription(c, channelID)
}

// handleDisconnect removes the connection from the registry first, so
// none of the farewell broadcasts target the closing connection, then
// withdraws the user from the viewed channel's participant set.
func (h *Hub) handleDisconnect(ctx context.Context, c *Client) {
	userID, _, identified := h.registry.Identity(c)
	channelID, hadViewed := h.registry.ViewedChannel(c)

	if !h.registry.Unregister(c) {
		return
	}
	close(c.Events)

	if !identified || !hadViewed {
		return
	}

	sctx, cancel := h.storeCtx(ctx)
	defer cancel()

	if err := h.store.RemoveParticipant(sctx, channelID, userID); err != nil {
		h.log.Error().Err(err).Int64("channel_id", channelID).Msg("disconnect cleanup abandoned: remove participant")
		return
	}

	roster, err := h.participantUsers(sctx, channelID)
	if err != nil {
		h.log.Error().Err(err).Msg("disconnect cleanup abandoned: roster")
		return
	}

	h.router.BroadcastViewing(channelID, &Event{Kind: EventChannelUsers, ChannelID: channelID, Users: roster})
	h.router.BroadcastViewing(channelID, &Event{
		Kind:      EventUserLeft,
		ChannelID: channelID,
		User:      &User{ID: userID},
	})

	h.log.Info().Str("client_id", c.ID).Msg("disconnected")
}

// channelHistory loads the most recent messages and returns them oldest
// first, the order clients render history in.
func (h *Hub) channelHistory(ctx context.Context, channelID int64) ([]Message, error) {
	messages, err := h.store.ListMessages(ctx, channelID, historyLimit, nil)
	if err != nil {
		return nil, err
	}
	views := messageViews(messages)
	for i, j := 0, len(views)-1; i < j; i, j = i+1, j-1 {
		views[i], views[j] = views[j], views[i]
	}
	return views, nil
}

// participantUsers resolves the channel's persisted participant set to
// user views at this instant.
func (h *Hub) participantUsers(ctx context.Context, channelID int64) ([]User, error) {
	ids, err := h.store.ListParticipants(ctx, channelID)
	if err != nil {
		return nil, err
	}
	users, err := h.store.GetUsersByID(ctx, ids)
	if err != nil {
		return nil, err
	}
	return userViews(users), nil
}
