package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"channelcast/internal/store"
)

const defaultHistoryPageSize = 50

// APIHandlers provides the read-only REST endpoints over the stores.
type APIHandlers struct {
	store store.Store
	log   *zerolog.Logger
}

// NewAPIHandlers creates a new API handlers instance.
func NewAPIHandlers(st store.Store, logger *zerolog.Logger) *APIHandlers {
	return &APIHandlers{store: st, log: logger}
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ChannelResponse is the wire shape of a channel.
type ChannelResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Owner int64  `json:"owner"`
}

// UserResponse is the wire shape of a user.
type UserResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

// MessageResponse is the wire shape of a message.
type MessageResponse struct {
	ID        int64        `json:"id"`
	ChannelID int64        `json:"channelId"`
	User      UserResponse `json:"user"`
	Message   string       `json:"message"`
	CreatedAt string       `json:"createdAt"`
}

// ListChannels handles GET /api/channels.
func (h *APIHandlers) ListChannels(c *gin.Context) {
	channels, err := h.store.ListChannels(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list channels")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, lo.Map(channels, func(ch *store.Channel, _ int) ChannelResponse {
		return ChannelResponse{ID: ch.ID, Name: ch.Name, Owner: ch.OwnerID}
	}))
}

// ListMessages handles GET /api/channels/:id/messages?limit=&before=.
// Messages come back newest first; before is a message id cursor.
func (h *APIHandlers) ListMessages(c *gin.Context) {
	channelID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid channel id"})
		return
	}

	limit := defaultHistoryPageSize
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 200 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
			return
		}
		limit = parsed
	}

	var beforeID *int64
	if raw := c.Query("before"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid before cursor"})
			return
		}
		beforeID = &parsed
	}

	messages, err := h.store.ListMessages(c.Request.Context(), channelID, limit, beforeID)
	if err != nil {
		h.log.Error().Err(err).Int64("channel_id", channelID).Msg("failed to list messages")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, lo.Map(messages, func(m *store.Message, _ int) MessageResponse {
		return MessageResponse{
			ID:        m.ID,
			ChannelID: m.ChannelID,
			User:      UserResponse{ID: m.AuthorID, Username: m.AuthorName, Avatar: m.AuthorAvatar},
			Message:   m.Body,
			CreatedAt: m.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		}
	}))
}

// SearchUsers handles GET /api/users?q=.
func (h *APIHandlers) SearchUsers(c *gin.Context) {
	users, err := h.store.SearchUsers(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.log.Error().Err(err).Msg("failed to search users")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, lo.Map(users, func(u *store.User, _ int) UserResponse {
		return UserResponse{ID: u.ID, Username: u.Username, Avatar: u.Avatar}
	}))
}
