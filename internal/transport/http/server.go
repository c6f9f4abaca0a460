package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"channelcast/internal/config"
	"channelcast/internal/core"
	"channelcast/internal/store"
)

// NewServer builds the HTTP server: the WebSocket endpoint plus a small
// read-only REST API over the stores.
func NewServer(hub *core.Hub, st store.Store, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	router.GET("/healthz", healthHandler)
	router.GET("/ws", gin.WrapH(NewWSHandler(hub, logger)))

	handlers := NewAPIHandlers(st, logger)
	api := router.Group("/api")
	{
		api.GET("/channels", handlers.ListChannels)
		api.GET("/channels/:id/messages", handlers.ListMessages)
		api.GET("/users", handlers.SearchUsers)
	}

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.JSON(stdhttp.StatusOK, gin.H{"status": "ok"})
}
