package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/contriboost/chat-relay/internal/config"
	"github.com/contriboost/chat-relay/internal/core"
	"github.com/contriboost/chat-relay/internal/verify"
)

// NewServer builds the relay HTTP server with the chat routes.
func NewServer(manager *core.Manager, verifier verify.Verifier, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           NewHandler(manager, verifier, cfg, logger),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// NewHandler wires the gin router behind the CORS handler.
func NewHandler(manager *core.Manager, verifier verify.Verifier, cfg *config.Config, logger *zerolog.Logger) stdhttp.Handler {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	hub := manager.Hub()
	router.GET("/health", func(c *gin.Context) {
		c.JSON(stdhttp.StatusOK, gin.H{"status": "ok", "rooms": hub.RoomCount()})
	})

	chat := NewChatHandlers(manager, logger)
	ws := NewWSHandler(manager, cfg, logger)
	participant := VerifyParticipant(verifier, logger)

	router.GET("/ws/chat/:contract_address", participant, ws.Handle)

	group := router.Group("/chat")
	group.GET("/history/:contract_address", participant, chat.History)
	group.POST("/edit/:contract_address", participant, chat.Edit)
	group.DELETE("/delete/:contract_address/:message_id", participant, chat.Delete)

	return cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{stdhttp.MethodGet, stdhttp.MethodPost, stdhttp.MethodDelete, stdhttp.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", HeaderWalletAddress},
		AllowCredentials: true,
	}).Handler(router)
}
