package router

import (
	"github.com/labstack/echo/v4"

	"groupchat/internal/adapter/api/handler"
	"groupchat/internal/adapter/api/middleware"
	"groupchat/internal/infrastructure/ratelimit"
)

// SetupChatRouter registers the read and group endpoints. Messages are
// written over the WebSocket only.
func SetupChatRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, limiter *ratelimit.RateLimiter) {
	chatHandler := handler.GetChatHandler()
	groupHandler := handler.GetGroupHandler()
	presenceHandler := handler.GetPresenceHandler()

	v1 := e.Group("/v1")
	v1.Use(authMiddleware.Authenticate)

	v1.GET("/messages", chatHandler.GetMessages)
	v1.GET("/presence", presenceHandler.OnlineUsers)

	v1.GET("/groups", groupHandler.ListGroups)
	v1.GET("/groups/:id", groupHandler.GetGroup)
	v1.POST("/groups", groupHandler.CreateGroup, middleware.RateLimit(limiter, ratelimit.ActionCreateGroup))
	v1.GET("/groups/:id/join", groupHandler.JoinPrompt)
	v1.POST("/groups/:id/join", groupHandler.Join, middleware.RateLimit(limiter, ratelimit.ActionJoinGroup))
}
