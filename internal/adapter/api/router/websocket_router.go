package router

import (
	"github.com/labstack/echo/v4"

	"groupchat/internal/adapter/api/handler"
)

// SetupWebSocketRouter registers /ws. Authentication is in-band.
func SetupWebSocketRouter(e *echo.Echo, wsHandler *handler.WebSocketHandler) {
	e.GET("/ws", wsHandler.HandleWebSocket)
}
