package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	ws "groupchat/internal/infrastructure/websocket"
	"groupchat/internal/usecase"
	"groupchat/pkg/logger"
)

type WebSocketHandler struct {
	ctx      context.Context
	manager  *ws.Manager
	messages *ws.MessageHandler
	deps     usecase.SessionDeps
	upgrader gorillaws.Upgrader
}

// NewWebSocketHandler serves one chat session per connection. Sessions are
// torn down when ctx ends.
func NewWebSocketHandler(ctx context.Context, manager *ws.Manager, deps usecase.SessionDeps, allowedOrigins []string) *WebSocketHandler {
	return &WebSocketHandler{
		ctx:      ctx,
		manager:  manager,
		messages: ws.NewMessageHandler(),
		deps:     deps,
		upgrader: createUpgrader(allowedOrigins),
	}
}

func createUpgrader(allowedOrigins []string) gorillaws.Upgrader {
	allowAll := false
	allowedMap := make(map[string]bool)
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		allowedMap[origin] = true
	}

	return gorillaws.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return allowAll || origin == "" || allowedMap[origin]
		},
	}
}

// HandleWebSocket upgrades the request and blocks until the client leaves.
// Authentication happens in-band with a login message.
func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Warn("WebSocket upgrade error: %v", err)
		return nil
	}

	client := ws.NewClient(uuid.New().String(), conn)
	session := usecase.NewSession(client.ID, h.deps, client)
	logger.Debug("WebSocket: session %s opened from %s", session.ID(), c.RealIP())

	h.manager.ServeSession(h.ctx, client, session, h.messages)
	logger.Debug("WebSocket: session %s closed", session.ID())
	return nil
}
