package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// ConnectionCounter reports live WebSocket connections.
type ConnectionCounter interface {
	Count() int
}

type HealthHandler struct {
	backend     string
	connections ConnectionCounter
	started     time.Time
}

var healthHandler *HealthHandler

func NewHealthHandler(backend string, connections ConnectionCounter) *HealthHandler {
	return &HealthHandler{
		backend:     backend,
		connections: connections,
		started:     time.Now(),
	}
}

func SetupHealthHandler(backend string, connections ConnectionCounter) {
	healthHandler = NewHealthHandler(backend, connections)
}

func GetHealthHandler() *HealthHandler {
	return healthHandler
}

func (h *HealthHandler) CheckHealth(c echo.Context) error {
	body := map[string]interface{}{
		"status":  "ok",
		"backend": h.backend,
		"time":    time.Now().UTC().Format(time.RFC3339),
		"uptime":  time.Since(h.started).Round(time.Second).String(),
	}
	if h.connections != nil {
		body["connections"] = h.connections.Count()
	}
	return c.JSON(http.StatusOK, body)
}
