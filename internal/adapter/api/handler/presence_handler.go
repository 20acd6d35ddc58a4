package handler

import (
	"time"

	"github.com/labstack/echo/v4"

	"groupchat/internal/adapter/api/middleware"
	"groupchat/internal/domain/repository"
	"groupchat/internal/domain/service"
	"groupchat/pkg/response"
)

type PresenceHandler struct {
	presenceRepo repository.PresenceRepository
	freshness    time.Duration
	now          func() time.Time
}

func NewPresenceHandler(presenceRepo repository.PresenceRepository, freshness time.Duration) *PresenceHandler {
	return &PresenceHandler{
		presenceRepo: presenceRepo,
		freshness:    freshness,
		now:          time.Now,
	}
}

// OnlineUsers lists users with a fresh heartbeat, excluding the caller.
func (h *PresenceHandler) OnlineUsers(c echo.Context) error {
	self := ""
	if identity, ok := middleware.GetIdentity(c); ok {
		self = identity.DisplayName
	}

	records, err := h.presenceRepo.List(c.Request().Context())
	if err != nil {
		return response.Error(c, err)
	}
	online := service.OnlineUsers(records, self, h.now(), h.freshness)
	return response.List(c, online, len(online))
}
