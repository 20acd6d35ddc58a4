package handler

import (
	"time"

	"github.com/labstack/echo/v4"

	"groupchat/internal/adapter/api/middleware"
	"groupchat/internal/domain/entity"
	"groupchat/internal/domain/service"
	"groupchat/internal/usecase"
	"groupchat/pkg/errors"
	"groupchat/pkg/response"
	"groupchat/pkg/utils"
)

type ChatHandler struct {
	chatUseCase  *usecase.ChatUseCase
	groupUseCase *usecase.GroupUseCase
}

func NewChatHandler(chatUseCase *usecase.ChatUseCase, groupUseCase *usecase.GroupUseCase) *ChatHandler {
	return &ChatHandler{
		chatUseCase:  chatUseCase,
		groupUseCase: groupUseCase,
	}
}

// GetMessages returns the date-sectioned view for a channel or group.
// Query: channel, group_id, tz (IANA name) and limit.
func (h *ChatHandler) GetMessages(c echo.Context) error {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		return response.Error(c, errors.Unauthorized("Authentication required", nil))
	}

	sel := service.Selection{
		Channel: entity.Channel(c.QueryParam("channel")),
		GroupID: c.QueryParam("group_id"),
	}
	if sel.Channel == "" {
		sel.Channel = entity.ChannelGlobal
	}
	if !sel.Channel.Valid() {
		return response.Error(c, errors.BadRequest("Unknown channel: "+string(sel.Channel), nil))
	}
	if sel.GroupID != "" {
		sel.Channel = entity.ChannelGroup
		group, err := h.groupUseCase.GetGroup(c.Request().Context(), sel.GroupID)
		if err != nil {
			return response.Error(c, err)
		}
		if !group.HasMember(identity.DisplayName) {
			return response.Error(c, errors.Forbidden("Join the group to read its messages", nil))
		}
	} else if sel.Channel == entity.ChannelGroup {
		return response.Error(c, errors.BadRequest("group_id is required for the group channel", nil))
	}

	loc := time.UTC
	if tz := c.QueryParam("tz"); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return response.Error(c, errors.BadRequest("Unknown timezone: "+tz, err))
		}
		loc = l
	}

	sections, total, err := h.chatUseCase.ListView(c.Request().Context(), sel, loc, utils.GetLimitParam(c))
	if err != nil {
		return response.Error(c, err)
	}
	if sections == nil {
		sections = []service.DateSection{}
	}
	return response.List(c, sections, total)
}
