package handler

import (
	"github.com/labstack/echo/v4"

	"groupchat/internal/adapter/api/middleware"
	"groupchat/internal/usecase"
	"groupchat/pkg/errors"
	"groupchat/pkg/response"
)

type GroupHandler struct {
	groupUseCase *usecase.GroupUseCase
}

func NewGroupHandler(groupUseCase *usecase.GroupUseCase) *GroupHandler {
	return &GroupHandler{
		groupUseCase: groupUseCase,
	}
}

func (h *GroupHandler) ListGroups(c echo.Context) error {
	groups, err := h.groupUseCase.ListGroups(c.Request().Context())
	if err != nil {
		return response.Error(c, err)
	}
	return response.List(c, groups, len(groups))
}

func (h *GroupHandler) GetGroup(c echo.Context) error {
	group, err := h.groupUseCase.GetGroup(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, group)
}

func (h *GroupHandler) CreateGroup(c echo.Context) error {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		return response.Error(c, errors.Unauthorized("Authentication required", nil))
	}

	var input usecase.CreateGroupInput
	if err := c.Bind(&input); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&input); err != nil {
		return response.Error(c, err)
	}

	group, err := h.groupUseCase.CreateGroup(c.Request().Context(), identity.DisplayName, input)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, group)
}

// JoinPrompt returns the confirmation a client shows before joining.
func (h *GroupHandler) JoinPrompt(c echo.Context) error {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		return response.Error(c, errors.Unauthorized("Authentication required", nil))
	}

	prompt, err := h.groupUseCase.RequestJoin(c.Request().Context(), c.Param("id"), identity.DisplayName)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, prompt)
}

// Join adds the caller to the group. Joining twice is a no-op.
func (h *GroupHandler) Join(c echo.Context) error {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		return response.Error(c, errors.Unauthorized("Authentication required", nil))
	}

	group, err := h.groupUseCase.Join(c.Request().Context(), c.Param("id"), identity.DisplayName)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, group)
}
