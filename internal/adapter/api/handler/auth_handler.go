package handler

import (
	"github.com/labstack/echo/v4"

	"groupchat/internal/adapter/api/middleware"
	"groupchat/pkg/errors"
	"groupchat/pkg/response"
)

type AuthHandler struct{}

func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

// Me returns the identity resolved from the caller's token, including the
// guest display name a chat session would use.
func (h *AuthHandler) Me(c echo.Context) error {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		return response.Error(c, errors.Unauthorized("Authentication required", nil))
	}
	return response.Success(c, identity)
}
