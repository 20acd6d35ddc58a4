package handler

import (
	"github.com/labstack/echo/v4"

	"groupchat/internal/infrastructure/firebase"
	"groupchat/pkg/errors"
	"groupchat/pkg/response"
)

// DevTokenHandler mints tokens for the memory backend's DevTokenVerifier.
type DevTokenHandler struct {
	tokens *firebase.DevTokenVerifier
}

var devTokenHandler *DevTokenHandler

func NewDevTokenHandler(tokens *firebase.DevTokenVerifier) *DevTokenHandler {
	return &DevTokenHandler{
		tokens: tokens,
	}
}

func SetupDevTokenHandler(tokens *firebase.DevTokenVerifier) {
	devTokenHandler = NewDevTokenHandler(tokens)
}

func GetDevTokenHandler() *DevTokenHandler {
	return devTokenHandler
}

// GenerateGuestToken: GET /_dev/token/guest?uid=
func (h *DevTokenHandler) GenerateGuestToken(c echo.Context) error {
	uid := c.QueryParam("uid")
	if uid == "" {
		return response.Error(c, errors.BadRequest("uid is required", nil))
	}
	return response.Success(c, map[string]string{
		"token": h.tokens.MintGuest(uid),
		"uid":   uid,
	})
}

// GenerateUserToken: GET /_dev/token/user?uid=&name=
func (h *DevTokenHandler) GenerateUserToken(c echo.Context) error {
	uid, name := c.QueryParam("uid"), c.QueryParam("name")
	if uid == "" || name == "" {
		return response.Error(c, errors.BadRequest("uid and name are required", nil))
	}
	return response.Success(c, map[string]string{
		"token": h.tokens.MintUser(uid, name),
		"uid":   uid,
	})
}
