package router

import (
	"github.com/labstack/echo/v4"

	"groupchat/internal/adapter/api/handler"
)

// SetupDevRouter exposes token minting for the memory backend only.
func SetupDevRouter(e *echo.Echo) {
	devTokenHandler := handler.GetDevTokenHandler()
	if devTokenHandler == nil {
		return
	}

	e.GET("/_dev/token/guest", devTokenHandler.GenerateGuestToken)
	e.GET("/_dev/token/user", devTokenHandler.GenerateUserToken)
}
