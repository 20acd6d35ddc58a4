package router

import (
	"github.com/labstack/echo/v4"

	"groupchat/internal/adapter/api/middleware"
	"groupchat/internal/infrastructure/ratelimit"
)

func Setup(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, limiter *ratelimit.RateLimiter) {
	SetupAuthRouter(e, authMiddleware)
	SetupChatRouter(e, authMiddleware, limiter)
	SetupFileRouter(e, authMiddleware, limiter)
	SetupHealthRouter(e)
}
