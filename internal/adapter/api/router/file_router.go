package router

import (
	"github.com/labstack/echo/v4"

	"groupchat/internal/adapter/api/handler"
	"groupchat/internal/adapter/api/middleware"
	"groupchat/internal/infrastructure/ratelimit"
)

// SetupFileRouter is a no-op when no upload backend is configured.
func SetupFileRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, limiter *ratelimit.RateLimiter) {
	fileHandler := handler.GetFileHandler()
	if fileHandler == nil {
		return
	}

	files := e.Group("/v1/uploads")
	files.Use(authMiddleware.Authenticate)
	files.POST("", fileHandler.UploadImage, middleware.RateLimit(limiter, ratelimit.ActionUpload))
}
