package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"groupchat/internal/infrastructure/ratelimit"
	"groupchat/pkg/errors"
	"groupchat/pkg/logger"
	"groupchat/pkg/response"
)

// RateLimit limits an action per authenticated user, or per client IP when
// the route is public.
func RateLimit(limiter *ratelimit.RateLimiter, action string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key, _ := c.Get(ContextUID).(string)
			if key == "" {
				key = "ip:" + c.RealIP()
			}

			allowed, wait := limiter.Allow(key, action)
			if !allowed {
				logger.Warn("RATE LIMIT: %s blocked for %s (retry in %v)", action, key, wait)
				c.Response().Header().Set("Retry-After", strconv.Itoa(int(wait.Seconds()+0.999)))
				return response.Error(c, errors.TooManyRequests("Rate limit exceeded", wait))
			}
			return next(c)
		}
	}
}
