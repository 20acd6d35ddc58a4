package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"groupchat/internal/domain/entity"
	"groupchat/internal/usecase"
	"groupchat/pkg/errors"
	"groupchat/pkg/response"
)

const (
	ContextUID      = "uid"
	ContextIdentity = "identity"

	displayNameHeader = "X-Display-Name"
)

type AuthMiddleware struct {
	authUseCase *usecase.AuthUseCase
}

func NewAuthMiddleware(authUseCase *usecase.AuthUseCase) *AuthMiddleware {
	return &AuthMiddleware{
		authUseCase: authUseCase,
	}
}

// Authenticate resolves the caller's identity from a Bearer token. The
// token query parameter is accepted for clients that cannot set headers.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		idToken, err := bearerToken(c)
		if err != nil {
			return response.Error(c, err)
		}

		identity, err := m.authUseCase.ResolveIdentity(c.Request().Context(), usecase.LoginInput{
			IDToken:     idToken,
			DisplayName: c.Request().Header.Get(displayNameHeader),
		})
		if err != nil {
			return response.Error(c, err)
		}

		c.Set(ContextUID, identity.UID)
		c.Set(ContextIdentity, identity)
		return next(c)
	}
}

func bearerToken(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if authHeader == "" {
		if token := c.QueryParam("token"); token != "" {
			return token, nil
		}
		return "", errors.Unauthorized("Authorization header is required", nil)
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
		return "", errors.Unauthorized("Invalid authorization format", nil)
	}
	return strings.TrimSpace(parts[1]), nil
}

// GetIdentity returns the identity set by Authenticate.
func GetIdentity(c echo.Context) (*entity.SessionIdentity, bool) {
	identity, ok := c.Get(ContextIdentity).(*entity.SessionIdentity)
	return identity, ok && identity != nil
}
