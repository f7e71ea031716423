package middleware

import (
	"github.com/labstack/echo/v4"
	jwtpkg "github.com/piresc/nebengjek-dispatch/internal/pkg/jwt"
	"github.com/piresc/nebengjek-dispatch/internal/pkg/models"
	"github.com/piresc/nebengjek-dispatch/internal/utils"
)

const principalKey = "principal"

// JWTAuthMiddleware resolves the bearer token into a principal stored on the echo context
func JWTAuthMiddleware(config models.JWTConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := jwtpkg.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				return utils.UnauthorizedResponse(c, "Authorization header is required")
			}

			p, err := jwtpkg.ParsePrincipal(token, config.Secret)
			if err != nil {
				return utils.UnauthorizedResponse(c, "Invalid token")
			}

			c.Set(principalKey, *p)
			c.Set("user_id", p.ID)
			return next(c)
		}
	}
}

// GetPrincipal returns the principal set by JWTAuthMiddleware
func GetPrincipal(c echo.Context) (models.Principal, bool) {
	p, ok := c.Get(principalKey).(models.Principal)
	return p, ok
}

// SetPrincipal stores p on the context, for handlers authenticated by other means and tests
func SetPrincipal(c echo.Context, p models.Principal) {
	c.Set(principalKey, p)
	c.Set("user_id", p.ID)
}
