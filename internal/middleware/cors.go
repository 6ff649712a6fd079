package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"openai-gateway/internal/config"
)

// CORS returns an Echo middleware that sets the cross-origin headers on every
// response before the rest of the chain runs, so error responses carry them too.
// OPTIONS requests on any path are answered with 200 and an empty body.
//
// Echo's bundled CORS middleware only reacts when an Origin header is present
// and answers preflights with 204, which is why this one is separate.
func CORS(cfg config.CORSConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set(echo.HeaderAccessControlAllowOrigin, cfg.AllowOrigin)
			h.Set(echo.HeaderAccessControlAllowMethods, cfg.AllowMethods)
			h.Set(echo.HeaderAccessControlAllowHeaders, cfg.AllowHeaders)

			if c.Request().Method == http.MethodOptions {
				return c.NoContent(http.StatusOK)
			}

			return next(c)
		}
	}
}
