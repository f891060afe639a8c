package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/shinyyama/cakemarket-backend/internal/reqctx"
)

// RequestContext copies the X-Request-Id chosen by echo's RequestID middleware
// into the request context so *Context log calls can pick it up.
func RequestContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		rid := c.Response().Header().Get(echo.HeaderXRequestID)
		if rid == "" {
			rid = c.Request().Header.Get(echo.HeaderXRequestID)
		}
		if rid != "" {
			req := c.Request()
			c.SetRequest(req.WithContext(reqctx.WithRequestID(req.Context(), rid)))
		}
		return next(c)
	}
}
