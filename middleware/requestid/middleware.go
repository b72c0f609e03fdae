package requestid

import (
	"context"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const Header = "X-Request-ID"

type contextKey struct{}

// Middleware attaches a correlation identifier to every request: reused from
// the inbound header when present, freshly generated otherwise. The ID rides
// the request context and is echoed back on the response.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(Header)
			if id == "" {
				id = uuid.NewString()
			}

			ctx := context.WithValue(c.Request().Context(), contextKey{}, id)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Response().Header().Set(Header, id)

			return next(c)
		}
	}
}

// FromContext returns the correlation identifier, or "" outside an active
// request scope. Callers must not assume presence.
func FromContext(ctx context.Context) string {
	if id, ok := ctx.Value(contextKey{}).(string); ok {
		return id
	}
	return ""
}
