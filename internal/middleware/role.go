package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireIdentity aborts requests that carry no bound identity with 401.  It
// must run after Authenticate.
func RequireIdentity() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := IdentityFrom(c.Request().Context()); !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
			}
			return next(c)
		}
	}
}
