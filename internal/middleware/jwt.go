package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
)

const bearerPrefix = "Bearer "

// TokenValidator is the subset of the token service used by the gate.
type TokenValidator interface {
	Validate(token string) bool
	SubjectOf(token string) (uint64, error)
}

// Authenticate returns an Echo middleware that binds the identity carried by
// a valid Bearer token to the request context.  It never rejects a request:
// a missing, malformed or invalid token leaves the request unauthenticated
// and access control is left to RequireIdentity on the protected routes.
// The store is never consulted.
func Authenticate(tokens TokenValidator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(auth, bearerPrefix) {
				return next(c)
			}
			raw := strings.TrimPrefix(auth, bearerPrefix)
			if !tokens.Validate(raw) {
				return next(c)
			}
			id, err := tokens.SubjectOf(raw)
			if err != nil {
				return next(c)
			}

			req := c.Request()
			c.SetRequest(req.WithContext(WithIdentity(req.Context(), Identity{UserID: id})))
			return next(c)
		}
	}
}
