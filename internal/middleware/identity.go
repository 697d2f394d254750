package middleware

import (
	"context"
	"strconv"

	"github.com/labstack/echo/v4"
)

// Identity is the authenticated caller bound to a single request.
type Identity struct {
	UserID uint64
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity bound to ctx, if any.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok && id.UserID != 0
}

// userID returns the caller id for logging, or "guest" when the request is
// unauthenticated.
func userID(c echo.Context) string {
	id, ok := IdentityFrom(c.Request().Context())
	if !ok {
		return "guest"
	}
	return strconv.FormatUint(id.UserID, 10)
}
