package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/expense-tracker/internal/handler"
	"github.com/iliyamo/expense-tracker/internal/middleware"
)

// RegisterUsers registers the profile endpoints of the authenticated caller.
func RegisterUsers(e *echo.Echo, h *handler.UserHandler) {
	g := e.Group("/users", middleware.RequireIdentity())
	g.GET("/me", h.Me)
	g.PATCH("/me", h.UpdateMe)
	g.DELETE("/me", h.DeleteMe)
}
