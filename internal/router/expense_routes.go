package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/expense-tracker/internal/handler"
	"github.com/iliyamo/expense-tracker/internal/middleware"
)

// RegisterExpenses registers the expense endpoints.  All routes require an
// authenticated caller and only ever touch the caller's own records.
func RegisterExpenses(e *echo.Echo, h *handler.ExpenseHandler) {
	g := e.Group("/expenses", middleware.RequireIdentity())

	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.PATCH("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}
