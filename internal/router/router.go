// Package router wires handlers and middleware into an Echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/expense-tracker/internal/handler"
	"github.com/iliyamo/expense-tracker/internal/logging"
	"github.com/iliyamo/expense-tracker/internal/middleware"
)

// Deps are the handlers and collaborators the routes need.
type Deps struct {
	Auth     *handler.AuthHandler
	Users    *handler.UserHandler
	Expenses *handler.ExpenseHandler
	Tokens   middleware.TokenValidator
	Log      logging.Logger
}

// New builds an Echo instance with global middleware, validation, error
// rendering and every route registered.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = handler.ErrorHandler(d.Log)

	e.Use(
		middleware.RequestID(),
		middleware.RequestLogger(d.Log),
		echomw.Recover(),
		// The gate runs on every request; it never rejects.
		middleware.Authenticate(d.Tokens),
	)

	RegisterRoutes(e)
	RegisterAuth(e, d.Auth)
	RegisterUsers(e, d.Users)
	RegisterExpenses(e, d.Expenses)
	return e
}

// RegisterRoutes registers routes that do not require authentication.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the public registration and login endpoints.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler) {
	g := e.Group("/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
}
