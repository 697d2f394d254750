package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/expense-tracker/internal/model"
	"github.com/iliyamo/expense-tracker/internal/service"
)

// UserHandler serves the profile of the authenticated caller.
type UserHandler struct {
	Identity *service.IdentityService
}

// NewUserHandler returns a handler backed by identity.
func NewUserHandler(identity *service.IdentityService) *UserHandler {
	return &UserHandler{Identity: identity}
}

// Me returns the caller's profile.
func (h *UserHandler) Me(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	u, err := h.Identity.Profile(c.Request().Context(), uid)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newUserResponse(u))
}

// UpdateMe applies a partial profile update.  Blank fields are ignored.
func (h *UserHandler) UpdateMe(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	var req updateUserRequest
	if err := c.Bind(&req); err != nil {
		return bindError(err)
	}
	req.Name = nilIfBlank(req.Name)
	req.Email = nilIfBlank(req.Email)
	if err := c.Validate(&req); err != nil {
		return err
	}

	u, err := h.Identity.UpdateProfile(c.Request().Context(), uid, model.UserPatch{Name: req.Name, Email: req.Email})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newUserResponse(u))
}

// DeleteMe removes the caller's account and every expense it owns.  The
// caller's token stays valid until it expires but no longer resolves to a
// user.
func (h *UserHandler) DeleteMe(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	if err := h.Identity.DeleteAccount(c.Request().Context(), uid); err != nil {
		return err
	}
	return c.NoContent(http.StatusOK)
}

func nilIfBlank(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
