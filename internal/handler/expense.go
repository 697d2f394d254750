package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/expense-tracker/internal/middleware"
	"github.com/iliyamo/expense-tracker/internal/service"
)

// ExpenseHandler exposes expense CRUD for the authenticated caller.  The
// caller id always comes from the bound identity, never from the request.
type ExpenseHandler struct {
	Expenses *service.ExpenseService
}

// NewExpenseHandler returns a handler backed by expenses.
func NewExpenseHandler(expenses *service.ExpenseService) *ExpenseHandler {
	if expenses == nil {
		panic("nil service passed to NewExpenseHandler")
	}
	return &ExpenseHandler{Expenses: expenses}
}

// Create handles POST /expenses and returns 201 with the stored expense.
func (h *ExpenseHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	var req createExpenseRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	e, err := h.Expenses.Create(c.Request().Context(), req.input(), uid)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, newExpenseResponse(e))
}

// List handles GET /expenses.  Only the caller's expenses are returned.
func (h *ExpenseHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	list, err := h.Expenses.List(c.Request().Context(), uid)
	if err != nil {
		return err
	}
	out := make([]expenseResponse, 0, len(list))
	for i := range list {
		out = append(out, newExpenseResponse(&list[i]))
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /expenses/:id.
func (h *ExpenseHandler) Get(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	id, err := expenseID(c)
	if err != nil {
		return err
	}
	e, err := h.Expenses.Get(c.Request().Context(), id, uid)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newExpenseResponse(e))
}

// Update applies a partial update.  Absent fields keep their value.
func (h *ExpenseHandler) Update(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	id, err := expenseID(c)
	if err != nil {
		return err
	}
	var req updateExpenseRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	e, err := h.Expenses.Update(c.Request().Context(), id, uid, req.patch())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newExpenseResponse(e))
}

// Delete handles DELETE /expenses/:id.
func (h *ExpenseHandler) Delete(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	id, err := expenseID(c)
	if err != nil {
		return err
	}
	if err := h.Expenses.Delete(c.Request().Context(), id, uid); err != nil {
		return err
	}
	return c.NoContent(http.StatusOK)
}

// getUserID returns the id of the identity bound by the authentication gate.
func getUserID(c echo.Context) (uint64, error) {
	id, ok := middleware.IdentityFrom(c.Request().Context())
	if !ok {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	}
	return id.UserID, nil
}

// expenseID parses the :id path parameter, which must be a positive integer.
func expenseID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, &requestError{msg: MsgInvalidExpenseID, cause: err}
	}
	return id, nil
}
