package handler

import (
	"encoding/json"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/expense-tracker/internal/model"
)

// ----- requests -----

type registerRequest struct {
	Name     string `json:"name" validate:"notblank,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"notblank"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"notblank"`
}

type updateUserRequest struct {
	Name  *string `json:"name" validate:"omitempty,max=255"`
	Email *string `json:"email" validate:"omitempty,email,max=255"`
}

type createExpenseRequest struct {
	Category    string      `json:"category" validate:"notblank,max=100"`
	SubCategory string      `json:"subCategory" validate:"notblank,max=100"`
	Description string      `json:"description"`
	Amount      *amount     `json:"amount" validate:"required,gt=0,lt=100000000000000000"`
	Date        *model.Date `json:"date" validate:"required"`
}

func (r createExpenseRequest) input() model.ExpenseInput {
	return model.ExpenseInput{
		Category:    r.Category,
		SubCategory: r.SubCategory,
		Description: r.Description,
		Amount:      r.Amount.Decimal,
		Date:        *r.Date,
	}
}

type updateExpenseRequest struct {
	Category    *string     `json:"category" validate:"omitempty,max=100"`
	SubCategory *string     `json:"subCategory" validate:"omitempty,max=100"`
	Description *string     `json:"description"`
	Amount      *amount     `json:"amount" validate:"omitempty,gt=0,lt=100000000000000000"`
	Date        *model.Date `json:"date"`
}

func (r updateExpenseRequest) patch() model.ExpensePatch {
	p := model.ExpensePatch{
		Category:    r.Category,
		SubCategory: r.SubCategory,
		Description: r.Description,
		Date:        r.Date,
	}
	if r.Amount != nil {
		p.Amount = &r.Amount.Decimal
	}
	return p
}

// errInvalidNumber marks an amount that is not a decimal number.
var errInvalidNumber = errors.New("invalid number")

// amount accepts a JSON number or a numeric string.
type amount struct {
	decimal.Decimal
}

func (a *amount) UnmarshalJSON(b []byte) error {
	if err := a.Decimal.UnmarshalJSON(b); err != nil {
		return errInvalidNumber
	}
	return nil
}

// ----- responses -----

type userResponse struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func newUserResponse(u *model.User) userResponse {
	return userResponse{ID: u.ID, Name: u.Name, Email: u.Email}
}

type tokenResponse struct {
	Token string `json:"token"`
}

type expenseResponse struct {
	ID          uint64            `json:"id"`
	Category    string            `json:"category"`
	SubCategory string            `json:"subCategory"`
	Description string            `json:"description"`
	Amount      json.Number       `json:"amount"`
	Date        model.Date        `json:"date"`
	User        model.UserSummary `json:"user"`
}

func newExpenseResponse(e *model.Expense) expenseResponse {
	return expenseResponse{
		ID:          e.ID,
		Category:    e.Category,
		SubCategory: e.SubCategory,
		Description: e.Description,
		Amount:      json.Number(e.Amount.StringFixed(2)),
		Date:        e.Date,
		User:        e.Owner,
	}
}
