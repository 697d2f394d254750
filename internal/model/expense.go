package model

import "github.com/shopspring/decimal"

// Expense is a financial record owned by exactly one user.  The owner
// is fixed at creation; no update path rewrites it.
//
// Fields:
//  ID          – primary key identifier.
//  Category    – top level grouping, never blank.
//  SubCategory – second level grouping, never blank.
//  Description – optional free text.
//  Amount      – strictly positive value with two decimal places.
//  Date        – calendar day the expense happened.
//  Owner       – id and name of the owning user.
type Expense struct {
	ID          uint64          `json:"id"`           // expenses.id
	Category    string          `json:"category"`     // expenses.category
	SubCategory string          `json:"sub_category"` // expenses.sub_category
	Description string          `json:"description"`  // expenses.description
	Amount      decimal.Decimal `json:"amount"`       // expenses.amount
	Date        Date            `json:"date"`         // expenses.spent_on
	Owner       UserSummary     `json:"owner"`        // expenses.user_id + users.name
}

// ExpenseInput holds the fields required to create an expense.
type ExpenseInput struct {
	Category    string
	SubCategory string
	Description string
	Amount      decimal.Decimal
	Date        Date
}

// ExpensePatch holds the optional fields of a partial update.  Only
// non-nil fields are applied; blank category and sub-category values
// are ignored.
type ExpensePatch struct {
	Category    *string
	SubCategory *string
	Description *string
	Amount      *decimal.Decimal
	Date        *Date
}
